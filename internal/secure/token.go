package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrTokenDestroyed is returned when a destroyed holder is used
var ErrTokenDestroyed = errors.New("bearer token has already been released")

// TokenHolder keeps a bearer token encrypted in a memguard enclave for the
// duration of a run. The plaintext only exists while a Use callback runs.
type TokenHolder struct {
	enclave   *memguard.Enclave
	mu        sync.RWMutex
	destroyed bool
}

// HoldToken moves token into an enclave
func HoldToken(token string) *TokenHolder {
	// memguard wipes the slice it is given, so hand it a private copy
	data := []byte(token)
	return &TokenHolder{
		enclave: memguard.NewEnclave(data),
	}
}

// Use decrypts the token and passes it to fn. The decrypted buffer is
// wiped when fn returns.
func (h *TokenHolder) Use(fn func(token string) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.destroyed {
		return ErrTokenDestroyed
	}

	// NewEnclave returns nil for empty input
	if h.enclave == nil {
		return fn("")
	}

	locked, err := h.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(string(locked.Bytes()))
}

// Destroy releases the enclave. It is safe to call more than once.
func (h *TokenHolder) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.destroyed {
		return
	}
	h.enclave = nil
	h.destroyed = true
}
