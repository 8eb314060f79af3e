package infisical

import (
	"errors"
	"fmt"
	"net/http"
)

// Error wraps Infisical API errors with context
type Error struct {
	Op         string // Operation: "universal-auth", "oidc-auth", "aws-auth", "list"
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("infisical %s error (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("infisical %s error: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("infisical %s error: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 or 403 response
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
