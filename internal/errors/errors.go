package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports missing or invalid credentials and an invalid
// authentication method. It is always raised before any network call.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e ConfigurationError) Error() string {
	return e.Message
}

// AuthExchangeError wraps a failed token exchange. The message of the
// underlying error is surfaced unchanged.
type AuthExchangeError struct {
	Method string
	Err    error
}

func (e AuthExchangeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s authentication failed", e.Method)
	}
	return e.Err.Error()
}

func (e AuthExchangeError) Unwrap() error {
	return e.Err
}

// FetchError wraps a failed secret listing call.
type FetchError struct {
	Err error
}

func (e FetchError) Error() string {
	if e.Err == nil {
		return "failed to fetch secrets"
	}
	return e.Err.Error()
}

func (e FetchError) Unwrap() error {
	return e.Err
}

// WriteError wraps a failed write of the exported secrets file.
type WriteError struct {
	Path string
	Err  error
}

func (e WriteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to write %s", e.Path)
	}
	return e.Err.Error()
}

func (e WriteError) Unwrap() error {
	return e.Err
}

// Kind names the category of err: "configuration", "auth", "fetch",
// "write", "user" or "unknown".
func Kind(err error) string {
	var (
		cfgErr   ConfigurationError
		authErr  AuthExchangeError
		fetchErr FetchError
		writeErr WriteError
		userErr  UserError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &writeErr):
		return "write"
	case errors.As(err, &userErr):
		return "user"
	default:
		return "unknown"
	}
}
