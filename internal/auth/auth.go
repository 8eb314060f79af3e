// Package auth selects and runs the credential exchange that yields the
// bearer token for a run.
package auth

import (
	"context"
	"fmt"
	"strings"

	dserrors "github.com/systmms/secrets-action/internal/errors"
	"github.com/systmms/secrets-action/internal/logging"
)

// Method names a credential exchange protocol
type Method string

const (
	Universal Method = "universal"
	OIDC      Method = "oidc"
	AWSIAM    Method = "aws-iam"
)

// Methods lists every supported method
func Methods() []Method {
	return []Method{Universal, OIDC, AWSIAM}
}

// Credentials carries the inputs of every method. Only the fields of the
// selected method are read.
type Credentials struct {
	ClientID     string
	ClientSecret string
	IdentityID   string
	OIDCAudience string
}

// Token is a bearer token. It formats as [REDACTED].
type Token string

func (t Token) String() string {
	return logging.Secret(t).String()
}

func (t Token) GoString() string {
	return logging.Secret(t).GoString()
}

// Exchanger performs the network side of each method
type Exchanger interface {
	UniversalLogin(ctx context.Context, clientID, clientSecret string) (string, error)
	OIDCLogin(ctx context.Context, identityID, audience string) (string, error)
	AWSIAMLogin(ctx context.Context, identityID string) (string, error)
}

// Dispatcher runs exactly one exchange per Login call
type Dispatcher struct {
	exchanger Exchanger
	logger    *logging.Logger
}

// NewDispatcher creates a dispatcher backed by exchanger
func NewDispatcher(exchanger Exchanger, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		exchanger: exchanger,
		logger:    logger,
	}
}

// Login validates the credentials required by method and exchanges them for
// a token. The method is matched exactly; credentials for another method
// never cause a fallback. Validation failures are returned before any call
// to the exchanger.
func (d *Dispatcher) Login(ctx context.Context, method Method, creds Credentials) (Token, error) {
	var (
		raw string
		err error
	)

	switch method {
	case Universal:
		if blank(creds.ClientID) || blank(creds.ClientSecret) {
			return "", dserrors.ConfigurationError{Field: "client-id", Message: "Missing universal auth credentials"}
		}
		d.debug("Authenticating with universal auth")
		raw, err = d.exchanger.UniversalLogin(ctx, creds.ClientID, creds.ClientSecret)

	case OIDC:
		if blank(creds.IdentityID) {
			return "", dserrors.ConfigurationError{Field: "identity-id", Message: "Missing identity ID for OIDC auth"}
		}
		d.debug("Authenticating with OIDC auth for identity %s", creds.IdentityID)
		raw, err = d.exchanger.OIDCLogin(ctx, creds.IdentityID, creds.OIDCAudience)

	case AWSIAM:
		if blank(creds.IdentityID) {
			return "", dserrors.ConfigurationError{Field: "identity-id", Message: "Missing identity ID for AWS IAM auth"}
		}
		d.debug("Authenticating with AWS IAM auth for identity %s", creds.IdentityID)
		raw, err = d.exchanger.AWSIAMLogin(ctx, creds.IdentityID)

	default:
		return "", dserrors.ConfigurationError{
			Field:   "method",
			Message: fmt.Sprintf("Invalid authentication method: %s", method),
		}
	}

	if err != nil {
		return "", dserrors.AuthExchangeError{Method: string(method), Err: err}
	}

	return Token(raw), nil
}

func (d *Dispatcher) debug(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Debug(format, args...)
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
