package infisical

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/systmms/secrets-action/internal/secrets"
)

type rawSecret struct {
	SecretKey   string `json:"secretKey"`
	SecretValue string `json:"secretValue"`
}

type rawSecretsResponse struct {
	Secrets []rawSecret `json:"secrets"`
	Imports []struct {
		SecretPath  string      `json:"secretPath"`
		Environment string      `json:"environment"`
		Secrets     []rawSecret `json:"secrets"`
	} `json:"imports"`
}

// ListSecrets returns the secrets of scope. The folder's own secrets come
// first; when imports are included, imported keys that are not already
// present are appended, earlier imports winning over later ones.
func (c *Client) ListSecrets(ctx context.Context, token string, scope secrets.Scope) (*secrets.Map, error) {
	q := url.Values{}
	q.Set("workspaceSlug", scope.ProjectSlug)
	q.Set("environment", scope.Environment)
	q.Set("secretPath", scope.SecretPath)
	q.Set("include_imports", strconv.FormatBool(scope.IncludeImports))
	q.Set("recursive", strconv.FormatBool(scope.Recursive))
	q.Set("expandSecretReferences", "true")

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v3/secrets/raw?"+q.Encode(), nil)
	if err != nil {
		return nil, &Error{Op: "list", Message: "failed to build list request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp rawSecretsResponse
	if err := c.do(req, "list", &resp); err != nil {
		return nil, err
	}

	out := secrets.New()
	for _, s := range resp.Secrets {
		out.Set(s.SecretKey, s.SecretValue)
	}

	if scope.IncludeImports {
		for _, imp := range resp.Imports {
			for _, s := range imp.Secrets {
				if _, exists := out.Get(s.SecretKey); !exists {
					out.Set(s.SecretKey, s.SecretValue)
				}
			}
		}
	}

	return out, nil
}
