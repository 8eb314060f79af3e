package infisical

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const (
	defaultAWSRegion   = "us-east-1"
	callerIdentityBody = "Action=GetCallerIdentity&Version=2011-06-15"
)

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	TokenType   string `json:"tokenType"`
}

// UniversalLogin exchanges a machine identity client id and secret for an
// access token
func (c *Client) UniversalLogin(ctx context.Context, clientID, clientSecret string) (string, error) {
	return c.login(ctx, "universal-auth", "/api/v1/auth/universal-auth/login", map[string]string{
		"clientId":     clientID,
		"clientSecret": clientSecret,
	})
}

// OIDCLogin requests an identity token for audience from the job's OIDC
// provider and exchanges it for an access token
func (c *Client) OIDCLogin(ctx context.Context, identityID, audience string) (string, error) {
	if c.idTokens == nil {
		return "", &Error{Op: "oidc-auth", Message: "no OIDC identity token source configured"}
	}

	jwt, err := c.idTokens.IDToken(ctx, audience)
	if err != nil {
		return "", &Error{Op: "oidc-auth", Message: "failed to obtain OIDC identity token", Err: err}
	}

	return c.login(ctx, "oidc-auth", "/api/v1/auth/oidc-auth/login", map[string]string{
		"identityId": identityID,
		"jwt":        jwt,
	})
}

// AWSIAMLogin signs an sts:GetCallerIdentity request with the ambient AWS
// credentials and lets Infisical replay it to prove the caller's identity
func (c *Client) AWSIAMLogin(ctx context.Context, identityID string) (string, error) {
	signed, err := c.signCallerIdentity(ctx)
	if err != nil {
		return "", &Error{Op: "aws-auth", Message: "failed to sign caller identity request", Err: err}
	}

	headerJSON, err := json.Marshal(signed)
	if err != nil {
		return "", &Error{Op: "aws-auth", Message: "failed to encode signed headers", Err: err}
	}

	return c.login(ctx, "aws-auth", "/api/v1/auth/aws-auth/login", map[string]string{
		"identityId":           identityID,
		"iamHttpRequestMethod": http.MethodPost,
		"iamRequestBody":       base64.StdEncoding.EncodeToString([]byte(callerIdentityBody)),
		"iamRequestHeaders":    base64.StdEncoding.EncodeToString(headerJSON),
	})
}

// signCallerIdentity returns the headers of a SigV4-signed GetCallerIdentity
// request against the regional STS endpoint
func (c *Client) signCallerIdentity(ctx context.Context) (map[string]string, error) {
	cfg, err := c.loadAWS(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("no AWS credentials available")
	}

	region := cfg.Region
	if region == "" {
		region = defaultAWSRegion
	}

	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve AWS credentials: %w", err)
	}

	endpoint := fmt.Sprintf("https://sts.%s.amazonaws.com/", region)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(callerIdentityBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	sum := sha256.Sum256([]byte(callerIdentityBody))
	if err := v4.NewSigner().SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), "sts", region, c.now().UTC()); err != nil {
		return nil, err
	}

	signed := map[string]string{
		"Host":           req.URL.Host,
		"Content-Length": strconv.Itoa(len(callerIdentityBody)),
	}
	for name, values := range req.Header {
		if len(values) > 0 {
			signed[name] = values[0]
		}
	}
	return signed, nil
}

func (c *Client) login(ctx context.Context, op, path string, body map[string]string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return "", &Error{Op: op, Message: "failed to build login request", Err: err}
	}

	var resp loginResponse
	if err := c.do(req, op, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &Error{Op: op, Message: "response did not contain an access token"}
	}
	return resp.AccessToken, nil
}
