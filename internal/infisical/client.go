// Package infisical talks to the Infisical API: the three login endpoints
// and the raw secret listing.
package infisical

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/systmms/secrets-action/internal/headers"
)

const (
	// DefaultHost is the Infisical cloud endpoint
	DefaultHost = "https://app.infisical.com"
	// DefaultTimeout bounds every HTTP request
	DefaultTimeout = 30 * time.Second

	userAgent = "secrets-action"
)

// IDTokenSource issues OIDC identity tokens for the running job
type IDTokenSource interface {
	IDToken(ctx context.Context, audience string) (string, error)
}

// AWSConfigLoader resolves the AWS credentials and region used to sign the
// caller identity request
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// Client is an Infisical API client bound to one host and header set
type Client struct {
	httpClient *http.Client
	host       string
	headers    headers.Map
	idTokens   IDTokenSource
	loadAWS    AWSConfigLoader
	now        func() time.Time
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithIDTokenSource sets where OIDC identity tokens come from
func WithIDTokenSource(src IDTokenSource) Option {
	return func(c *Client) {
		c.idTokens = src
	}
}

// WithAWSConfigLoader overrides how AWS credentials are resolved
func WithAWSConfigLoader(loader AWSConfigLoader) Option {
	return func(c *Client) {
		c.loadAWS = loader
	}
}

// WithClock overrides the signing clock
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a client for host. Every request carries hdrs.
func New(host string, hdrs headers.Map, opts ...Option) *Client {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultHost
	}

	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		host:       host,
		headers:    hdrs,
		loadAWS: func(ctx context.Context) (aws.Config, error) {
			return awsconfig.LoadDefaultConfig(ctx)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Host returns the API base URL
func (c *Client) Host() string {
	return c.host
}

// newRequest builds a request with the configured headers applied
func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.headers.Apply(req.Header)

	return req, nil
}

// do sends req and decodes a JSON response into out
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(bodyBytes),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Message: "failed to decode response", Err: err}
	}
	return nil
}

// errorMessage extracts the "message" field of an API error body
func errorMessage(body []byte) string {
	var apiErr struct {
		Message interface{} `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != nil {
		switch m := apiErr.Message.(type) {
		case string:
			return m
		default:
			if b, err := json.Marshal(m); err == nil {
				return string(b)
			}
		}
	}
	return strings.TrimSpace(string(body))
}
