package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// Masker registers values that must never be logged
type Masker interface {
	SetSecret(value string)
}

// IDTokenSource requests job OIDC tokens from the Actions token service.
// Issued tokens are registered with Masker when one is set.
type IDTokenSource struct {
	RequestURL   string
	RequestToken string
	HTTPClient   *http.Client
	Masker       Masker
}

// NewIDTokenSource reads the request URL and token the runner exposes to
// jobs with the id-token: write permission. A nil getenv reads the process
// environment.
func NewIDTokenSource(getenv func(string) string, hc *http.Client, masker Masker) *IDTokenSource {
	if getenv == nil {
		getenv = os.Getenv
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &IDTokenSource{
		RequestURL:   getenv("ACTIONS_ID_TOKEN_REQUEST_URL"),
		RequestToken: getenv("ACTIONS_ID_TOKEN_REQUEST_TOKEN"),
		HTTPClient:   hc,
		Masker:       masker,
	}
}

// IDToken returns a signed JWT for audience. An empty audience uses the
// service default.
func (s *IDTokenSource) IDToken(ctx context.Context, audience string) (string, error) {
	if s.RequestToken == "" {
		return "", errors.New("Unable to get ACTIONS_ID_TOKEN_REQUEST_TOKEN env variable")
	}
	if s.RequestURL == "" {
		return "", errors.New("Unable to get ACTIONS_ID_TOKEN_REQUEST_URL env variable")
	}

	u, err := url.Parse(s.RequestURL)
	if err != nil {
		return "", fmt.Errorf("invalid ACTIONS_ID_TOKEN_REQUEST_URL: %w", err)
	}
	if audience != "" {
		q := u.Query()
		q.Set("audience", audience)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.RequestToken)
	req.Header.Set("Accept", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Failed to get ID Token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Failed to get ID Token. Error Code : %d Error Message: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode ID token response: %w", err)
	}
	if payload.Value == "" {
		return "", errors.New("Response json body do not have ID Token field")
	}
	if s.Masker != nil {
		s.Masker.SetSecret(payload.Value)
	}
	return payload.Value, nil
}
