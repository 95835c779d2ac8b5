package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lexpraxis/LexPraxis/internal/pkg/env"
	"github.com/lexpraxis/LexPraxis/internal/pkg/vault"
)

const defaultAPIBaseURL = "https://api.stripe.com/v1"

// Credential modes enforced on the provider secret key before use.
const (
	ModeTest = "test"
	ModeLive = "live"
)

const (
	secretKeyName    = "stripe_secret_key"
	secretKeyEnvVar  = "STRIPE_SECRET_KEY"
	testKeyPrefix    = "sk_test_"
	liveKeyPrefix    = "sk_live_"
	requestBodyLimit = 4 << 20
)

// Client is a thin request wrapper around the billing provider's API. It
// resolves the active credential from the vault on every call, so credential
// freshness is bounded by the vault's own cache TTL rather than any state held
// here. The client performs no retries; redelivery and retry policy belong to
// the callers.
type Client struct {
	Vault   *vault.Vault
	BaseURL string
	Mode    string

	HTTPClient *http.Client
}

// NewClient creates a provider client whose mode comes from BILLING_MODE.
func NewClient(v *vault.Vault) *Client {
	return &Client{
		Vault:   v,
		BaseURL: strings.TrimRight(env.GetEnv("BILLING_API_BASE_URL", defaultAPIBaseURL), "/"),
		Mode:    strings.ToLower(strings.TrimSpace(env.GetEnv("BILLING_MODE", ModeTest))),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ListResponse is the provider's cursor-paginated collection envelope.
type ListResponse struct {
	Object  string            `json:"object"`
	Data    []json.RawMessage `json:"data"`
	HasMore bool              `json:"has_more"`
}

// resolveKey fetches the active secret key through the vault, falling back to
// the environment for bootstrap before the store is seeded, and validates its
// mode prefix against the configured mode before any network call.
func (c *Client) resolveKey() (string, error) {
	key, ok := c.Vault.GetSecret(secretKeyName)
	if !ok || strings.TrimSpace(key) == "" {
		key = env.GetEnv(secretKeyEnvVar, "")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("billing: no provider secret key configured")
	}
	if err := validateKeyMode(key, c.Mode); err != nil {
		return "", err
	}
	return key, nil
}

// validateKeyMode rejects a credential whose test/live prefix does not match
// the declared mode. This is a configuration error, not a provider error.
func validateKeyMode(key, mode string) error {
	var keyMode string
	switch {
	case strings.HasPrefix(key, testKeyPrefix):
		keyMode = ModeTest
	case strings.HasPrefix(key, liveKeyPrefix):
		keyMode = ModeLive
	default:
		return errors.New("billing: provider secret key has an unrecognized prefix")
	}
	if keyMode != mode {
		return fmt.Errorf("billing: %s-mode key supplied while client mode is %s", keyMode, mode)
	}
	return nil
}

// Request issues one authenticated call and returns the raw JSON response.
// Query params ride the URL for GET/DELETE and the form body otherwise.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	return c.request(ctx, method, path, params, "")
}

// RequestIdempotent issues a call with a provider-side idempotency key so a
// retried create cannot double-charge.
func (c *Client) RequestIdempotent(ctx context.Context, method, path string, params url.Values, idempotencyKey string) (json.RawMessage, error) {
	return c.request(ctx, method, path, params, idempotencyKey)
}

func (c *Client) request(ctx context.Context, method, path string, params url.Values, idempotencyKey string) (json.RawMessage, error) {
	key, err := c.resolveKey()
	if err != nil {
		return nil, err
	}

	endpoint := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	var body io.Reader
	if params != nil {
		switch method {
		case http.MethodGet, http.MethodDelete:
			endpoint += "?" + params.Encode()
		default:
			body = strings.NewReader(params.Encode())
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyLimit))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("billing api %s %s failed: %s", method, path, extractAPIError(raw, resp.StatusCode))
	}
	return json.RawMessage(raw), nil
}

// List fetches one page of a collection endpoint.
func (c *Client) List(ctx context.Context, path string, params url.Values) (*ListResponse, error) {
	raw, err := c.Request(ctx, http.MethodGet, path, params)
	if err != nil {
		return nil, err
	}
	var out ListResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// extractAPIError pulls the provider's structured error message out of a
// non-2xx body, falling back to the status code when the body is opaque.
func extractAPIError(body []byte, status int) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Error.Message) != "" {
		return fmt.Sprintf("%s (status=%d)", parsed.Error.Message, status)
	}
	return fmt.Sprintf("status=%d", status)
}
