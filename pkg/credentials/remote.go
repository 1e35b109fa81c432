package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// Client fetches named secrets from the platform secret store over an
// authenticated side-channel. Transient store errors are retried blindly by
// the underlying retryable client; the caller-facing failure mode stays
// "unconfigured" either way.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	token   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Test hook.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http.HTTPClient = hc
		}
	}
}

// WithRetryMax sets the number of fetch retries.
func WithRetryMax(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 {
			c.http.RetryMax = n
		}
	}
}

// NewClient creates a secret store client for the given base URL and bearer
// token.
func NewClient(baseURL, token string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" || token == "" {
		return nil, ErrMissingStoreConfig
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil // diagnostics go through the provider's logger, masked

	c := &Client{
		http:    rc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch retrieves the named secrets in one call. The response is a flat JSON
// object mapping secret names to values; missing names are simply absent.
func (c *Client) Fetch(ctx context.Context, names ...string) (map[string]string, error) {
	q := url.Values{}
	q.Set("names", strings.Join(names, ","))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/secrets?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Join(ErrSecretFetchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrSecretFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrSecretFetchFailed, resp.StatusCode)
	}

	var secrets map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&secrets); err != nil {
		return nil, errors.Join(ErrSecretFetchFailed, err)
	}
	return secrets, nil
}
