package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrymomot/blobkit/pkg/retry"
)

const maxBodySnippet = 4 << 10

// Doer executes HTTP requests. Satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the managed platform's object store REST API using its
// native bearer-token scheme. It serves as the fallback backend: no custom
// signing, opaque HTTP calls only.
type Client struct {
	doer    Doer
	baseURL string
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithDoer sets a custom HTTP client. Useful for testing with mocks.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// New creates a platform store client. An empty baseURL or token yields an
// unconfigured client: operations report it via Configured, and the
// orchestrator skips the backend.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		doer:    &http.Client{},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client can reach the platform store.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.token != ""
}

// Upload stores raw bytes under bucket/path, overwriting any existing object.
func (c *Client) Upload(ctx context.Context, bucket, path string, body []byte, contentType string) retry.Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.objectURL(bucket, path), bytes.NewReader(body))
	if err != nil {
		return retry.NetworkError(err)
	}
	c.authorize(req)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	// Last writer wins, matching the primary backend's PUT semantics.
	req.Header.Set("x-upsert", "true")

	return c.send(req)
}

// Delete removes the object. A 404 still counts as an error outcome; the
// orchestrator's dual-delete tolerance decides what to do with it.
func (c *Client) Delete(ctx context.Context, bucket, path string) retry.Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(bucket, path), nil)
	if err != nil {
		return retry.NetworkError(err)
	}
	c.authorize(req)

	return c.send(req)
}

// PublicURL returns the public URL for an object. Pure string construction.
func (c *Client) PublicURL(bucket, path string) string {
	return c.baseURL + "/object/public/" + bucket + "/" + strings.TrimPrefix(path, "/")
}

// CreateSignedURL asks the platform to mint a time-limited download URL.
func (c *Client) CreateSignedURL(ctx context.Context, bucket, path string, expiresInSeconds int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]int{"expiresIn": expiresInSeconds})
	if err != nil {
		return "", errors.Join(ErrSignURLFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/object/sign/"+bucket+"/"+strings.TrimPrefix(path, "/"), bytes.NewReader(payload))
	if err != nil {
		return "", errors.Join(ErrSignURLFailed, err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return "", errors.Join(ErrSignURLFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrSignURLFailed, resp.StatusCode)
	}

	var body struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Join(ErrSignURLFailed, err)
	}
	if body.SignedURL == "" {
		return "", ErrSignURLFailed
	}

	// The platform returns a path relative to the storage root.
	return c.baseURL + "/" + strings.TrimPrefix(body.SignedURL, "/"), nil
}

func (c *Client) objectURL(bucket, path string) string {
	return c.baseURL + "/object/" + bucket + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func (c *Client) send(req *http.Request) retry.Outcome {
	resp, err := c.doer.Do(req)
	if err != nil {
		return retry.NetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return retry.Success(resp.StatusCode)
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
	return retry.HTTPError(resp.StatusCode, snippet)
}
