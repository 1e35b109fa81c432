package s3api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/blobkit/pkg/credentials"
	"github.com/dmitrymomot/blobkit/pkg/retry"
	"github.com/dmitrymomot/blobkit/pkg/signer"
)

// DefaultStorageDomain is the host suffix of the S3-compatible backend;
// the account identifier is prepended per request.
const DefaultStorageDomain = "r2.cloudflarestorage.com"

// Response bodies are only kept as diagnostics snippets.
const maxBodySnippet = 4 << 10

// Doer executes HTTP requests. Satisfied by *http.Client; replaced by mocks
// in tests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a raw HTTP client for the S3-compatible primary backend. Every
// request is signed fresh via the signer, because the embedded timestamp is
// part of the signature and expires.
type Client struct {
	doer          Doer
	signer        *signer.Signer
	storageDomain string
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

// WithSigner sets a custom signer (e.g. one with a fixed clock).
func WithSigner(s *signer.Signer) Option {
	return func(c *Client) {
		if s != nil {
			c.signer = s
		}
	}
}

// WithStorageDomain overrides the backend host suffix.
func WithStorageDomain(domain string) Option {
	return func(c *Client) {
		if domain != "" {
			c.storageDomain = domain
		}
	}
}

// New creates a primary backend client.
func New(opts ...Option) *Client {
	c := &Client{
		doer:          &http.Client{},
		signer:        signer.New(),
		storageDomain: DefaultStorageDomain,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) host(creds credentials.CredentialSet) string {
	return creds.AccountID + "." + c.storageDomain
}

// objectPath normalizes and validates the canonical object URI.
func objectPath(bucket, path string) (string, error) {
	path = strings.TrimPrefix(path, "/")
	if bucket == "" || path == "" {
		return "", ErrEmptyObjectPath
	}
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return "/" + bucket + "/" + path, nil
}

// Put uploads raw bytes to the bucket, returning the normalized transfer
// outcome. One call issues exactly one HTTP request.
func (c *Client) Put(ctx context.Context, creds credentials.CredentialSet, bucket, path string, body []byte, contentType string) retry.Outcome {
	uri, err := objectPath(bucket, path)
	if err != nil {
		return retry.NetworkError(err)
	}

	extra := http.Header{}
	if contentType != "" {
		extra.Set("Content-Type", contentType)
	}

	headers := c.signer.Sign(toSignerCreds(creds), http.MethodPut, c.host(creds), uri, extra, body)
	return c.send(ctx, http.MethodPut, c.host(creds), uri, headers, body)
}

// Delete removes an object. The request body is empty and unsigned.
func (c *Client) Delete(ctx context.Context, creds credentials.CredentialSet, bucket, path string) retry.Outcome {
	uri, err := objectPath(bucket, path)
	if err != nil {
		return retry.NetworkError(err)
	}

	headers := c.signer.Sign(toSignerCreds(creds), http.MethodDelete, c.host(creds), uri, nil, nil)
	return c.send(ctx, http.MethodDelete, c.host(creds), uri, headers, nil)
}

// Head checks whether an object exists.
func (c *Client) Head(ctx context.Context, creds credentials.CredentialSet, bucket, path string) retry.Outcome {
	uri, err := objectPath(bucket, path)
	if err != nil {
		return retry.NetworkError(err)
	}

	headers := c.signer.Sign(toSignerCreds(creds), http.MethodHead, c.host(creds), uri, nil, nil)
	return c.send(ctx, http.MethodHead, c.host(creds), uri, headers, nil)
}

// PresignPut returns a presigned URL authorizing a single PUT of the object,
// valid for the given window. No network call is made.
func (c *Client) PresignPut(creds credentials.CredentialSet, bucket, path string, expires time.Duration) (string, error) {
	uri, err := objectPath(bucket, path)
	if err != nil {
		return "", err
	}
	return c.signer.Presign(toSignerCreds(creds), http.MethodPut, c.host(creds), uri, expires), nil
}

// PublicURL returns the public URL for an object under the configured public
// base. Pure string construction, no network call.
func (c *Client) PublicURL(creds credentials.CredentialSet, bucket, path string) string {
	return strings.TrimSuffix(creds.PublicBaseURL, "/") + "/" + bucket + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) send(ctx context.Context, method, host, uri string, headers http.Header, body []byte) retry.Outcome {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, "https://"+host+uri, reader)
	if err != nil {
		return retry.NetworkError(err)
	}
	req.Header = headers
	req.Host = host

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

func toSignerCreds(creds credentials.CredentialSet) signer.Credentials {
	return signer.Credentials{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
	}
}
