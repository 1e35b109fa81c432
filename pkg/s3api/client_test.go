package s3api_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blobkit/pkg/credentials"
	"github.com/dmitrymomot/blobkit/pkg/s3api"
)

// doerFunc adapts a function to the Doer interface.
type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testCreds() credentials.CredentialSet {
	return credentials.CredentialSet{
		AccountID:       "acc123",
		AccessKeyID:     "key123",
		SecretAccessKey: "secret123",
		BucketName:      "uploads",
		PublicBaseURL:   "https://cdn.example.com",
	}
}

func TestPut(t *testing.T) {
	t.Parallel()

	t.Run("signed request", func(t *testing.T) {
		t.Parallel()

		var captured *http.Request
		var capturedBody []byte
		client := s3api.New(s3api.WithDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
			captured = req
			capturedBody, _ = io.ReadAll(req.Body)
			return response(200, ""), nil
		})))

		out := client.Put(context.Background(), testCreds(), "posts", "abc/1.jpg", []byte("jpeg-bytes"), "image/jpeg")

		require.True(t, out.OK())
		require.NotNil(t, captured)
		assert.Equal(t, http.MethodPut, captured.Method)
		assert.Equal(t, "https://acc123.r2.cloudflarestorage.com/posts/abc/1.jpg", captured.URL.String())
		assert.Equal(t, []byte("jpeg-bytes"), capturedBody)
		assert.Equal(t, "image/jpeg", captured.Header.Get("Content-Type"))
		assert.Contains(t, captured.Header.Get("Authorization"), "AWS4-HMAC-SHA256 Credential=key123/")
		assert.NotEmpty(t, captured.Header.Get("x-amz-date"))
		assert.Len(t, captured.Header.Get("x-amz-content-sha256"), 64, "body must be hashed")
	})

	t.Run("http error carries status and body", func(t *testing.T) {
		t.Parallel()

		client := s3api.New(s3api.WithDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
			return response(503, "slow down"), nil
		})))

		out := client.Put(context.Background(), testCreds(), "posts", "a.jpg", []byte("x"), "image/jpeg")

		assert.False(t, out.OK())
		assert.Equal(t, 503, out.Status)
		assert.Equal(t, "slow down", string(out.Body))
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		client := s3api.New(s3api.WithDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
			return nil, context.DeadlineExceeded
		})))

		out := client.Put(context.Background(), testCreds(), "posts", "a.jpg", []byte("x"), "image/jpeg")

		assert.False(t, out.OK())
		assert.Error(t, out.Err)
		assert.Zero(t, out.Status)
	})

	t.Run("path traversal rejected without network call", func(t *testing.T) {
		t.Parallel()

		client := s3api.New(s3api.WithDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
			t.Fatal("no request expected")
			return nil, nil
		})))

		out := client.Put(context.Background(), testCreds(), "posts", "../etc/passwd", []byte("x"), "")
		assert.ErrorIs(t, out.Err, s3api.ErrInvalidPath)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	var captured *http.Request
	client := s3api.New(s3api.WithDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
		captured = req
		return response(204, ""), nil
	})))

	out := client.Delete(context.Background(), testCreds(), "posts", "abc/1.jpg")

	require.True(t, out.OK())
	assert.Equal(t, http.MethodDelete, captured.Method)
	assert.Equal(t, "UNSIGNED-PAYLOAD", captured.Header.Get("x-amz-content-sha256"))
	assert.Nil(t, captured.Body)
}

func TestHead(t *testing.T) {
	t.Parallel()

	client := s3api.New(s3api.WithDoer(doerFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodHead, req.Method)
		return response(404, ""), nil
	})))

	out := client.Head(context.Background(), testCreds(), "posts", "missing.jpg")
	assert.Equal(t, 404, out.Status)
}

func TestPresignPut(t *testing.T) {
	t.Parallel()

	client := s3api.New()

	u, err := client.PresignPut(testCreds(), "posts", "abc/1.jpg", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://acc123.r2.cloudflarestorage.com/posts/abc/1.jpg?"))
	assert.Contains(t, u, "X-Amz-Expires=600")
	assert.Contains(t, u, "X-Amz-Signature=")

	_, err = client.PresignPut(testCreds(), "posts", "../x", time.Minute)
	assert.ErrorIs(t, err, s3api.ErrInvalidPath)
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	client := s3api.New()
	assert.Equal(t, "https://cdn.example.com/posts/abc/1.jpg",
		client.PublicURL(testCreds(), "posts", "abc/1.jpg"))
}
