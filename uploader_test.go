package blobkit_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blobkit"
	"github.com/dmitrymomot/blobkit/pkg/breaker"
	"github.com/dmitrymomot/blobkit/pkg/credentials"
	"github.com/dmitrymomot/blobkit/pkg/platform"
	"github.com/dmitrymomot/blobkit/pkg/retry"
	"github.com/dmitrymomot/blobkit/pkg/s3api"
)

// doerFunc adapts a function to the backend clients' Doer interfaces.
type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func httpResponse(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}
}

// countingDoer returns a Doer that counts calls and answers via respond.
func countingDoer(calls *atomic.Int32, respond func(req *http.Request) (*http.Response, error)) doerFunc {
	return func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(req)
	}
}

func alwaysStatus(status int) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return httpResponse(status), nil
	}
}

func validCreds() credentials.CredentialSet {
	return credentials.CredentialSet{
		AccountID:       "acc123",
		AccessKeyID:     "key123",
		SecretAccessKey: "secret123",
		BucketName:      "uploads",
		PublicBaseURL:   "https://cdn.example.com",
	}
}

// fastRetry keeps backoff waits negligible in tests.
func fastRetry() retry.Config {
	return retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func jpeg10KB() blobkit.File {
	return blobkit.File{
		Data:     make([]byte, 10<<10),
		MIMEType: "image/jpeg",
	}
}

type uploaderFixture struct {
	uploader       *blobkit.Uploader
	breaker        *breaker.Breaker
	primaryCalls   *atomic.Int32
	secondaryCalls *atomic.Int32
}

func newFixture(t *testing.T, creds credentials.CredentialSet, primaryRespond, secondaryRespond func(*http.Request) (*http.Response, error), opts ...blobkit.Option) *uploaderFixture {
	t.Helper()

	f := &uploaderFixture{
		breaker:        breaker.New(),
		primaryCalls:   new(atomic.Int32),
		secondaryCalls: new(atomic.Int32),
	}

	primary := s3api.New(s3api.WithDoer(countingDoer(f.primaryCalls, primaryRespond)))
	secondary := platform.New("https://store.example.com", "token123",
		platform.WithDoer(countingDoer(f.secondaryCalls, secondaryRespond)))

	base := []blobkit.Option{
		blobkit.WithRetryConfig(fastRetry()),
		blobkit.WithBreaker(f.breaker),
	}
	f.uploader = blobkit.New(credentials.NewStatic(creds), primary, secondary, append(base, opts...)...)
	return f
}

func TestUploadPrimarySuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, validCreds(), alwaysStatus(200), func(*http.Request) (*http.Response, error) {
		t.Error("secondary must not be called when primary succeeds")
		return httpResponse(200), nil
	})

	res, err := f.uploader.Upload(context.Background(), "posts", "abc/1.jpg", jpeg10KB())

	require.NoError(t, err)
	assert.Equal(t, "posts/abc/1.jpg", res.Path)
	assert.Equal(t, blobkit.BackendPrimary, res.Backend)
	assert.Equal(t, "https://cdn.example.com/posts/abc/1.jpg", res.PublicURL)
	assert.Equal(t, int32(1), f.primaryCalls.Load())

	c, err := f.breaker.State(context.Background(), string(blobkit.BackendPrimary))
	require.NoError(t, err)
	assert.Equal(t, 0, c.FailureCount)
}

func TestUploadRetryExhaustionFallsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, validCreds(), alwaysStatus(503), alwaysStatus(200))

	res, err := f.uploader.Upload(context.Background(), "posts", "abc/1.jpg", jpeg10KB())

	require.NoError(t, err)
	assert.Equal(t, blobkit.BackendSecondary, res.Backend)
	assert.Equal(t, "https://store.example.com/object/public/posts/abc/1.jpg", res.PublicURL)

	// maxRetries=2 means exactly 3 primary attempts before falling back.
	assert.Equal(t, int32(3), f.primaryCalls.Load())
	assert.Equal(t, int32(1), f.secondaryCalls.Load())

	// One recorded failure per invocation, not one per retry.
	c, err := f.breaker.State(context.Background(), string(blobkit.BackendPrimary))
	require.NoError(t, err)
	assert.Equal(t, 1, c.FailureCount)
}

func TestUploadNonRetriableShortCircuit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, validCreds(), alwaysStatus(403), alwaysStatus(200))

	res, err := f.uploader.Upload(context.Background(), "posts", "abc/1.jpg", jpeg10KB())

	require.NoError(t, err)
	assert.Equal(t, blobkit.BackendSecondary, res.Backend)
	assert.Equal(t, int32(1), f.primaryCalls.Load(), "403 must not be retried")
}

func TestUploadUnconfiguredPrimary(t *testing.T) {
	t.Parallel()

	f := newFixture(t, credentials.CredentialSet{}, func(*http.Request) (*http.Response, error) {
		t.Error("primary must not be called without credentials")
		return nil, errors.New("unreachable")
	}, alwaysStatus(200))

	res, err := f.uploader.Upload(context.Background(), "posts", "abc/1.jpg", jpeg10KB())

	require.NoError(t, err)
	assert.Equal(t, blobkit.BackendSecondary, res.Backend)
	assert.Equal(t, int32(0), f.primaryCalls.Load())

	c, err := f.breaker.State(context.Background(), string(blobkit.BackendPrimary))
	require.NoError(t, err)
	assert.Equal(t, 0, c.FailureCount, "no attempt, no recorded failure")
}

func TestUploadSkipsOpenCircuit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cb := breaker.New(breaker.WithFailureThreshold(1))
	cb.RecordFailure(ctx, string(blobkit.BackendPrimary))

	f := newFixture(t, validCreds(), func(*http.Request) (*http.Response, error) {
		t.Error("primary must not be called while its circuit is open")
		return nil, errors.New("unreachable")
	}, alwaysStatus(200), blobkit.WithBreaker(cb))

	res, err := f.uploader.Upload(ctx, "posts", "abc/1.jpg", jpeg10KB())

	require.NoError(t, err)
	assert.Equal(t, blobkit.BackendSecondary, res.Backend)

	// Skipping is not a new failure: count stays at the pre-existing 1.
	c, err := cb.State(ctx, string(blobkit.BackendPrimary))
	require.NoError(t, err)
	assert.Equal(t, 1, c.FailureCount)
}

func TestUploadValidationFailsFast(t *testing.T) {
	t.Parallel()

	policy := blobkit.Policy{MaxSize: 1 << 10, AllowedMIMETypes: []string{"image/jpeg"}}

	t.Run("too large", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, validCreds(), alwaysStatus(200), alwaysStatus(200),
			blobkit.WithBucketPolicy("posts", policy))

		_, err := f.uploader.Upload(context.Background(), "posts", "a.jpg", jpeg10KB())

		var uerr *blobkit.Error
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, blobkit.ErrorValidation, uerr.Kind)
		assert.False(t, uerr.Retriable)
		assert.Equal(t, int32(0), f.primaryCalls.Load(), "validation failure must have no side effects")
		assert.Equal(t, int32(0), f.secondaryCalls.Load())
	})

	t.Run("wrong mime type", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, validCreds(), alwaysStatus(200), alwaysStatus(200),
			blobkit.WithBucketPolicy("posts", policy))

		file := blobkit.File{Data: []byte("GIF89a"), MIMEType: "image/gif"}
		_, err := f.uploader.Upload(context.Background(), "posts", "a.gif", file)

		var uerr *blobkit.Error
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, blobkit.ErrorValidation, uerr.Kind)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, validCreds(), alwaysStatus(200), alwaysStatus(200))
		_, err := f.uploader.Upload(context.Background(), "posts", "a.jpg", blobkit.File{MIMEType: "image/jpeg"})

		var uerr *blobkit.Error
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, blobkit.ErrorValidation, uerr.Kind)
	})

	t.Run("skipped on request", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, validCreds(), alwaysStatus(200), alwaysStatus(200),
			blobkit.WithBucketPolicy("posts", policy))

		_, err := f.uploader.Upload(context.Background(), "posts", "a.jpg", jpeg10KB(), blobkit.WithoutValidation())
		require.NoError(t, err)
	})
}

func TestUploadTimeoutFallsBack(t *testing.T) {
	t.Parallel()

	// Primary hangs until the per-attempt timeout cancels the request.
	hang := func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}

	f := newFixture(t, validCreds(), hang, alwaysStatus(200),
		blobkit.WithAttemptTimeout(30*time.Millisecond))

	res, err := f.uploader.Upload(context.Background(), "posts", "abc/1.jpg", jpeg10KB())

	require.NoError(t, err)
	assert.Equal(t, blobkit.BackendSecondary, res.Backend)
	assert.Equal(t, int32(3), f.primaryCalls.Load(), "timeouts classify as network and are retried")

	c, err := f.breaker.State(context.Background(), string(blobkit.BackendPrimary))
	require.NoError(t, err)
	assert.Equal(t, 1, c.FailureCount)
}

func TestUploadBothBackendsFail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, validCreds(), alwaysStatus(503), alwaysStatus(500))

	_, err := f.uploader.Upload(context.Background(), "posts", "abc/1.jpg", jpeg10KB())

	var uerr *blobkit.Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, blobkit.ErrorServer, uerr.Kind)
	assert.True(t, uerr.Retriable)
	assert.Equal(t, "upload failed: storage backend error (status 500)", uerr.Message)
}

func TestUploadCORSFallsThrough(t *testing.T) {
	t.Parallel()

	corsFail := func(*http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("fetch rejected: %w", retry.ErrCrossOrigin)
	}

	t.Run("secondary rescues", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, validCreds(), corsFail, alwaysStatus(200))

		res, err := f.uploader.Upload(context.Background(), "posts", "abc/1.jpg", jpeg10KB())

		require.NoError(t, err)
		assert.Equal(t, blobkit.BackendSecondary, res.Backend)
		assert.Equal(t, int32(1), f.primaryCalls.Load(), "cors failures must not be retried")
	})

	t.Run("secondary fails identically", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, validCreds(), corsFail, corsFail)

		_, err := f.uploader.Upload(context.Background(), "posts", "abc/1.jpg", jpeg10KB())

		var uerr *blobkit.Error
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, blobkit.ErrorCORS, uerr.Kind)
		assert.False(t, uerr.Retriable)
		assert.Equal(t, int32(1), f.secondaryCalls.Load())
	})
}

func TestUploadNoBackendsConfigured(t *testing.T) {
	t.Parallel()

	primary := s3api.New(s3api.WithDoer(doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("unreachable")
	})))
	secondary := platform.New("", "") // unconfigured

	u := blobkit.New(credentials.NewStatic(credentials.CredentialSet{}), primary, secondary)

	_, err := u.Upload(context.Background(), "posts", "a.jpg", jpeg10KB())

	var uerr *blobkit.Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, blobkit.ErrorUnknown, uerr.Kind)
}

func TestUploadRetryOverride(t *testing.T) {
	t.Parallel()

	f := newFixture(t, validCreds(), alwaysStatus(503), alwaysStatus(200))

	override := retry.Config{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	res, err := f.uploader.Upload(context.Background(), "posts", "a.jpg", jpeg10KB(), blobkit.WithRetryOverride(override))

	require.NoError(t, err)
	assert.Equal(t, blobkit.BackendSecondary, res.Backend)
	assert.Equal(t, int32(1), f.primaryCalls.Load(), "override must replace the constructor retry bounds")
}

func TestUploadCallerDeadlineBoundsWholeCall(t *testing.T) {
	t.Parallel()

	slowRetry := retry.Config{MaxRetries: 5, BaseDelay: 200 * time.Millisecond, MaxDelay: time.Second}

	f := newFixture(t, validCreds(),
		func(*http.Request) (*http.Response, error) { return nil, errors.New("connection refused") },
		func(*http.Request) (*http.Response, error) { return nil, errors.New("connection refused") },
		blobkit.WithRetryConfig(slowRetry))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.uploader.Upload(ctx, "posts", "a.jpg", jpeg10KB())

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second,
		"expired deadline must cut backoff waits instead of running the full retry schedule")
}
