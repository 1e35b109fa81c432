package blobkit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/blobkit/pkg/breaker"
	"github.com/dmitrymomot/blobkit/pkg/credentials"
	"github.com/dmitrymomot/blobkit/pkg/logger"
	"github.com/dmitrymomot/blobkit/pkg/platform"
	"github.com/dmitrymomot/blobkit/pkg/retry"
	"github.com/dmitrymomot/blobkit/pkg/s3api"
)

// Backend identifies which storage backend served an operation.
type Backend string

const (
	BackendPrimary   Backend = "primary"
	BackendSecondary Backend = "secondary"
)

// Result reports a successful upload.
type Result struct {
	Path      string
	PublicURL string
	Backend   Backend
}

// Uploader orchestrates resilient uploads and deletes across the primary
// S3-compatible backend and the secondary platform store. Each call is
// independent; the circuit breaker and credential cache are the only shared
// state, and both are safe for concurrent use.
type Uploader struct {
	provider  *credentials.Provider
	primary   *s3api.Client
	secondary *platform.Client

	breaker        *breaker.Breaker
	retryCfg       retry.Config
	attemptTimeout time.Duration
	policies       map[string]Policy
	logger         *slog.Logger
}

// New creates an Uploader. The provider and at least one backend client are
// required; an unconfigured backend is skipped at call time with zero
// attempts.
func New(provider *credentials.Provider, primary *s3api.Client, secondary *platform.Client, opts ...Option) *Uploader {
	u := &Uploader{
		provider:       provider,
		primary:        primary,
		secondary:      secondary,
		breaker:        breaker.New(),
		retryCfg:       retry.DefaultConfig(),
		attemptTimeout: defaultAttemptTimeout,
		policies:       make(map[string]Policy),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload stores the file under bucket/path, trying the primary backend with
// bounded retries and falling back to the secondary on exhaustion. Expected
// failure modes are returned as *Error, never panicked.
//
// A cors-classified failure stops retries against the primary but, as in the
// original design, still falls through to the secondary with the same
// request shape; a caller inside the same browser-security context will
// likely see the fallback fail identically.
func (u *Uploader) Upload(ctx context.Context, bucket, path string, file File, opts ...UploadOption) (*Result, error) {
	callOpts := uploadOptions{validate: true, retryCfg: u.retryCfg}
	for _, opt := range opts {
		opt(&callOpts)
	}

	if callOpts.validate {
		if err := u.validate(bucket, file); err != nil {
			return nil, &Error{Kind: ErrorValidation, Message: err.Error()}
		}
	}

	creds := u.provider.Resolve(ctx)

	var (
		lastOut    retry.Outcome
		lastClass  retry.Classification
		classified bool
	)

	if creds.IsConfigured() {
		if u.breaker.IsOpen(ctx, string(BackendPrimary)) {
			u.logger.InfoContext(ctx, "primary circuit open, skipping to secondary",
				logger.Bucket(bucket), logger.Path(path))
		} else {
			out, class := u.attempt(ctx, BackendPrimary, callOpts.retryCfg, func(actx context.Context) retry.Outcome {
				return u.primary.Put(actx, creds, bucket, path, file.Data, file.MIMEType)
			})
			if out.OK() {
				u.breaker.RecordSuccess(ctx, string(BackendPrimary))
				return &Result{
					Path:      bucket + "/" + path,
					PublicURL: u.primary.PublicURL(creds, bucket, path),
					Backend:   BackendPrimary,
				}, nil
			}
			// One failure per invocation, not one per retry.
			u.breaker.RecordFailure(ctx, string(BackendPrimary))
			lastOut, lastClass, classified = out, class, true
		}
	}

	if u.secondary.Configured() {
		out, class := u.attempt(ctx, BackendSecondary, callOpts.retryCfg, func(actx context.Context) retry.Outcome {
			return u.secondary.Upload(actx, bucket, path, file.Data, file.MIMEType)
		})
		if out.OK() {
			u.breaker.RecordSuccess(ctx, string(BackendSecondary))
			return &Result{
				Path:      bucket + "/" + path,
				PublicURL: u.secondary.PublicURL(bucket, path),
				Backend:   BackendSecondary,
			}, nil
		}
		u.breaker.RecordFailure(ctx, string(BackendSecondary))
		lastOut, lastClass, classified = out, class, true
	}

	if !classified {
		return nil, &Error{Kind: ErrorUnknown, Message: "no storage backend is configured"}
	}
	return nil, userError(lastOut, lastClass)
}

// attempt runs the bounded retry loop against one backend. Each iteration
// issues exactly one HTTP call under the per-attempt timeout; the backoff
// sleep shares the caller's cancellation, so the caller deadline bounds the
// whole loop and a slow backend cannot starve the fallback.
func (u *Uploader) attempt(ctx context.Context, backend Backend, cfg retry.Config, send func(context.Context) retry.Outcome) (retry.Outcome, retry.Classification) {
	var (
		out   retry.Outcome
		class retry.Classification
	)

	for i := 0; i <= cfg.MaxRetries; i++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if u.attemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, u.attemptTimeout)
		}
		out = send(attemptCtx)
		if cancel != nil {
			cancel()
		}

		if out.OK() {
			return out, retry.Classification{}
		}

		class = retry.Classify(out)
		u.logger.WarnContext(ctx, "transfer attempt failed",
			logger.Backend(string(backend)),
			logger.Attempt(i),
			logger.Status(out.Status),
			logger.Error(out.Err),
			slog.String("kind", string(class.Kind)),
		)

		if !class.Retriable || i == cfg.MaxRetries {
			break
		}
		if err := retry.Sleep(ctx, retry.Delay(i, cfg)); err != nil {
			// Caller deadline consumed the remaining budget.
			break
		}
	}

	return out, class
}

func (u *Uploader) validate(bucket string, f File) error {
	if f.size() == 0 {
		return ErrEmptyFile
	}
	p, ok := u.policies[bucket]
	if !ok {
		return nil
	}
	return p.Validate(f)
}

// userError maps the last classified failure to the short message crossing
// the outward boundary. Raw backend bodies stay in logs only.
func userError(out retry.Outcome, class retry.Classification) *Error {
	e := &Error{Kind: ErrorKind(class.Kind), Retriable: class.Retriable}
	switch class.Kind {
	case retry.KindNetwork:
		e.Message = "upload failed: storage backend unreachable"
	case retry.KindServer:
		e.Message = fmt.Sprintf("upload failed: storage backend error (status %d)", out.Status)
	case retry.KindClient:
		e.Message = "upload rejected by storage backend"
	case retry.KindCORS:
		e.Message = "upload blocked by browser security policy"
	default:
		e.Kind = ErrorUnknown
		e.Message = "upload failed, please try again"
	}
	return e
}
