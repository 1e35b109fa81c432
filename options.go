package blobkit

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/blobkit/pkg/breaker"
	"github.com/dmitrymomot/blobkit/pkg/retry"
)

const defaultAttemptTimeout = 30 * time.Second

// Option configures an Uploader at construction time.
type Option func(*Uploader)

// WithBreaker sets the circuit breaker shared across backends. Defaults to a
// fresh in-memory breaker; pass a shared instance when multiple uploaders
// must agree on backend health.
func WithBreaker(b *breaker.Breaker) Option {
	return func(u *Uploader) {
		if b != nil {
			u.breaker = b
		}
	}
}

// WithRetryConfig sets the default retry bounds for all uploads.
func WithRetryConfig(cfg retry.Config) Option {
	return func(u *Uploader) {
		u.retryCfg = cfg
	}
}

// WithAttemptTimeout bounds each individual HTTP transfer. The caller's
// context deadline still bounds the whole call including backoff waits.
func WithAttemptTimeout(d time.Duration) Option {
	return func(u *Uploader) {
		if d > 0 {
			u.attemptTimeout = d
		}
	}
}

// WithLogger sets the logger for transfer diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(u *Uploader) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithBucketPolicy registers a validation policy for a bucket. Uploads into
// buckets without a policy are only checked for non-emptiness.
func WithBucketPolicy(bucket string, p Policy) Option {
	return func(u *Uploader) {
		u.policies[bucket] = p
	}
}

// uploadOptions carries per-call overrides.
type uploadOptions struct {
	validate bool
	retryCfg retry.Config
}

// UploadOption adjusts a single Upload call.
type UploadOption func(*uploadOptions)

// WithoutValidation skips the bucket policy check for this call.
func WithoutValidation() UploadOption {
	return func(o *uploadOptions) {
		o.validate = false
	}
}

// WithRetryOverride replaces the retry bounds for this call.
func WithRetryOverride(cfg retry.Config) UploadOption {
	return func(o *uploadOptions) {
		o.retryCfg = cfg
	}
}
