package breaker

import (
	"context"
	"io"
	"log/slog"
	"time"
)

const (
	defaultFailureThreshold = 3
	defaultResetTimeout     = 30 * time.Second
)

// Breaker gates attempts per named backend: after FailureThreshold
// consecutive failures the circuit opens and attempts are skipped until the
// reset timeout elapses, at which point a single half-open probe decides
// whether the circuit closes again.
type Breaker struct {
	store            Store
	failureThreshold int
	resetTimeout     time.Duration
	logger           *slog.Logger
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithStore sets the circuit state store. Defaults to an in-process
// MemoryStore; use a RedisStore to share circuits across processes.
func WithStore(s Store) Option {
	return func(b *Breaker) {
		if s != nil {
			b.store = s
		}
	}
}

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithResetTimeout sets the cool-down before a half-open probe is allowed.
func WithResetTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.resetTimeout = d
		}
	}
}

// WithLogger sets the logger for store failures and state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(b *Breaker) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Breaker with an in-memory store and default thresholds.
func New(opts ...Option) *Breaker {
	b := &Breaker{
		store:            NewMemoryStore(),
		failureThreshold: defaultFailureThreshold,
		resetTimeout:     defaultResetTimeout,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsOpen reports whether attempts against the backend are currently blocked.
// It triggers the lazy open-to-half-open transition. A store error fails
// open: blocking all uploads because the shared store is down would defeat
// the fallback this breaker exists to protect.
func (b *Breaker) IsOpen(ctx context.Context, backend string) bool {
	allowed, err := b.store.Check(ctx, backend, b.resetTimeout)
	if err != nil {
		b.logger.WarnContext(ctx, "circuit store check failed",
			slog.String("backend", backend), slog.Any("error", err))
		return false
	}
	return !allowed
}

// RecordSuccess closes the circuit and resets the failure count.
func (b *Breaker) RecordSuccess(ctx context.Context, backend string) {
	if err := b.store.RecordSuccess(ctx, backend); err != nil {
		b.logger.WarnContext(ctx, "circuit store success record failed",
			slog.String("backend", backend), slog.Any("error", err))
	}
}

// RecordFailure registers one failed invocation against the backend.
func (b *Breaker) RecordFailure(ctx context.Context, backend string) {
	c, err := b.store.RecordFailure(ctx, backend, b.failureThreshold)
	if err != nil {
		b.logger.WarnContext(ctx, "circuit store failure record failed",
			slog.String("backend", backend), slog.Any("error", err))
		return
	}
	if c.State == StateOpen {
		b.logger.InfoContext(ctx, "circuit opened",
			slog.String("backend", backend), slog.Int("failures", c.FailureCount))
	}
}

// State returns a snapshot of the backend's circuit for observability.
func (b *Breaker) State(ctx context.Context, backend string) (Circuit, error) {
	return b.store.Snapshot(ctx, backend)
}
