package breaker

import (
	"context"
	"time"
)

// State identifies the lifecycle stage of a circuit.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Circuit is a snapshot of one backend's circuit state.
type Circuit struct {
	State          State
	FailureCount   int
	LastFailureAt  time.Time
	HalfOpenProbes int
}

// Store persists per-backend circuit state. Implementations must apply each
// operation atomically per backend so concurrent writers cannot lose failure
// counts, and must not serialize unrelated backends behind one lock.
type Store interface {
	// Check runs the lazy open-to-half-open transition (once resetTimeout has
	// elapsed since the last failure) and reports whether a new attempt
	// against the backend is allowed. In half-open state only a single probe
	// is allowed until the probe's outcome is recorded.
	Check(ctx context.Context, backend string, resetTimeout time.Duration) (allowed bool, err error)

	// RecordFailure registers a failed attempt: it increments the failure
	// count, stamps the failure time, opens the circuit when the count
	// reaches threshold, and reopens a half-open circuit unconditionally.
	RecordFailure(ctx context.Context, backend string, threshold int) (Circuit, error)

	// RecordSuccess resets the circuit to closed with a zero failure count.
	RecordSuccess(ctx context.Context, backend string) error

	// Snapshot returns the current state without mutating it.
	Snapshot(ctx context.Context, backend string) (Circuit, error)
}
