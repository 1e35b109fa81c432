package retry

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"
)

// Kind labels the failure class of a transfer attempt.
type Kind string

const (
	KindNetwork Kind = "network"
	KindServer  Kind = "server"
	KindClient  Kind = "client"
	KindCORS    Kind = "cors"
	KindUnknown Kind = "unknown"
)

// ErrCrossOrigin marks a failure caused by the caller's browser security
// context. Retrying cannot help: the same-origin policy will reject the next
// attempt identically.
var ErrCrossOrigin = errors.New("request blocked by cross-origin policy")

// Classification is the retry decision for a single failed attempt.
type Classification struct {
	Retriable bool
	Kind      Kind
}

// Classify maps a failed Outcome to a retry decision. Priority order:
// cross-origin failures are terminal regardless of status, transport errors
// (including timeouts) are retriable, 5xx plus 408/429 are retriable, any
// other 4xx is terminal, everything else falls into the terminal unknown
// bucket. A successful Outcome classifies as non-retriable unknown; callers
// are expected to check Outcome.OK first.
func Classify(o Outcome) Classification {
	switch {
	case errors.Is(o.Err, ErrCrossOrigin):
		return Classification{Retriable: false, Kind: KindCORS}
	case o.Err != nil:
		return Classification{Retriable: true, Kind: KindNetwork}
	case o.Status >= 500:
		return Classification{Retriable: true, Kind: KindServer}
	case o.Status == http.StatusRequestTimeout || o.Status == http.StatusTooManyRequests:
		return Classification{Retriable: true, Kind: KindServer}
	case o.Status >= 400:
		return Classification{Retriable: false, Kind: KindClient}
	default:
		return Classification{Retriable: false, Kind: KindUnknown}
	}
}

// Config bounds the retry loop.
type Config struct {
	// MaxRetries is the number of retries after the first attempt,
	// so MaxRetries=2 means 3 attempts total.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultConfig returns the standard retry bounds.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// Normalize fills zero delay fields with defaults. MaxRetries is left as-is:
// zero is a valid setting meaning a single attempt.
func (c Config) Normalize() Config {
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
	return c
}

// Delay computes the backoff before retry number attempt (0-based):
// min(MaxDelay, BaseDelay*2^attempt) plus random jitter up to BaseDelay.
func Delay(attempt int, cfg Config) time.Duration {
	cfg = cfg.Normalize()

	d := cfg.BaseDelay << uint(attempt)
	if d <= 0 || d > cfg.MaxDelay { // shift overflow counts as exceeding the cap
		d = cfg.MaxDelay
	}
	return d + time.Duration(rand.Int63n(int64(cfg.BaseDelay)))
}

// Sleep waits for d or until ctx is done, whichever comes first, returning
// the context error when the wait was cut short. This is the only sleep
// primitive the orchestrator uses, so a caller deadline bounds backoff waits
// the same way it bounds in-flight transfers.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
