package blobkit

import (
	"time"

	"github.com/dmitrymomot/blobkit/pkg/breaker"
	"github.com/dmitrymomot/blobkit/pkg/config"
	"github.com/dmitrymomot/blobkit/pkg/credentials"
	"github.com/dmitrymomot/blobkit/pkg/platform"
	"github.com/dmitrymomot/blobkit/pkg/retry"
	"github.com/dmitrymomot/blobkit/pkg/s3api"
)

// Config tunes the orchestrator. Zero values fall back to the documented
// defaults via the env tags.
type Config struct {
	MaxRetries       int           `env:"BLOBKIT_MAX_RETRIES" envDefault:"2"`
	BaseDelay        time.Duration `env:"BLOBKIT_BASE_DELAY" envDefault:"500ms"`
	MaxDelay         time.Duration `env:"BLOBKIT_MAX_DELAY" envDefault:"5s"`
	AttemptTimeout   time.Duration `env:"BLOBKIT_ATTEMPT_TIMEOUT" envDefault:"30s"`
	FailureThreshold int           `env:"BLOBKIT_FAILURE_THRESHOLD" envDefault:"3"`
	ResetTimeout     time.Duration `env:"BLOBKIT_RESET_TIMEOUT" envDefault:"30s"`
}

// NewFromEnv creates an Uploader configured from environment variables,
// then applies any explicit options on top.
func NewFromEnv(provider *credentials.Provider, primary *s3api.Client, secondary *platform.Client, opts ...Option) (*Uploader, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	base := []Option{
		WithRetryConfig(retry.Config{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.BaseDelay,
			MaxDelay:   cfg.MaxDelay,
		}),
		WithAttemptTimeout(cfg.AttemptTimeout),
		WithBreaker(breaker.New(
			breaker.WithFailureThreshold(cfg.FailureThreshold),
			breaker.WithResetTimeout(cfg.ResetTimeout),
		)),
	}

	return New(provider, primary, secondary, append(base, opts...)...), nil
}
