package credentials

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/blobkit/pkg/config"
)

const defaultTTL = 5 * time.Minute

// CredentialSet is a read-only snapshot of the primary backend's
// configuration. All fields except BucketName and PublicBaseURL may be empty
// when the backend is not configured. A set is refreshed wholesale on cache
// expiry, never field by field.
type CredentialSet struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// IsConfigured reports whether the set carries enough material to sign
// requests against the primary backend.
func (c CredentialSet) IsConfigured() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// EnvConfig maps process environment variables onto a CredentialSet for
// local development mode.
type EnvConfig struct {
	AccountID       string `env:"BLOBKIT_ACCOUNT_ID"`
	AccessKeyID     string `env:"BLOBKIT_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"BLOBKIT_SECRET_ACCESS_KEY"`
	BucketName      string `env:"BLOBKIT_BUCKET" envDefault:"uploads"`
	PublicBaseURL   string `env:"BLOBKIT_PUBLIC_BASE_URL"`
}

// Names of the secrets fetched from the remote secret store. They mirror the
// local-mode environment variables so deployments can share one vocabulary.
const (
	SecretAccountID       = "BLOBKIT_ACCOUNT_ID"
	SecretAccessKeyID     = "BLOBKIT_ACCESS_KEY_ID"
	SecretAccessKeySecret = "BLOBKIT_SECRET_ACCESS_KEY"
	SecretBucketName      = "BLOBKIT_BUCKET"
	SecretPublicBaseURL   = "BLOBKIT_PUBLIC_BASE_URL"
)

// SecretFetcher fetches named secrets from a remote secret store.
type SecretFetcher interface {
	Fetch(ctx context.Context, names ...string) (map[string]string, error)
}

// Provider resolves backend credentials with a time-boxed in-memory cache.
// Safe for concurrent use; a Resolve in flight when Invalidate fires may
// still return the stale value once (eventual, not strict, consistency).
type Provider struct {
	mu        sync.RWMutex
	cached    CredentialSet
	expiresAt time.Time

	ttl    time.Duration
	static bool
	local  bool
	store  SecretFetcher
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithTTL sets the cache window. Defaults to 5 minutes.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock injects the clock used for cache expiry. Test hook.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

func newProvider(opts ...Option) *Provider {
	p := &Provider{
		ttl:    defaultTTL,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewLocal creates a Provider that reads credentials from the process
// environment (local development mode).
func NewLocal(opts ...Option) *Provider {
	p := newProvider(opts...)
	p.local = true
	return p
}

// NewRemote creates a Provider backed by a remote secret store.
func NewRemote(store SecretFetcher, opts ...Option) (*Provider, error) {
	if store == nil {
		return nil, ErrNilSecretStore
	}
	p := newProvider(opts...)
	p.store = store
	return p, nil
}

// NewStatic creates a Provider that always returns the given set. Intended
// for deployments with ahead-of-time injected credentials, and for tests.
func NewStatic(set CredentialSet) *Provider {
	p := newProvider()
	p.static = true
	p.cached = set
	return p
}

// Resolve returns the current credential set. Within the TTL the cached
// snapshot is returned without any lookup. On fetch failure it returns a
// zero CredentialSet rather than an error, so callers observe "unconfigured"
// instead of crashing.
func (p *Provider) Resolve(ctx context.Context) CredentialSet {
	if p.static {
		return p.cached
	}

	p.mu.RLock()
	if p.now().Before(p.expiresAt) {
		set := p.cached
		p.mu.RUnlock()
		return set
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.now().Before(p.expiresAt) {
		return p.cached
	}

	set := p.load(ctx)
	if set.IsConfigured() {
		p.cached = set
		p.expiresAt = p.now().Add(p.ttl)
	}
	return set
}

// Invalidate clears the cache immediately, forcing the next Resolve to
// refetch. Safe to call concurrently with Resolve.
func (p *Provider) Invalidate() {
	if p.static {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = CredentialSet{}
	p.expiresAt = time.Time{}
}

func (p *Provider) load(ctx context.Context) CredentialSet {
	if p.local {
		var envCfg EnvConfig
		if err := config.Load(&envCfg); err != nil {
			p.logger.WarnContext(ctx, "failed to read storage credentials from environment",
				slog.Any("error", err))
			return CredentialSet{}
		}
		return CredentialSet{
			AccountID:       envCfg.AccountID,
			AccessKeyID:     envCfg.AccessKeyID,
			SecretAccessKey: envCfg.SecretAccessKey,
			BucketName:      envCfg.BucketName,
			PublicBaseURL:   envCfg.PublicBaseURL,
		}
	}

	secrets, err := p.store.Fetch(ctx,
		SecretAccountID,
		SecretAccessKeyID,
		SecretAccessKeySecret,
		SecretBucketName,
		SecretPublicBaseURL,
	)
	if err != nil {
		p.logger.WarnContext(ctx, "secret store fetch failed, treating backend as unconfigured",
			slog.Any("error", err))
		return CredentialSet{}
	}

	return CredentialSet{
		AccountID:       secrets[SecretAccountID],
		AccessKeyID:     secrets[SecretAccessKeyID],
		SecretAccessKey: secrets[SecretAccessKeySecret],
		BucketName:      secrets[SecretBucketName],
		PublicBaseURL:   secrets[SecretPublicBaseURL],
	}
}
