package clinicauth

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicore/clinicauth/audit"
	"github.com/clinicore/clinicauth/jwt"
	"github.com/clinicore/clinicauth/session"
)

// Builder assembles an Engine. Usage:
//
//	engine, err := clinicauth.NewBuilder().
//		WithConfig(cfg).
//		WithRedis(client).
//		WithUserProvider(users).
//		Build()
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	users     UserProvider
	now       func() time.Time
	auditSink audit.Sink
	err       error
}

// NewBuilder returns a Builder preloaded with defaults.
func NewBuilder() *Builder {
	return &Builder{
		config: defaultConfig(),
		now:    time.Now,
	}
}

// WithConfig replaces the configuration wholesale. Zero-value fields
// are filled with defaults at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the session store. Required.
// The engine never closes this client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	if client == nil {
		b.err = errors.New("redis client must not be nil")
		return b
	}
	b.redis = client
	return b
}

// WithUserProvider sets the user lookup used by Refresh. Required.
func (b *Builder) WithUserProvider(users UserProvider) *Builder {
	if users == nil {
		b.err = errors.New("user provider must not be nil")
		return b
	}
	b.users = users
	return b
}

// WithClock overrides the engine's time source. Every operation reads
// the clock exactly once and uses that instant for all its comparisons.
// Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now == nil {
		b.err = errors.New("clock must not be nil")
		return b
	}
	b.now = now
	return b
}

// WithAuditSink sets the destination for audit events and enables the
// audit dispatcher.
func (b *Builder) WithAuditSink(sink audit.Sink) *Builder {
	if sink == nil {
		b.err = errors.New("audit sink must not be nil")
		return b
	}
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled turns the in-process counters on.
func (b *Builder) WithMetricsEnabled() *Builder {
	b.config.Metrics.Enabled = true
	return b
}

func (b *Builder) applyDefaults() {
	defaults := defaultConfig()
	if b.config.JWT.AccessTTL == 0 {
		b.config.JWT.AccessTTL = defaults.JWT.AccessTTL
	}
	if b.config.JWT.Leeway == 0 {
		b.config.JWT.Leeway = defaults.JWT.Leeway
	}
	if b.config.Session.RedisPrefix == "" {
		b.config.Session.RedisPrefix = defaults.Session.RedisPrefix
	}
	if b.config.Session.RefreshTTL == 0 {
		b.config.Session.RefreshTTL = defaults.Session.RefreshTTL
	}
	if b.config.Session.MaxIDCollisionRetries == 0 {
		b.config.Session.MaxIDCollisionRetries = defaults.Session.MaxIDCollisionRetries
	}
	if b.config.Audit.BufferSize == 0 {
		b.config.Audit.BufferSize = defaults.Audit.BufferSize
	}
}

// Build validates the configuration and assembles the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.users == nil {
		return nil, errors.New("user provider is required")
	}

	b.applyDefaults()
	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret:    cfg.JWT.Secret,
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		AccessTTL: cfg.JWT.AccessTTL,
		Leeway:    cfg.JWT.Leeway,
		Now:       b.now,
	})
	if err != nil {
		return nil, err
	}

	var dispatcher *audit.Dispatcher
	if cfg.Audit.Enabled {
		dispatcher = audit.NewDispatcher(b.auditSink, cfg.Audit.BufferSize, cfg.Audit.DropIfFull)
	}

	return &Engine{
		config:  cfg,
		tokens:  tokens,
		store:   session.NewStore(b.redis, cfg.Session.RedisPrefix),
		users:   b.users,
		now:     b.now,
		metrics: newMetrics(cfg.Metrics.Enabled),
		audit:   dispatcher,
	}, nil
}
