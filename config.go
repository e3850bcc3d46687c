package clinicauth

import (
	"errors"
	"time"
)

// Config is the engine configuration tree. Configure once, hand to
// [Builder.WithConfig], and treat as immutable afterwards.
type Config struct {
	JWT     JWTConfig
	Session SessionConfig
	Risk    RiskConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

// JWTConfig controls access-token signing and verification.
type JWTConfig struct {
	// Secret is the HMAC-SHA256 key. Minimum 32 bytes.
	Secret []byte
	// Issuer is embedded in every token and checked on verification.
	Issuer string
	// Audience is embedded in every token and checked on verification.
	Audience string
	// AccessTTL is the access-token lifetime. Default 60 minutes.
	AccessTTL time.Duration
	// Leeway tolerates clock skew on exp/nbf across verifiers.
	// Default 30 seconds, capped at 2 minutes.
	Leeway time.Duration
}

// SessionConfig controls the Redis session store.
type SessionConfig struct {
	// RedisPrefix namespaces every key the store touches.
	RedisPrefix string
	// RefreshTTL is the refresh-token and session lifetime, renewed on
	// every rotation. Default 7 days.
	RefreshTTL time.Duration
	// MaxIDCollisionRetries bounds retries when a freshly generated
	// session id collides with a stored one. A collision signals an
	// RNG defect, not a normal condition; it is retried, never fatal
	// on the first hit.
	MaxIDCollisionRetries int
}

// RiskConfig controls advisory new-device / new-location flagging.
// Evaluation is on by default; the zero value keeps it on even when a
// caller builds a Config from scratch and only fills the JWT section.
type RiskConfig struct {
	Disabled bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process atomic counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL: 60 * time.Minute,
			Leeway:    30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix:           "ca",
			RefreshTTL:            7 * 24 * time.Hour,
			MaxIDCollisionRetries: 3,
		},
		Risk: RiskConfig{},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration for internal consistency. Build
// refuses to construct an engine from an invalid Config.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	if c.Session.RefreshTTL <= 0 {
		return errors.New("Session RefreshTTL must be > 0")
	}
	if c.Session.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("Session RefreshTTL must exceed JWT AccessTTL")
	}
	if c.Session.MaxIDCollisionRetries < 1 {
		return errors.New("Session MaxIDCollisionRetries must be >= 1")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
