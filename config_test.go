package clinicauth

import (
	"testing"
	"time"
)

func validConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestConfigValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	short := validConfig()
	short.JWT.Secret = []byte("short")
	if err := short.Validate(); err == nil {
		t.Fatal("short secret accepted")
	}

	leeway := validConfig()
	leeway.JWT.Leeway = 5 * time.Minute
	if err := leeway.Validate(); err == nil {
		t.Fatal("oversized leeway accepted")
	}

	inverted := validConfig()
	inverted.Session.RefreshTTL = 30 * time.Minute
	if err := inverted.Validate(); err == nil {
		t.Fatal("refresh TTL below access TTL accepted")
	}

	retries := validConfig()
	retries.Session.MaxIDCollisionRetries = 0
	if err := retries.Validate(); err == nil {
		t.Fatal("zero collision retries accepted")
	}
}

func TestCloneConfigDetachesSecret(t *testing.T) {
	cfg := validConfig()
	cloned := cloneConfig(cfg)

	cfg.JWT.Secret[0] = 'X'
	if cloned.JWT.Secret[0] == 'X' {
		t.Fatal("clone shares the secret backing array")
	}
}
