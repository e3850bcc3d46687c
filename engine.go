package clinicauth

import (
	"context"
	"time"

	"github.com/clinicore/clinicauth/audit"
	"github.com/clinicore/clinicauth/identity"
	"github.com/clinicore/clinicauth/jwt"
	"github.com/clinicore/clinicauth/session"
)

// UserProvider supplies user records to the engine. Refresh re-reads
// the user on every rotation so claim data (name, role, blocked flag)
// is never staler than one access-token lifetime.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID string) (identity.User, error)
}

// TokenPair is the result of Issue and Refresh: a signed access token
// plus the opaque refresh token that replaces the consumed one.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the access token's expiry instant.
	ExpiresAt time.Time
}

// SessionInfo is the caller-facing projection of a stored session.
// Handle hashes never leave the store layer.
type SessionInfo struct {
	ID              string
	UserID          string
	ClinicID        string
	Role            identity.Role
	Device          session.Device
	Network         session.Network
	Suspicious      bool
	SuspicionReason string
	RequestCount    uint64
	CreatedAt       time.Time
	LastUsedAt      time.Time
	ExpiresAt       time.Time
}

// Engine is the authentication engine: access-token issuance and
// verification, refresh rotation with reuse detection, and per-device
// session tracking. Construct one with [NewBuilder]; all methods are
// safe for concurrent use.
type Engine struct {
	config  Config
	tokens  *jwt.Manager
	store   *session.Store
	users   UserProvider
	now     func() time.Time
	metrics *Metrics
	audit   *audit.Dispatcher
}

func (e *Engine) ready() error {
	if e == nil || e.tokens == nil || e.store == nil {
		return ErrEngineNotReady
	}
	return nil
}

// Close drains the audit dispatcher. It does not close the Redis
// client; the caller owns that connection.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
// All zeros when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Ping reports session-store availability and round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.store.Ping(ctx)
}

func sessionInfo(s *session.Session) SessionInfo {
	return SessionInfo{
		ID:              s.ID,
		UserID:          s.UserID,
		ClinicID:        s.ClinicID,
		Role:            identity.Role(s.Role),
		Device:          s.Device,
		Network:         s.Network,
		Suspicious:      s.Suspicious,
		SuspicionReason: s.SuspicionReason,
		RequestCount:    s.RequestCount,
		CreatedAt:       time.Unix(s.CreatedAt, 0).UTC(),
		LastUsedAt:      time.Unix(s.LastUsedAt, 0).UTC(),
		ExpiresAt:       time.Unix(s.ExpiresAt, 0).UTC(),
	}
}
