package session

import (
	"strings"
	"time"
)

// Device describes the client device a session was established from.
type Device struct {
	Type    string
	Name    string
	Browser string
	OS      string
}

// Fingerprint returns the canonical comparison form of the descriptor.
// Two descriptors with the same fingerprint count as the same device
// for risk evaluation.
func (d Device) Fingerprint() string {
	return strings.ToLower(strings.Join([]string{d.Type, d.Name, d.Browser, d.OS}, "|"))
}

// Network describes where a session was established from. Location is a
// coarse region label, not a precise position.
type Network struct {
	IP       string
	Location string
}

// Session is the server-side record binding a user to one device login.
// It is owned exclusively by [Store]; all mutation goes through Store
// operations. RefreshHash is the SHA-256 of the current unconsumed
// refresh secret; PrevRefreshHash retains the consumed predecessor for
// reuse detection and is purged with the session itself.
type Session struct {
	ID       string
	UserID   string
	ClinicID string
	Role     string

	RefreshHash     [32]byte
	PrevRefreshHash [32]byte

	Device  Device
	Network Network

	Suspicious      bool
	SuspicionReason string

	RequestCount uint64
	Revoked      bool

	CreatedAt  int64
	IssuedAt   int64
	LastUsedAt int64
	ExpiresAt  int64
}

// Expired reports whether the session's lifetime has passed at the
// given instant.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.Unix()
}
