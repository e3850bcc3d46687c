package jwt

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clinicore/clinicauth/identity"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T, clock *testClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:    testSecret,
		Issuer:    "clinicore",
		Audience:  "clinicore-api",
		AccessTTL: time.Hour,
		Leeway:    30 * time.Second,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func testUser() identity.User {
	return identity.User{
		ID:        "u-1001",
		FirstName: "Mario",
		LastName:  "Rossi",
		Email:     "mario.rossi@example.com",
		Role:      identity.RoleDoctor,
		ClinicID:  "clinic-42",
		IsActive:  true,
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short"), AccessTTL: time.Hour}); err == nil {
		t.Fatal("accepted a short secret")
	}
	if _, err := NewManager(Config{Secret: testSecret}); err == nil {
		t.Fatal("accepted a zero access TTL")
	}
	if _, err := NewManager(Config{Secret: testSecret, AccessTTL: time.Hour, Leeway: 3 * time.Minute}); err == nil {
		t.Fatal("accepted a leeway above two minutes")
	}
}

func TestSignAndParseRoundTrip(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := newTestManager(t, clock)

	claims := Compose(testUser(), "jti-1", clock.Now())
	token, expiresAt, err := m.Sign(claims)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if want := clock.Now().Add(time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
	}

	parsed, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.UserID() != "u-1001" {
		t.Fatalf("sub = %q, want u-1001", parsed.UserID())
	}
	if parsed.TokenID() != "jti-1" {
		t.Fatalf("jti = %q, want jti-1", parsed.TokenID())
	}
	if parsed.Email != "mario.rossi@example.com" {
		t.Fatalf("email = %q", parsed.Email)
	}
	if parsed.FullName != "Mario Rossi" {
		t.Fatalf("name = %q, want Mario Rossi", parsed.FullName)
	}
	if parsed.Role != "Doctor" {
		t.Fatalf("role = %q, want Doctor", parsed.Role)
	}
	if parsed.ClinicID != "clinic-42" {
		t.Fatalf("cid = %q, want clinic-42", parsed.ClinicID)
	}
	if parsed.Blocked {
		t.Fatal("blocked claim set for an unblocked user")
	}
	if parsed.Issuer != "clinicore" {
		t.Fatalf("iss = %q", parsed.Issuer)
	}
	if !parsed.ExpiryTime().Equal(expiresAt) {
		t.Fatalf("exp claim %v != returned expiry %v", parsed.ExpiryTime(), expiresAt)
	}
}

func TestBlockedFlagCarriedAsClaim(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := newTestManager(t, clock)

	u := testUser()
	u.IsBlocked = true
	u.BlockReason = "billing dispute"

	token, _, err := m.Sign(Compose(u, "jti-2", clock.Now()))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	parsed, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !parsed.Blocked {
		t.Fatal("blocked user issued a token without the blocked claim")
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := newTestManager(t, clock)

	other, err := NewManager(Config{
		Secret:    []byte("ffffffffffffffffffffffffffffffff"),
		Issuer:    "clinicore",
		Audience:  "clinicore-api",
		AccessTTL: time.Hour,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, _, err := other.Sign(Compose(testUser(), "jti-3", clock.Now()))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := m.Parse(token); !errors.Is(err, ErrSignature) {
		t.Fatalf("Parse = %v, want ErrSignature", err)
	}

	// Signature validity and claim structure are independent: the
	// forged token still decodes.
	claims, err := m.DecodeUnverified(token)
	if err != nil {
		t.Fatalf("DecodeUnverified: %v", err)
	}
	if claims.UserID() != "u-1001" {
		t.Fatalf("unverified sub = %q", claims.UserID())
	}
}

func TestParseExpiry(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := newTestManager(t, clock)

	token, _, err := m.Sign(Compose(testUser(), "jti-4", clock.Now()))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// Inside leeway past expiry the token still parses.
	clock.Advance(time.Hour + 10*time.Second)
	if _, err := m.Parse(token); err != nil {
		t.Fatalf("Parse within leeway: %v", err)
	}
	expired, err := m.IsExpired(token)
	if err != nil {
		t.Fatalf("IsExpired: %v", err)
	}
	if expired {
		t.Fatal("IsExpired true within leeway")
	}

	// Beyond leeway it is expired, yet the expiry is a temporal fact,
	// not a structural one.
	clock.Advance(time.Minute)
	if _, err := m.Parse(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("Parse past leeway = %v, want ErrExpired", err)
	}
	expired, err = m.IsExpired(token)
	if err != nil {
		t.Fatalf("IsExpired: %v", err)
	}
	if !expired {
		t.Fatal("IsExpired false past leeway")
	}
	if _, err := m.DecodeUnverified(token); err != nil {
		t.Fatalf("DecodeUnverified on expired token: %v", err)
	}
}

func TestParseNotYetValid(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := newTestManager(t, clock)

	future := Compose(testUser(), "jti-5", clock.Now().Add(10*time.Minute))
	token, _, err := m.Sign(future)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := m.Parse(token); !errors.Is(err, ErrNotYetValid) {
		t.Fatalf("Parse = %v, want ErrNotYetValid", err)
	}

	clock.Advance(11 * time.Minute)
	if _, err := m.Parse(token); err != nil {
		t.Fatalf("Parse after nbf: %v", err)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := newTestManager(t, clock)

	for _, token := range []string{
		"",
		"garbage",
		"a.b",
		"!!.!!.!!",
		strings.Repeat(".", 2),
	} {
		if _, err := m.Parse(token); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q) = %v, want ErrMalformed", token, err)
		}
	}
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := newTestManager(t, clock)

	foreign, err := NewManager(Config{
		Secret:    testSecret,
		Issuer:    "someone-else",
		Audience:  "clinicore-api",
		AccessTTL: time.Hour,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, _, err := foreign.Sign(Compose(testUser(), "jti-6", clock.Now()))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrIssuer) {
		t.Fatalf("Parse = %v, want ErrIssuer", err)
	}
}

func TestUniqueTokenIDsSameInstant(t *testing.T) {
	clock := newTestClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := newTestManager(t, clock)

	a, _, err := m.Sign(Compose(testUser(), "jti-a", clock.Now()))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	b, _, err := m.Sign(Compose(testUser(), "jti-b", clock.Now()))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if a == b {
		t.Fatal("distinct jti values produced identical tokens")
	}
}
