package clinicauth

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/clinicauth/audit"
	"github.com/clinicore/clinicauth/identity"
)

func TestAuditTrailCoversLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sink := audit.NewChannelSink(64)
	users := &fakeUsers{byID: map[string]identity.User{}}
	users.put(doctorUser())

	engine, err := NewBuilder().
		WithConfig(Config{
			JWT: JWTConfig{Secret: []byte("0123456789abcdef0123456789abcdef")},
		}).
		WithRedis(client).
		WithUserProvider(users).
		WithClock(newTestClock().Now).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx := context.Background()
	pair, _, err := engine.Issue(ctx, doctorUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	next, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshReuse) {
		t.Fatalf("replay = %v", err)
	}
	if err := engine.Logout(ctx, next.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	engine.Close()

	seen := map[string]int{}
	for {
		select {
		case ev := <-sink.Events():
			seen[ev.EventType]++
			if ev.Timestamp.IsZero() {
				t.Fatalf("event %q has no timestamp", ev.EventType)
			}
			continue
		default:
		}
		break
	}

	for _, want := range []string{EventIssue, EventRefresh, EventRefreshReuse, EventLogout} {
		if seen[want] == 0 {
			t.Fatalf("no %q event emitted; saw %v", want, seen)
		}
	}
	if engine.AuditDropped() != 0 {
		t.Fatalf("dropped = %d, want 0", engine.AuditDropped())
	}
}
