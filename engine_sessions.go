package clinicauth

import (
	"context"
	"errors"
	"sort"

	"github.com/clinicore/clinicauth/internal"
	"github.com/clinicore/clinicauth/session"
)

// Sessions lists the user's live sessions, most recently used first.
// Deactivating a user does not delete records; revoked and expired
// sessions are simply filtered out.
func (e *Engine) Sessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	sessions, err := e.store.ActiveSessions(ctx, userID, e.now())
	if err != nil {
		return nil, err
	}

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, sessionInfo(s))
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastUsedAt.After(infos[j].LastUsedAt)
	})
	return infos, nil
}

// Touch records request activity against a session: bumps its last-used
// instant and request counter. Returns [ErrSessionNotFound],
// [ErrSessionExpired], or [ErrSessionRevoked] when the session cannot
// accept activity; pairing Touch with Validate makes revocation bite
// before the access token expires.
func (e *Engine) Touch(ctx context.Context, sessionID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	return e.store.Touch(ctx, sessionID, e.now())
}

// Revoke terminates a single session. The record survives until its
// natural expiry so later operations report revoked, not missing.
func (e *Engine) Revoke(ctx context.Context, sessionID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.store.Revoke(ctx, sessionID); err != nil {
		return err
	}
	e.metrics.inc(&e.metrics.sessionsRevoked)
	e.emitSuccess(ctx, EventRevoke, "", "", sessionID, "")
	return nil
}

// RevokeAll terminates every session of a user. Used for password
// change, account compromise, and administrative lockout.
func (e *Engine) RevokeAll(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	revoked, err := e.store.RevokeAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	e.metrics.add(&e.metrics.sessionsRevoked, uint64(revoked))
	e.emitSuccess(ctx, EventRevokeAll, userID, "", "", "")
	return nil
}

// Logout revokes the session a refresh token belongs to. A structurally
// invalid token reports [ErrRefreshInvalid]; logging out an already
// revoked or missing session is not an error, logout is idempotent.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if err := e.ready(); err != nil {
		return err
	}

	sessionID, _, err := internal.DecodeRefreshToken(refreshToken)
	if err != nil {
		return ErrRefreshInvalid
	}

	if err := e.store.Revoke(ctx, sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return err
	}

	e.metrics.inc(&e.metrics.sessionsRevoked)
	e.emitSuccess(ctx, EventLogout, "", "", sessionID, "")
	return nil
}

// Sweep reconciles the session indexes and deletes records whose
// lifetime has passed. Returns the number of sessions removed. Run it
// from a maintenance timer, never on the request path.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}

	removed, err := e.store.Sweep(ctx, e.now())
	if err != nil {
		e.metrics.inc(&e.metrics.storeErrors)
		return removed, err
	}
	if removed > 0 {
		e.emitSuccess(ctx, EventSweep, "", "", "", "")
	}
	return removed, nil
}
