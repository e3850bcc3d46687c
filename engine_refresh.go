package clinicauth

import (
	"context"
	"errors"

	"github.com/clinicore/clinicauth/internal"
	"github.com/clinicore/clinicauth/jwt"
	"github.com/clinicore/clinicauth/session"
)

// Refresh rotates a refresh token: the presented token is consumed and
// a new pair is minted against the same session. Of any number of
// concurrent calls presenting the same token, exactly one succeeds; the
// rest fail without side effects.
//
// Replay of an already-consumed token is treated as theft evidence:
// the engine revokes every session of the affected user and returns
// [ErrRefreshReuse]. A token matching neither the current nor the
// consumed handle returns [ErrRefreshInvalid] without a cascade.
//
// The user record is re-read on every rotation so the new access
// token's claims are never staler than one access-token lifetime. A
// user deactivated since login gets the session revoked and
// [ErrUserInactive].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	sessionID, secret, err := internal.DecodeRefreshToken(refreshToken)
	if err != nil {
		e.metrics.inc(&e.metrics.tokensRejected)
		return TokenPair{}, ErrRefreshInvalid
	}

	now := e.now()

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			e.metrics.inc(&e.metrics.tokensRejected)
			return TokenPair{}, ErrRefreshInvalid
		}
		return TokenPair{}, err
	}

	user, err := e.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	if !user.IsActive {
		if revokeErr := e.store.Revoke(ctx, sessionID); revokeErr != nil && !errors.Is(revokeErr, session.ErrNotFound) {
			return TokenPair{}, revokeErr
		}
		e.metrics.inc(&e.metrics.sessionsRevoked)
		e.emitFailure(ctx, EventRevoke, sess.UserID, sessionID, ErrUserInactive)
		return TokenPair{}, ErrUserInactive
	}

	nextSecret, err := internal.NewRefreshSecret()
	if err != nil {
		return TokenPair{}, err
	}

	rotated, err := e.store.RotateRefreshHash(
		ctx,
		sessionID,
		internal.HashRefreshSecret(secret),
		internal.HashRefreshSecret(nextSecret),
		now,
		e.config.Session.RefreshTTL,
	)
	if err != nil {
		return TokenPair{}, e.rotateFailure(ctx, sessionID, sess.UserID, err)
	}

	nextToken, err := internal.EncodeRefreshToken(sessionID, nextSecret)
	if err != nil {
		return TokenPair{}, err
	}

	tokenID, err := internal.NewTokenID()
	if err != nil {
		return TokenPair{}, err
	}
	accessToken, expiresAt, err := e.tokens.Sign(jwt.Compose(user, tokenID, now))
	if err != nil {
		return TokenPair{}, err
	}

	e.metrics.inc(&e.metrics.refreshRotations)
	e.emitSuccess(ctx, EventRefresh, rotated.UserID, rotated.ClinicID, sessionID, rotated.Network.IP)

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: nextToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// rotateFailure maps store rotation outcomes onto the public taxonomy
// and runs the reuse cascade. Reuse revokes every session of the user,
// not just the replayed one: a replayed token means an attacker holds
// material stolen from this user, and scoping the response to one
// session leaves their other sessions in the attacker's reach.
func (e *Engine) rotateFailure(ctx context.Context, sessionID, userID string, err error) error {
	switch {
	case errors.Is(err, session.ErrReuseDetected):
		e.metrics.inc(&e.metrics.refreshReuse)
		revoked, cascadeErr := e.store.RevokeAllForUser(ctx, userID)
		if cascadeErr != nil {
			return cascadeErr
		}
		e.metrics.add(&e.metrics.sessionsRevoked, uint64(revoked))
		e.emitFailure(ctx, EventRefreshReuse, userID, sessionID, ErrRefreshReuse)
		return ErrRefreshReuse

	case errors.Is(err, session.ErrHandleMismatch), errors.Is(err, session.ErrNotFound):
		e.metrics.inc(&e.metrics.tokensRejected)
		return ErrRefreshInvalid

	case errors.Is(err, session.ErrRevoked):
		return ErrSessionRevoked

	case errors.Is(err, session.ErrExpired):
		return ErrSessionExpired

	default:
		e.metrics.inc(&e.metrics.storeErrors)
		return err
	}
}
