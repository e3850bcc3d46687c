package clinicauth

import (
	"context"
	"fmt"

	"github.com/clinicore/clinicauth/identity"
	"github.com/clinicore/clinicauth/internal"
	"github.com/clinicore/clinicauth/jwt"
	"github.com/clinicore/clinicauth/session"
)

// Issue establishes a session for an already-authenticated user and
// returns the initial token pair. Credential verification is the
// caller's job; Issue trusts the identity it is given.
//
// Device and network attributes are read from the context (see
// [WithDevice] and [WithNetwork]); absent attributes are recorded
// empty. The session record hitting the store is the commit point: a
// storage failure means no tokens were handed out.
//
// Inactive users are refused with [ErrUserInactive]. Blocked users
// still receive tokens, with the blocked flag carried as a claim.
func (e *Engine) Issue(ctx context.Context, user identity.User) (TokenPair, SessionInfo, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, SessionInfo{}, err
	}
	if err := user.Validate(); err != nil {
		e.metrics.inc(&e.metrics.tokensRejected)
		e.emitFailure(ctx, EventIssueRejected, user.ID, "", err)
		return TokenPair{}, SessionInfo{}, err
	}
	if !user.IsActive {
		e.metrics.inc(&e.metrics.tokensRejected)
		e.emitFailure(ctx, EventIssueRejected, user.ID, "", ErrUserInactive)
		return TokenPair{}, SessionInfo{}, ErrUserInactive
	}

	now := e.now()
	device, _ := DeviceFromContext(ctx)
	network, _ := NetworkFromContext(ctx)

	suspicious := false
	reason := ""
	if !e.config.Risk.Disabled {
		prior, err := e.store.ActiveSessions(ctx, user.ID, now)
		if err != nil {
			return TokenPair{}, SessionInfo{}, err
		}
		suspicious, reason = session.EvaluateRisk(prior, device, network)
	}

	sessionID, err := e.freshSessionID(ctx)
	if err != nil {
		return TokenPair{}, SessionInfo{}, err
	}

	secret, err := internal.NewRefreshSecret()
	if err != nil {
		return TokenPair{}, SessionInfo{}, err
	}
	refreshToken, err := internal.EncodeRefreshToken(sessionID, secret)
	if err != nil {
		return TokenPair{}, SessionInfo{}, err
	}

	tokenID, err := internal.NewTokenID()
	if err != nil {
		return TokenPair{}, SessionInfo{}, err
	}
	accessToken, expiresAt, err := e.tokens.Sign(jwt.Compose(user, tokenID, now))
	if err != nil {
		return TokenPair{}, SessionInfo{}, err
	}

	sess := &session.Session{
		ID:              sessionID,
		UserID:          user.ID,
		ClinicID:        user.ClinicID,
		Role:            user.Role.String(),
		RefreshHash:     internal.HashRefreshSecret(secret),
		Device:          device,
		Network:         network,
		Suspicious:      suspicious,
		SuspicionReason: reason,
		CreatedAt:       now.Unix(),
		IssuedAt:        now.Unix(),
		LastUsedAt:      now.Unix(),
		ExpiresAt:       now.Add(e.config.Session.RefreshTTL).Unix(),
	}
	if err := e.store.Save(ctx, sess, e.config.Session.RefreshTTL); err != nil {
		return TokenPair{}, SessionInfo{}, err
	}

	e.metrics.inc(&e.metrics.tokensIssued)
	if suspicious {
		e.metrics.inc(&e.metrics.riskFlags)
	}
	e.emitSuccess(ctx, EventIssue, user.ID, user.ClinicID, sessionID, network.IP)

	pair := TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
	return pair, sessionInfo(sess), nil
}

// freshSessionID draws session ids until one is unused. A collision
// means the RNG misbehaved; it is retried a bounded number of times
// rather than overwriting a live session.
func (e *Engine) freshSessionID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < e.config.Session.MaxIDCollisionRetries; attempt++ {
		id, err := internal.NewSessionID()
		if err != nil {
			return "", err
		}
		taken, err := e.store.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("session id collision persisted after %d attempts", e.config.Session.MaxIDCollisionRetries)
}
