package clinicauth

import (
	"errors"

	"github.com/clinicore/clinicauth/jwt"
	"github.com/clinicore/clinicauth/session"
)

// Root error taxonomy. Token and store sentinels are aliased from their
// owning packages so errors.Is matches regardless of which layer a
// caller imported.
//
// These distinctions are for the embedding application only. Anything
// that reaches an end user should collapse to a uniform unauthenticated
// outcome (see middleware.Guard): echoing "expired" vs "signature
// invalid" outward hands an attacker a forgery oracle.
var (
	// ErrEngineNotReady is returned when an Engine is used before
	// Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrUserInactive is returned by Issue for deactivated accounts.
	// Blocked is different: blocked users still receive tokens, with
	// the blocked flag carried as a claim for the authorization layer.
	ErrUserInactive = errors.New("user inactive")

	// ErrMalformedToken reports structurally invalid token input.
	ErrMalformedToken = jwt.ErrMalformed
	// ErrSignatureInvalid reports a token that fails HMAC verification.
	ErrSignatureInvalid = jwt.ErrSignature
	// ErrTokenExpired reports a token past its expiry.
	ErrTokenExpired = jwt.ErrExpired
	// ErrTokenNotYetValid reports a token used before its nbf.
	ErrTokenNotYetValid = jwt.ErrNotYetValid

	// ErrSessionNotFound reports an unknown session id.
	ErrSessionNotFound = session.ErrNotFound
	// ErrSessionRevoked reports an operation against a revoked session.
	ErrSessionRevoked = session.ErrRevoked
	// ErrSessionExpired reports an operation against an expired session.
	ErrSessionExpired = session.ErrExpired
	// ErrStoreUnavailable wraps session-store transport failures.
	ErrStoreUnavailable = session.ErrUnavailable

	// ErrRefreshInvalid reports an opaque refresh token that is
	// structurally broken or matches no known handle.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshReuse reports replay of an already-consumed refresh
	// token. The engine treats this as theft evidence and revokes all
	// of the affected user's sessions before returning it.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
)
