package clinicauth

import (
	"github.com/clinicore/clinicauth/jwt"
)

// Validate verifies an access token's signature and temporal claims
// under this engine's configuration and returns its claims. Validation
// is a local CPU operation; it never touches the session store, so a
// revoked session's access token remains valid until it expires.
// Callers needing revocation to bite immediately pair Validate with
// [Engine.Touch].
func (e *Engine) Validate(tokenStr string) (*jwt.AccessClaims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	claims, err := e.tokens.Parse(tokenStr)
	if err != nil {
		e.metrics.inc(&e.metrics.tokensRejected)
		return nil, err
	}

	e.metrics.inc(&e.metrics.tokensValidated)
	return claims, nil
}

// IsExpired reports temporal expiry independent of signature validity,
// judged by this engine's clock and leeway.
func (e *Engine) IsExpired(tokenStr string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.tokens.IsExpired(tokenStr)
}

// Claims decodes a token's claim set without verification. The result
// is untrusted and suitable only for logging and audit trails.
func (e *Engine) Claims(tokenStr string) (*jwt.AccessClaims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.tokens.DecodeUnverified(tokenStr)
}
