package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicore/clinicauth/identity"
)

// AccessClaims is the claim set embedded in every access token.
//
// The JSON field names are the token wire contract. Downstream services
// compare role and clinic claims as raw strings, so neither the names
// nor the role serialization may change between releases.
type AccessClaims struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"name"`
	ClinicID string `json:"cid"`
	Blocked  bool   `json:"blk"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *AccessClaims) UserID() string {
	return c.Subject
}

// TokenID returns the jti claim.
func (c *AccessClaims) TokenID() string {
	return c.ID
}

// ExpiryTime returns the exp claim, or the zero time when absent.
func (c *AccessClaims) ExpiryTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Compose builds the canonical claim set for a verified user identity.
//
// Compose is a pure function: it performs no I/O, reads no clock, and
// always emits the same claims for the same inputs. The issuer,
// audience, and expiry are added later by [Manager.Sign]; Compose owns
// everything derived from the identity itself plus jti/iat/nbf.
//
// Blocked status is carried as a claim rather than refused here: the
// authorization layer decides what a blocked user may do, the token
// merely transports the fact.
func Compose(u identity.User, tokenID string, issuedAt time.Time) AccessClaims {
	return AccessClaims{
		Email:    u.Email,
		Role:     u.Role.String(),
		FullName: u.FullName(),
		ClinicID: u.ClinicID,
		Blocked:  u.IsBlocked,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
}
