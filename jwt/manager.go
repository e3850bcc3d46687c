package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Classified verification outcomes. Signature and temporal validity are
// reported independently so callers can distinguish a forged token from
// a stale one.
var (
	// ErrMalformed reports structurally invalid input: empty string,
	// wrong segment count, undecodable base64, or non-JSON payload.
	ErrMalformed = errors.New("malformed token")
	// ErrSignature reports a valid structure whose signature does not
	// verify under the configured secret.
	ErrSignature = errors.New("token signature invalid")
	// ErrExpired reports a token past its exp claim.
	ErrExpired = errors.New("token expired")
	// ErrNotYetValid reports a token whose nbf claim is in the future.
	ErrNotYetValid = errors.New("token not yet valid")
	// ErrIssuer reports an iss claim that does not match the verifier.
	ErrIssuer = errors.New("token issuer mismatch")
	// ErrAudience reports an aud claim that does not match the verifier.
	ErrAudience = errors.New("token audience mismatch")
	// ErrInvalid reports any other verification failure.
	ErrInvalid = errors.New("invalid token")
)

const minSecretLen = 32

// Config holds the signing and verification parameters for a [Manager].
// Instances are validated once in [NewManager] and treated as immutable
// afterwards.
type Config struct {
	// Secret is the HMAC-SHA256 key. Minimum 32 bytes.
	Secret []byte
	// Issuer is embedded on signing and checked on verification.
	Issuer string
	// Audience is embedded on signing and checked on verification.
	Audience string
	// AccessTTL is the access-token lifetime applied at signing.
	AccessTTL time.Duration
	// Leeway is the clock-skew tolerance for exp/nbf comparisons
	// across distributed verifiers. Bounded to two minutes.
	Leeway time.Duration
	// Now supplies the clock. Defaults to time.Now. Every operation
	// reads it exactly once.
	Now func() time.Time
}

// Manager signs and verifies access tokens. The algorithm is fixed to
// HS256; tokens presenting any other alg header are rejected before
// signature verification.
//
// Verification always uses the verifying Manager's own secret, issuer,
// audience, leeway, and clock — never the issuing instance's — so a
// token signed under a stale configuration fails closed.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{config: cfg}, nil
}

// Sign produces a compact signed token for the given claims. The expiry
// is derived from the claims' own iat (claims.IssuedAt + AccessTTL) so
// that issuance uses a single instant for iat, nbf, and exp.
func (m *Manager) Sign(claims AccessClaims) (string, time.Time, error) {
	issuedAt := m.config.Now()
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	} else {
		claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	}

	expiresAt := issuedAt.Add(m.config.AccessTTL)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	claims.Issuer = m.config.Issuer
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies both the signature and the temporal claims of a token
// and returns its typed claims. Failures are classified: callers match
// with errors.Is against [ErrMalformed], [ErrSignature], [ErrExpired],
// [ErrNotYetValid], [ErrIssuer], and [ErrAudience]. Expected conditions
// never panic.
func (m *Manager) Parse(tokenStr string) (*AccessClaims, error) {
	if tokenStr == "" {
		return nil, ErrMalformed
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.config.Now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// DecodeUnverified extracts the claim set without checking the
// signature or the temporal claims. The result is untrusted; it exists
// so callers can log or audit tokens that fail verification. Only
// structurally malformed input yields an error.
func (m *Manager) DecodeUnverified(tokenStr string) (*AccessClaims, error) {
	if tokenStr == "" {
		return nil, ErrMalformed
	}

	claims := &AccessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, ErrMalformed
	}
	return claims, nil
}

// IsExpired reports temporal expiry independent of signature validity,
// judged by this Manager's clock and leeway. It is usable on tokens
// whose provenance the caller already trusts. Malformed input is the
// only error condition; a token without an exp claim reports false.
func (m *Manager) IsExpired(tokenStr string) (bool, error) {
	claims, err := m.DecodeUnverified(tokenStr)
	if err != nil {
		return false, err
	}
	if claims.ExpiresAt == nil {
		return false, nil
	}

	now := m.config.Now()
	return now.Sub(claims.ExpiresAt.Time) > m.config.Leeway, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudience
	default:
		return ErrInvalid
	}
}
