package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

// RefreshSecretSize is the entropy carried by every refresh token in
// addition to the embedded session id.
const RefreshSecretSize = 32

const refreshTokenRawSize = 16 + RefreshSecretSize

// NewSessionID returns a fresh random session identifier in canonical
// UUID form.
func NewSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewTokenID returns a fresh jti value. Never reused, even for tokens
// issued to the same user in the same instant.
func NewTokenID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewRefreshSecret draws the random half of a refresh token.
func NewRefreshSecret() ([RefreshSecretSize]byte, error) {
	var secret [RefreshSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

// HashRefreshSecret derives the stored handle hash. Only the hash ever
// reaches the session store; the plaintext secret lives exclusively in
// the token string held by the client.
func HashRefreshSecret(secret [RefreshSecretSize]byte) [32]byte {
	return sha256.Sum256(secret[:])
}

// EncodeRefreshToken packs a session id and its secret into the opaque
// refresh token string: 48 raw bytes, base64url without padding. The
// embedded session id is what makes handle lookup a single keyed read.
func EncodeRefreshToken(sessionID string, secret [RefreshSecretSize]byte) (string, error) {
	sid, err := uuid.Parse(sessionID)
	if err != nil {
		return "", err
	}

	var raw [refreshTokenRawSize]byte
	copy(raw[:len(sid)], sid[:])
	copy(raw[len(sid):], secret[:])

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// DecodeRefreshToken splits an opaque refresh token back into the
// session id and secret. Any structural defect is reported as a single
// invalid-size error; callers must not leak finer detail.
func DecodeRefreshToken(token string) (string, [RefreshSecretSize]byte, error) {
	var secret [RefreshSecretSize]byte

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", secret, err
	}
	if len(raw) != refreshTokenRawSize {
		return "", secret, errors.New("invalid refresh token size")
	}

	sid, err := uuid.FromBytes(raw[:16])
	if err != nil {
		return "", secret, err
	}
	copy(secret[:], raw[16:])

	return sid.String(), secret, nil
}
