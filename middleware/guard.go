package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/clinicore/clinicauth/jwt"
)

type contextKey int

const claimsKey contextKey = iota

// Validator verifies an access token and returns its claims. Satisfied
// by *clinicauth.Engine.
type Validator interface {
	Validate(tokenStr string) (*jwt.AccessClaims, error)
}

// Guard returns middleware that authenticates requests via the
// Authorization header and injects the verified claims into the request
// context.
//
// Every rejection is the same 401 with the body "unauthorized",
// regardless of whether the token was missing, malformed, forged, or
// expired. Differentiated failures belong in server logs and the audit
// trail, not in responses an attacker can probe.
func Guard(validator Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the claims Guard stored on the request
// context. ok is false on requests that did not pass through Guard.
func ClaimsFromContext(ctx context.Context) (*jwt.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*jwt.AccessClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte("unauthorized"))
}
