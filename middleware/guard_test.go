package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinicore/clinicauth/jwt"
)

type stubValidator struct {
	claims *jwt.AccessClaims
	err    error
}

func (s stubValidator) Validate(string) (*jwt.AccessClaims, error) {
	return s.claims, s.err
}

func protected(t *testing.T, v Validator) http.Handler {
	t.Helper()
	return Guard(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("handler reached without claims in context")
		}
		_, _ = w.Write([]byte(claims.UserID()))
	}))
}

func TestGuardPassesValidToken(t *testing.T) {
	claims := &jwt.AccessClaims{}
	claims.Subject = "u-1001"
	handler := protected(t, stubValidator{claims: claims})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer some.access.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "u-1001" {
		t.Fatalf("body = %q", body)
	}
}

// Every rejection path must be byte-identical: same status, same body.
// An attacker probing the endpoint learns nothing about why a token was
// refused.
func TestGuardRejectionsAreUniform(t *testing.T) {
	failing := stubValidator{err: errors.New("token expired")}

	cases := []struct {
		name      string
		validator Validator
		header    string
	}{
		{"missing header", failing, ""},
		{"not bearer", failing, "Basic dXNlcjpwYXNz"},
		{"bearer no token", failing, "Bearer"},
		{"validator rejects", failing, "Bearer bad.token.here"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := protected(t, tc.validator)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			body, _ := io.ReadAll(rec.Body)
			if string(body) != "unauthorized" {
				t.Fatalf("body = %q, want %q", body, "unauthorized")
			}
		})
	}
}

func TestGuardAcceptsLowercaseBearer(t *testing.T) {
	claims := &jwt.AccessClaims{}
	claims.Subject = "u-1001"
	handler := protected(t, stubValidator{claims: claims})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer some.access.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestClaimsFromContextWithoutGuard(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ClaimsFromContext(req.Context()); ok {
		t.Fatal("claims found on a bare request context")
	}
}
