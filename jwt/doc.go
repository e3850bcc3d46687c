// Package jwt wraps github.com/golang-jwt/jwt/v5 behind a fixed-policy
// manager for clinicauth access tokens: HS256 only, issuer/audience
// pinned, leeway-bounded temporal checks, and an explicit split between
// signature validity and temporal validity so callers can tell a forged
// token from a stale one.
//
// Claim composition lives in Compose and is pure; signing and
// verification live on Manager and are safe for unlimited concurrent
// use — the Manager holds no mutable state after construction.
package jwt
