// Package clinicauth is the authentication engine for clinic platform
// services: HS256 access tokens, opaque rotating refresh tokens with
// reuse detection, and Redis-backed per-device session tracking.
//
// An access token is a short-lived signed JWT carrying the user's
// identity claims; services verify it locally without network I/O. A
// refresh token is an opaque single-use credential bound to one
// session. Consuming it through [Engine.Refresh] atomically installs a
// replacement, and replaying a consumed token revokes every session of
// the user on the assumption of theft.
//
// Construct an engine with the builder:
//
//	engine, err := clinicauth.NewBuilder().
//		WithConfig(clinicauth.Config{
//			JWT: clinicauth.JWTConfig{
//				Secret:   secret,
//				Issuer:   "clinicore",
//				Audience: "clinicore-api",
//			},
//		}).
//		WithRedis(redisClient).
//		WithUserProvider(users).
//		Build()
//
// All Engine methods are safe for concurrent use.
package clinicauth
