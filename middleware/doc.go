// Package middleware provides net/http middleware for access-token
// authentication.
package middleware
