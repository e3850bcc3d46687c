// Package internal holds primitives shared by the engine and its
// subpackages: identifier generation and the opaque refresh-token
// codec. Nothing here is part of the public API.
package internal
