// Package session implements the Redis-backed session store: one hash
// key per session, a SET per user indexing that user's session ids, and
// Lua scripts for every mutation that must be atomic.
//
// # Rotation protocol
//
// A session holds exactly one unconsumed refresh-handle hash at a time.
// RotateRefreshHash compares-and-swaps it inside a single Lua script, so
// two concurrent rotations with the same handle produce exactly one
// success. The consumed hash is parked in prev_refresh_hash for the
// remainder of the session's life; presenting it again is reported as
// reuse, which the engine escalates to full revocation.
//
// # Lifetimes
//
// Redis key TTL is the garbage collector. Revocation flips a flag
// instead of deleting, so revoked sessions stay distinguishable from
// missing ones until their TTL fires. Sweep reconciles the user index
// sets and removes records whose logical expiry precedes their TTL.
package session
