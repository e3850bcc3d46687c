package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store-level outcomes. The engine maps these onto its public error
// taxonomy; within this package they mirror the status codes returned
// by the Lua scripts.
var (
	// ErrNotFound is returned when no session exists for the id.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when the session's lifetime has passed.
	ErrExpired = errors.New("session expired")
	// ErrRevoked is returned when the session has been revoked.
	ErrRevoked = errors.New("session revoked")
	// ErrReuseDetected is returned when a rotation presents the handle
	// that the previous rotation already consumed.
	ErrReuseDetected = errors.New("refresh handle reuse detected")
	// ErrHandleMismatch is returned when a rotation presents a handle
	// matching neither the current nor the consumed hash.
	ErrHandleMismatch = errors.New("refresh handle mismatch")
	// ErrUnavailable wraps Redis transport failures.
	ErrUnavailable = errors.New("session store unavailable")
)

const (
	statusNotFound int64 = 0
	statusExpired  int64 = 1
	statusRevoked  int64 = 2
	statusOK       int64 = 3
	statusReuse    int64 = 4
	statusMismatch int64 = 5
)

// rotateScript is the linearization point of refresh rotation: the
// compare-and-swap of the current handle hash happens inside Redis, so
// of any number of concurrent rotations presenting the same handle
// exactly one observes a match and swaps. The consumed hash moves to
// prev_refresh_hash, where a later replay is recognized as reuse.
//
// ARGV: provided hash, next hash, now (unix), new expires_at (unix),
// ttl (ms).
const rotateScript = `
local current = redis.call("HGET", KEYS[1], "refresh_hash")
if current == false then
  return 0
end
if redis.call("HGET", KEYS[1], "revoked") == "1" then
  return 2
end
local expires = tonumber(redis.call("HGET", KEYS[1], "expires_at") or "0")
if expires <= tonumber(ARGV[3]) then
  return 1
end
if current ~= ARGV[1] then
  if redis.call("HGET", KEYS[1], "prev_refresh_hash") == ARGV[1] then
    return 4
  end
  return 5
end
redis.call("HSET", KEYS[1], "prev_refresh_hash", current)
redis.call("HSET", KEYS[1], "refresh_hash", ARGV[2])
redis.call("HSET", KEYS[1], "issued_at", ARGV[3])
redis.call("HSET", KEYS[1], "last_used_at", ARGV[3])
redis.call("HSET", KEYS[1], "expires_at", ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
return 3
`

var rotateLua = redis.NewScript(rotateScript)

// touchScript updates last-used bookkeeping only on live sessions.
// ARGV: now (unix).
const touchScript = `
if redis.call("HGET", KEYS[1], "user_id") == false then
  return 0
end
if redis.call("HGET", KEYS[1], "revoked") == "1" then
  return 2
end
local expires = tonumber(redis.call("HGET", KEYS[1], "expires_at") or "0")
if expires <= tonumber(ARGV[1]) then
  return 1
end
redis.call("HSET", KEYS[1], "last_used_at", ARGV[1])
redis.call("HINCRBY", KEYS[1], "request_count", 1)
return 3
`

var touchLua = redis.NewScript(touchScript)

// revokeScript marks a session revoked without deleting it: the record
// must survive until its TTL so later Touch/Rotate calls can report
// revoked rather than not-found.
const revokeScript = `
if redis.call("HGET", KEYS[1], "user_id") == false then
  return 0
end
redis.call("HSET", KEYS[1], "revoked", "1")
return 3
`

var revokeLua = redis.NewScript(revokeScript)

// Store is the Redis-backed session store. One hash key per session,
// one SET per user indexing that user's session ids. Safe for
// concurrent use; the Unconsumed→Consumed handle transition is
// linearized per session by rotateScript.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store on the given client. prefix namespaces every
// key this store touches.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ca"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":sess:" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

// Save persists a session with the given TTL and indexes it under its
// user. The TTL is the session's full remaining lifetime; Redis expiry
// is the primary garbage collector, Sweep only reconciles the index.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}

	fields := encodeFields(sess)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key(sess.ID), fields)
		pipe.PExpire(ctx, s.key(sess.ID), ttl)
		pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Exists reports whether a session record is present, live or not.
func (s *Store) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Get retrieves a session by id. The record is returned even when
// revoked or past its expires_at; callers inspect those fields. Only a
// missing key yields ErrNotFound.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeFields(sessionID, fields)
}

// Touch records request activity: bumps last_used_at and the request
// counter. Fails with ErrNotFound, ErrExpired, or ErrRevoked when the
// session cannot accept activity.
func (s *Store) Touch(ctx context.Context, sessionID string, now time.Time) error {
	code, err := s.runStatusScript(ctx, touchLua, sessionID, now.Unix())
	if err != nil {
		return err
	}
	return statusToError(code)
}

// Revoke marks a session revoked. The record remains until its TTL
// lapses so subsequent operations can distinguish revoked from missing.
// Revoking an already-revoked session is a no-op; revoking a missing
// one reports ErrNotFound.
func (s *Store) Revoke(ctx context.Context, sessionID string) error {
	code, err := s.runStatusScript(ctx, revokeLua, sessionID)
	if err != nil {
		return err
	}
	return statusToError(code)
}

// RevokeAllForUser marks every indexed session of the user revoked and
// returns how many records it marked.
//
// Not fully atomic: a session created between the index read and the
// write phase is not captured. The window is narrow and only affects
// revoke-all semantics; such a stray session is caught by the next
// call or expires naturally.
func (s *Store) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.redis.Pipeline()
	exists := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		exists[i] = pipe.Exists(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	revoked := 0
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			if n, cmdErr := exists[i].Result(); cmdErr == nil && n > 0 {
				pipe.HSet(ctx, s.key(id), fieldRevoked, "1")
				revoked++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return revoked, nil
}

// ActiveSessions returns the user's live sessions: indexed, present,
// not revoked, not expired at the given instant. Order is unspecified;
// callers sort by recency if they need to.
func (s *Store) ActiveSessions(ctx context.Context, userID string, now time.Time) ([]*Session, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return []*Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sessions := make([]*Session, 0, len(ids))
	for i, cmd := range cmds {
		fields, cmdErr := cmd.Result()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, cmdErr)
		}
		if len(fields) == 0 {
			continue
		}

		sess, decErr := decodeFields(ids[i], fields)
		if decErr != nil {
			return nil, decErr
		}
		if sess.Revoked || sess.Expired(now) {
			continue
		}
		sessions = append(sessions, sess)
	}

	return sessions, nil
}

// RotateRefreshHash atomically consumes the provided handle hash and
// installs the next one, extending the session lifetime to now+ttl.
// Exactly one of any set of concurrent calls presenting the same handle
// succeeds. On success the refreshed session record is returned.
func (s *Store) RotateRefreshHash(
	ctx context.Context,
	sessionID string,
	providedHash, nextHash [32]byte,
	now time.Time,
	ttl time.Duration,
) (*Session, error) {
	code, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sessionID)},
		hexHash(providedHash),
		hexHash(nextHash),
		now.Unix(),
		now.Add(ttl).Unix(),
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch code {
	case statusOK:
		return s.Get(ctx, sessionID)
	case statusReuse:
		return nil, ErrReuseDetected
	case statusMismatch:
		return nil, ErrHandleMismatch
	default:
		return nil, statusToError(code)
	}
}

// Sweep reconciles user index sets against expired session keys and
// deletes records whose expires_at has passed but whose Redis TTL has
// not yet fired. It returns the number of sessions removed. Sweep is an
// O(n) maintenance pass; run it on a timer, never on the request path.
func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	pattern := s.prefix + ":user:*"

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		for _, userKey := range keys {
			n, err := s.sweepUser(ctx, userKey, now)
			if err != nil {
				return removed, err
			}
			removed += n
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return removed, nil
}

func (s *Store) sweepUser(ctx context.Context, userKey string, now time.Time) (int, error) {
	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	removed := 0
	for _, id := range ids {
		expiresStr, err := s.redis.HGet(ctx, s.key(id), fieldExpiresAt).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Key already expired out from under the index.
				if err := s.redis.SRem(ctx, userKey, id).Err(); err != nil {
					return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
				}
				removed++
				continue
			}
			return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		expiresAt, parseErr := strconv.ParseInt(expiresStr, 10, 64)
		if parseErr != nil {
			return removed, ErrCorrupt
		}
		if expiresAt > now.Unix() {
			continue
		}

		_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.key(id))
			pipe.SRem(ctx, userKey, id)
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		removed++
	}

	return removed, nil
}

// Ping reports point-in-time Redis availability and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *Store) runStatusScript(ctx context.Context, script *redis.Script, sessionID string, args ...interface{}) (int64, error) {
	code, err := script.Run(ctx, s.redis, []string{s.key(sessionID)}, args...).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return code, nil
}

func statusToError(code int64) error {
	switch code {
	case statusOK:
		return nil
	case statusNotFound:
		return ErrNotFound
	case statusExpired:
		return ErrExpired
	case statusRevoked:
		return ErrRevoked
	default:
		return fmt.Errorf("%w: unknown script status %d", ErrUnavailable, code)
	}
}

func hexHash(h [32]byte) string {
	return hex.EncodeToString(h[:])
}
