package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "blobkit:circuit:"

// Lua scripts keep each transition atomic on the Redis side, so concurrent
// uploads across processes cannot lose failure counts.
var (
	// KEYS[1] circuit hash; ARGV[1] now (unix ms); ARGV[2] reset timeout (ms).
	// Returns 1 when an attempt is allowed.
	checkScript = redis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if not state or state == 'closed' then
  return 1
end
if state == 'open' then
  local last = tonumber(redis.call('HGET', KEYS[1], 'last_failure_ms') or '0')
  if tonumber(ARGV[1]) - last < tonumber(ARGV[2]) then
    return 0
  end
  redis.call('HSET', KEYS[1], 'state', 'half-open', 'probes', '1')
  return 1
end
-- half-open: a single probe only
local probes = tonumber(redis.call('HGET', KEYS[1], 'probes') or '0')
if probes > 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'probes', '1')
return 1
`)

	// KEYS[1] circuit hash; ARGV[1] now (unix ms); ARGV[2] failure threshold.
	// Returns {state, failures}.
	failureScript = redis.NewScript(`
local failures = redis.call('HINCRBY', KEYS[1], 'failures', 1)
redis.call('HSET', KEYS[1], 'last_failure_ms', ARGV[1])
local state = redis.call('HGET', KEYS[1], 'state') or 'closed'
if state == 'half-open' then
  state = 'open'
  redis.call('HSET', KEYS[1], 'state', 'open', 'probes', '0')
elseif failures >= tonumber(ARGV[2]) then
  state = 'open'
  redis.call('HSET', KEYS[1], 'state', 'open')
end
return {state, failures}
`)
)

// RedisStore implements Store on Redis, letting multiple processes share one
// circuit view per backend.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed circuit store.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}
	return &RedisStore{client: client, now: time.Now}, nil
}

func redisKey(backend string) string {
	return redisKeyPrefix + backend
}

// Check implements Store.
func (rs *RedisStore) Check(ctx context.Context, backend string, resetTimeout time.Duration) (bool, error) {
	res, err := checkScript.Run(ctx, rs.client,
		[]string{redisKey(backend)},
		rs.now().UnixMilli(), resetTimeout.Milliseconds(),
	).Int()
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return res == 1, nil
}

// RecordFailure implements Store.
func (rs *RedisStore) RecordFailure(ctx context.Context, backend string, threshold int) (Circuit, error) {
	now := rs.now()

	res, err := failureScript.Run(ctx, rs.client,
		[]string{redisKey(backend)},
		now.UnixMilli(), threshold,
	).Slice()
	if err != nil {
		return Circuit{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return Circuit{}, ErrMalformedState
	}

	state, _ := res[0].(string)
	failures, _ := res[1].(int64)

	return Circuit{
		State:         State(state),
		FailureCount:  int(failures),
		LastFailureAt: now,
	}, nil
}

// RecordSuccess implements Store.
func (rs *RedisStore) RecordSuccess(ctx context.Context, backend string) error {
	if err := rs.client.Del(ctx, redisKey(backend)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Snapshot implements Store.
func (rs *RedisStore) Snapshot(ctx context.Context, backend string) (Circuit, error) {
	vals, err := rs.client.HGetAll(ctx, redisKey(backend)).Result()
	if err != nil {
		return Circuit{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(vals) == 0 {
		return Circuit{State: StateClosed}, nil
	}

	c := Circuit{State: StateClosed}
	if s, ok := vals["state"]; ok && s != "" {
		c.State = State(s)
	}
	if f, ok := vals["failures"]; ok {
		c.FailureCount = atoiOrZero(f)
	}
	if p, ok := vals["probes"]; ok {
		c.HalfOpenProbes = atoiOrZero(p)
	}
	if ms, ok := vals["last_failure_ms"]; ok {
		c.LastFailureAt = time.UnixMilli(int64(atoiOrZero(ms)))
	}
	return c, nil
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
