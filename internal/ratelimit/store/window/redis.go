package window

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vocalmind/internal/ratelimit/models"
)

// allowScript runs the prune-count-append sequence atomically on the server.
// Scores are unix milliseconds. Returns {1, remaining} on admission and
// {0, oldest_score} on rejection.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, oldest[2]}
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
return {1, limit - count - 1}
`)

// RedisStore implements the sliding window on Redis sorted sets so multiple
// server instances share counters. Unlike MemoryStore, idle keys expire once
// their window has fully elapsed.
type RedisStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed window store.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Allow checks and records a request atomically via a server-side script.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()
	raw, err := allowScript.Run(ctx, s.client,
		[]string{key},
		now.UnixMilli(),
		window.Milliseconds(),
		limit,
		fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("run window script: %w", err)
	}

	vals, ok := raw.([]any)
	if !ok || len(vals) != 2 {
		return nil, fmt.Errorf("unexpected script reply %v", raw)
	}
	allowed, _ := vals[0].(int64)

	if allowed == 1 {
		remaining, _ := vals[1].(int64)
		return &models.Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: int(remaining),
			ResetAt:   now.Add(window),
		}, nil
	}

	oldestMilli, err := parseScore(vals[1])
	if err != nil {
		return nil, err
	}
	resetAt := time.UnixMilli(oldestMilli).Add(window)
	retryAfter := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return &models.Result{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	}, nil
}

// Count returns the number of recorded requests for a key within the window.
func (s *RedisStore) Count(ctx context.Context, key string, window time.Duration) (int, error) {
	cutoff := s.now().Add(-window).UnixMilli()
	n, err := s.client.ZCount(ctx, key, fmt.Sprintf("(%d", cutoff), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("zcount: %w", err)
	}
	return int(n), nil
}

// Reset clears the counter for a key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// parseScore handles the two shapes Lua number replies take across RESP
// versions: integer and bulk string.
func parseScore(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case string:
		var n int64
		if _, err := fmt.Sscan(t, &n); err != nil {
			return 0, fmt.Errorf("parse score %q: %w", t, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected score type %T", v)
	}
}
