package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCounter tracks how many requests a session has made, backing the
// session.request_count field the rate-limit seed rule reads. Gateway
// instances scaled behind a load balancer share one counter so the limit
// applies per session regardless of which instance handled a prior request.
type SessionCounter interface {
	Increment(ctx context.Context, sessionID string) (int64, error)
}

// RedisSessionCounter is a SessionCounter backed by a single INCR'd key per
// session, given a TTL so abandoned sessions don't leak keys forever. The
// TTL is refreshed on every increment, not only on the first write.
type RedisSessionCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionCounter wires a SessionCounter on top of an existing Redis
// client. ttl bounds how long a quiet session's counter survives.
func NewRedisSessionCounter(rdb *redis.Client, ttl time.Duration) *RedisSessionCounter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisSessionCounter{rdb: rdb, ttl: ttl}
}

func sessionCounterKey(sessionID string) string {
	return fmt.Sprintf("gateway:session:%s:request_count", sessionID)
}

// Increment bumps the session's counter and returns the post-increment
// value. The TTL is (re)applied on every call, so an active session's
// counter keeps sliding forward while an idle one expires.
func (c *RedisSessionCounter) Increment(ctx context.Context, sessionID string) (int64, error) {
	key := sessionCounterKey(sessionID)
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rate counter incr: %w", err)
	}
	if err := c.rdb.Expire(ctx, key, c.ttl).Err(); err != nil {
		return count, fmt.Errorf("rate counter expire: %w", err)
	}
	return count, nil
}

// MemorySessionCounter is an in-process SessionCounter for single-instance
// deployments and tests, where a Redis dependency would be pure overhead.
type MemorySessionCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemorySessionCounter constructs an empty MemorySessionCounter.
func NewMemorySessionCounter() *MemorySessionCounter {
	return &MemorySessionCounter{counts: map[string]int64{}}
}

func (c *MemorySessionCounter) Increment(_ context.Context, sessionID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[sessionID]++
	return c.counts[sessionID], nil
}
