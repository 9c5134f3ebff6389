// Package counter provides the per-client request counters used by the rate
// limiter. The store is injected so handlers never touch shared global state;
// in deployments with several API replicas the Redis-backed store keeps the
// counts consistent across processes.
package counter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store counts events per key inside a rolling window. Incr returns the
// count including the current event.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisStore implements Store on top of a Redis INCR + EXPIRE pipeline.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects a counter store to the given Redis instance.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Incr bumps the counter and arms the window TTL on first use of a key.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("counter: incr %q: %w", key, err)
	}
	return incr.Val(), nil
}

// Ping verifies connectivity, used at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

type memoryBucket struct {
	count int64
	until time.Time
}

// MemoryStore is the in-process fallback used when no Redis address is
// configured. Suitable for a single replica only.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

// NewMemoryStore builds an empty in-process counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*memoryBucket)}
}

// Incr bumps the counter, resetting it when the window has elapsed.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	b, ok := s.buckets[key]
	if !ok || now.After(b.until) {
		b = &memoryBucket{until: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++
	return b.count, nil
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
