package counter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store := NewRedisStore(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestRedisStoreIncr(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := store.Incr(ctx, "client:203.0.113.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestRedisStoreWindowExpiry(t *testing.T) {
	mr, store := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Incr(ctx, "client:a", time.Minute)
	require.NoError(t, err)
	_, err = store.Incr(ctx, "client:a", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	got, err := store.Incr(ctx, "client:a", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "counter should reset after the window")
}

func TestRedisStoreKeysAreIndependent(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Incr(ctx, "client:a", time.Minute)
	require.NoError(t, err)

	got, err := store.Incr(ctx, "client:b", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestMemoryStoreIncrAndReset(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.Incr(ctx, "client:a", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := store.Incr(ctx, "client:a", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	time.Sleep(15 * time.Millisecond)

	third, err := store.Incr(ctx, "client:a", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), third)
}
