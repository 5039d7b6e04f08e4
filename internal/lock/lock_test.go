package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	lease, ok, err := locker.Acquire(ctx, "dispatch", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dispatch", lease.Key())

	// Повторный запуск пропускается
	_, ok, err = locker.Acquire(ctx, "dispatch", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Другой ключ независим
	_, ok, err = locker.Acquire(ctx, "reconcile", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, lease.Release(ctx))
	assert.ErrorIs(t, lease.Release(ctx), ErrNotHeld)

	_, ok, err = locker.Acquire(ctx, "dispatch", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLocker_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	locker := NewMemoryLocker()
	locker.now = func() time.Time { return now }

	stale, ok, err := locker.Acquire(ctx, "dispatch", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)

	fresh, ok, err := locker.Acquire(ctx, "dispatch", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Истёкший владелец не снимает чужую блокировку
	assert.ErrorIs(t, stale.Release(ctx), ErrNotHeld)
	assert.NoError(t, fresh.Release(ctx))
}

func TestRedisLocker_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	locker := NewRedisLocker(client, "")
	_, ok, err := locker.Acquire(context.Background(), "dispatch", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}
