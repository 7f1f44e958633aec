package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLimiter(t *testing.T) (*RedisAttemptLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisAttemptLimiter(client, quietLogger()), mr
}

func TestRedisAttemptLimiter_CountsFailures(t *testing.T) {
	l, mr := newTestRedisLimiter(t)
	ctx := context.Background()
	key := attemptsKey("u-1")

	n, err := l.Failures(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for want := 1; want <= 3; want++ {
		n, err = l.RegisterFailure(ctx, key, 10*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	assert.Equal(t, 10*time.Minute, mr.TTL(key))

	n, err = l.Failures(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, l.Reset(ctx, key))
	n, err = l.Failures(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisAttemptLimiter_CounterExpires(t *testing.T) {
	l, mr := newTestRedisLimiter(t)
	ctx := context.Background()
	key := attemptsKey("u-1")

	_, err := l.RegisterFailure(ctx, key, time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	n, err := l.Failures(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisAttemptLimiter_Cooldown(t *testing.T) {
	l, mr := newTestRedisLimiter(t)
	ctx := context.Background()
	key := resendKey("u-1")

	ok, err := l.Cooldown(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Cooldown(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(31 * time.Second)

	ok, err = l.Cooldown(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisAttemptLimiter_ServerDown(t *testing.T) {
	l, mr := newTestRedisLimiter(t)
	mr.Close()

	ok, err := l.Cooldown(context.Background(), resendKey("u-1"), time.Second)
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestNoopAttemptLimiter(t *testing.T) {
	var l AttemptLimiter = NoopAttemptLimiter{}
	ctx := context.Background()

	n, err := l.RegisterFailure(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	ok, err := l.Cooldown(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
