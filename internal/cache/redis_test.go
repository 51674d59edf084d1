package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	c := &RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestLikeCount(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.GetLikeCount(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetLikeCount(ctx, 42, 7))
	n, ok, err := c.GetLikeCount(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, time.Hour, mr.TTL("likes:count:42"))

	require.NoError(t, c.InvalidateLikeCount(ctx, 42, 43))
	_, ok, err = c.GetLikeCount(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set("likes:count:5", "junk"))
	_, ok, err = c.GetLikeCount(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRewindSteps(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for want := 0; want < 3; want++ {
		step, err := c.NextRewindStep(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, want, step)
	}
	assert.Equal(t, time.Hour, mr.TTL("rewind:index:9"))

	require.NoError(t, c.ResetRewind(ctx, 9))
	step, err := c.NextRewindStep(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, step)

	// expiry restarts the walk
	mr.FastForward(2 * time.Hour)
	step, err = c.NextRewindStep(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, step)
}

func TestRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.NextRewindStep(context.Background(), 1)
	assert.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
}
