package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/pahilobhet/internal/cache"
	"github.com/oggyb/pahilobhet/internal/config"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestLikeCount(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	_, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache is a miss")

	v, err := c.LikeCountVersion(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, c.SetLikeCount(ctx, 7, 12, v))
	n, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)
	assert.Equal(t, cache.LikeCountTTL, mr.TTL("likes:count:7"))

	require.NoError(t, c.InvalidateLikeCount(ctx, 7))
	_, ok, err = c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetLikeCount_SkippedAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	// A reader takes the version, then a swipe invalidates before the
	// reader's DB count comes back.
	stale, err := c.LikeCountVersion(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, c.InvalidateLikeCount(ctx, 7))

	require.NoError(t, c.SetLikeCount(ctx, 7, 12, stale))
	assert.False(t, mr.Exists("likes:count:7"), "older count is not written back")

	fresh, err := c.LikeCountVersion(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, stale+1, fresh)
	require.NoError(t, c.SetLikeCount(ctx, 7, 13, fresh))
	n, ok, err := c.GetLikeCount(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(13), n)
}

func TestLikeCount_GarbageIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	require.NoError(t, mr.Set("likes:count:3", "lots"))
	_, ok, err := c.GetLikeCount(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	for i := 0; i < 3; i++ {
		ok, err := c.Allow(ctx, "rl:auth:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i+1)
	}
	ok, err := c.Allow(ctx, "rl:auth:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(time.Minute + time.Second)
	ok, err = c.Allow(ctx, "rl:auth:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "new window")
}
