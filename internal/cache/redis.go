package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/pahilobhet/internal/config"
)

// LikeCountTTL is how long a cached like count lives without being read.
const LikeCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForLikeCount generates Redis key for a user's like count
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// keyForLikeVersion holds a counter bumped on every invalidation of the
// user's like count. It has no TTL.
func (c *RedisCache) keyForLikeVersion(userID uint64) string {
	return fmt.Sprintf("likes:version:%d", userID)
}

// LikeCountVersion returns the invalidation version to pass to SetLikeCount.
// Read it before counting in the DB.
func (c *RedisCache) LikeCountVersion(ctx context.Context, userID uint64) (int64, error) {
	n, err := c.Client.Get(ctx, c.keyForLikeVersion(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// SetLikeCount stores a like count computed at version with a full TTL.
// Nothing is written if the count was invalidated since version was read,
// so a slow reader cannot put back a count older than the latest swipe.
func (c *RedisCache) SetLikeCount(ctx context.Context, userID uint64, count, version int64) error {
	versionKey := c.keyForLikeVersion(userID)
	err := c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, versionKey).Int64()
		if errors.Is(err, redis.Nil) {
			cur = 0
		} else if err != nil {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.KeyForLikeCount(userID), count, LikeCountTTL)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil // invalidated mid-write
	}
	return err
}

// GetLikeCount returns the cached count. ok is false on a cache miss.
// A hit refreshes the TTL since the user is active.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64) (count int64, ok bool, err error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // treat garbage as a miss
	}
	_ = c.Client.Expire(ctx, key, LikeCountTTL).Err()
	return n, true, nil
}

// InvalidateLikeCount drops the cached count so the next read hits the DB,
// and bumps the version so counts computed before now are not stored.
func (c *RedisCache) InvalidateLikeCount(ctx context.Context, userID uint64) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.keyForLikeVersion(userID))
		pipe.Del(ctx, c.KeyForLikeCount(userID))
		return nil
	})
	return err
}

// Allow implements a fixed-window counter: the first hit in a window sets
// the expiry, hits beyond limit are refused until the key expires.
func (c *RedisCache) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	n, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := c.Client.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= limit, nil
}
