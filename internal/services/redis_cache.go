package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "weather-dashboard:"

// RedisCache shares provider responses between dashboard instances. Expiry
// is left to Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Ping verifies the connection at startup.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.errors.Add(1)
			c.logger.Warn("Redis cache read failed", zap.String("key", key), zap.Error(err))
		}
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return data, true
}

// Set stores value. Failures are logged and otherwise ignored.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, redisKeyPrefix+key, value, c.ttl).Err(); err != nil {
		c.errors.Add(1)
		c.logger.Warn("Redis cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"backend":          "redis",
		"addr":             c.client.Options().Addr,
		"hits":             c.hits.Load(),
		"misses":           c.misses.Load(),
		"errors":           c.errors.Load(),
		"default_duration": c.ttl.String(),
	}
}
