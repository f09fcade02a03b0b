package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Cache stores raw provider payloads keyed by request. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	GetStats() map[string]interface{}
}

type CacheItem struct {
	Data      []byte
	ExpiresAt time.Time
}

type WeatherCache struct {
	mu              sync.RWMutex
	items           map[string]CacheItem
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	hits            atomic.Int64
	misses          atomic.Int64
	now             func() time.Time
}

func NewWeatherCache(defaultDuration time.Duration, maxSize int, logger *zap.Logger) *WeatherCache {
	return &WeatherCache{
		items:           make(map[string]CacheItem),
		logger:          logger,
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		now:             time.Now,
	}
}

func (c *WeatherCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict if cache is too large
	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	expiresAt := c.now().Add(c.defaultDuration)
	c.items[key] = CacheItem{
		Data:      value,
		ExpiresAt: expiresAt,
	}

	c.logger.Debug("Response cached",
		zap.String("key", key),
		zap.Time("expires_at", expiresAt))
}

func (c *WeatherCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		c.misses.Add(1)
		return nil, false
	}

	if c.now().After(item.ExpiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return item.Data, true
}

func (c *WeatherCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
		c.logger.Debug("Evicted oldest response from cache",
			zap.String("key", oldestKey))
	}
}

// Cleanup removes expired entries and reports how many were dropped.
func (c *WeatherCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items",
			zap.Int("count", expiredCount))
	}
	return expiredCount
}

func (c *WeatherCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *WeatherCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"backend":          "memory",
		"items":            len(c.items),
		"hits":             c.hits.Load(),
		"misses":           c.misses.Load(),
		"max_size":         c.maxSize,
		"default_duration": c.defaultDuration.String(),
	}
}

// noopCache disables caching.
type noopCache struct{}

func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noopCache) Set(context.Context, string, []byte)        {}
func (noopCache) GetStats() map[string]interface{} {
	return map[string]interface{}{"backend": "none"}
}
