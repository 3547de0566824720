package cache

import (
	"context"
	"strings"
	"time"

	"github.com/inboz-admin/inboz-app-sub004/internal/logger"
	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache
type InMemoryCache struct {
	cache  *goCache.Cache
	logger *logger.Logger
}

var globalCache *InMemoryCache

// Initialize sets up the global cache instance
func Initialize(logger *logger.Logger) {
	if globalCache == nil {
		globalCache = &InMemoryCache{
			cache:  goCache.New(DefaultExpiration, DefaultCleanupInterval),
			logger: logger,
		}
	}
}

// NewInMemoryCache returns the global cache instance
func NewInMemoryCache() Cache {
	if globalCache == nil {
		Initialize(nil)
	}
	return globalCache
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

// Set adds a value to the cache with the specified expiration
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	c.cache.Set(key, value, expiration)
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}

// DeleteByPrefix removes all keys with the given prefix
func (c *InMemoryCache) DeleteByPrefix(_ context.Context, prefix string) {
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

// Flush removes all items from the cache
func (c *InMemoryCache) Flush(_ context.Context) {
	c.cache.Flush()
}
