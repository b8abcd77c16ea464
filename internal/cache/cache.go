// Package cache provides a small caller-owned TTL cache. It is passed
// explicitly into the components that need one (installation tokens,
// rendered asset contexts) so cache lifecycle is visible and testable;
// there is deliberately no package-level instance.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache wraps an in-memory TTL cache with a fixed default expiration
type Cache struct {
	inner *gocache.Cache
	ttl   time.Duration
}

// New creates a cache whose entries expire after ttl. Expired entries
// are purged at twice the ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		inner: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Get returns the cached value for key, if present and unexpired
func (c *Cache) Get(key string) (any, bool) {
	return c.inner.Get(key)
}

// Set stores value under key with the cache's default TTL
func (c *Cache) Set(key string, value any) {
	c.inner.Set(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores value under key with an entry-specific TTL
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.inner.Set(key, value, ttl)
}

// Delete evicts a single key
func (c *Cache) Delete(key string) {
	c.inner.Delete(key)
}

// Flush evicts everything
func (c *Cache) Flush() {
	c.inner.Flush()
}

// Len returns the number of unexpired entries
func (c *Cache) Len() int {
	return c.inner.ItemCount()
}
