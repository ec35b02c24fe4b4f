// Package cache provides a simple in-memory concurrency-safe key-value store,
// with optional expiration. Think of it as a basic and local version of Redis
// or https://github.com/patrickmn/go-cache, for any value type.
package cache

import (
	"sync"
	"time"
)

// Cache is an in-memory concurrency-safe key-value store, with optional expiration.
type Cache[V any] struct {
	mu   sync.RWMutex
	data map[string]Item[V]

	defaultExpiration time.Duration
}

// Item represents a single cache item, with its value and expiration time.
// An Expiration of zero means the item never expires.
type Item[V any] struct {
	Value      V
	Expiration time.Time
}

// Expired checks if the item is expired.
func (i *Item[V]) Expired() bool {
	if i.Expiration.IsZero() {
		return false
	}
	return time.Now().After(i.Expiration)
}

const (
	DefaultCleanupInterval time.Duration = 61 * time.Minute // Prime number & slightly over an hour.
	DefaultExpiration      time.Duration = 0
	NoCleanup              time.Duration = 0 // For use in [New] only.
	NoExpiration           time.Duration = -1
)

// New creates a new [Cache] instance. If the cleanup interval is positive,
// a background goroutine deletes expired items periodically, for the
// lifetime of the process.
func New[V any](defaultExpiration, cleanupInterval time.Duration) *Cache[V] {
	if defaultExpiration <= DefaultExpiration {
		defaultExpiration = NoExpiration
	}

	c := &Cache[V]{
		data:              make(map[string]Item[V]),
		defaultExpiration: defaultExpiration,
	}

	if cleanupInterval > NoCleanup {
		go func() {
			for range time.Tick(cleanupInterval) {
				c.DeleteExpired()
			}
		}()
	}

	return c
}

// Del removes a specified item from the cache. If the item does not exist, this is a no-op.
func (c *Cache[V]) Del(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// DeleteExpired removes all the expired items from the cache.
func (c *Cache[V]) DeleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, item := range c.data {
		if item.Expired() {
			delete(c.data, k)
		}
	}
}

// Get retrieves a value from the cache, and also returns a boolean indicating if it was
// found and not expired. It also handles lazy expiration (deleting expired items).
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	item, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}

	if item.Expired() {
		c.Del(key)
		var zero V
		return zero, false
	}

	return item.Value, true
}

func (c *Cache[V]) expirationTime(ttl time.Duration) time.Time {
	if ttl == DefaultExpiration {
		ttl = c.defaultExpiration
	}
	if ttl > DefaultExpiration {
		return time.Now().Add(ttl)
	}
	return time.Time{}
}

// Set adds a value to the cache with an optional Time-To-Live duration
// until it expires (see also [DefaultExpiration] and [NoExpiration]).
// Note that any negative TTL value is treated as [NoExpiration].
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = Item[V]{
		Value:      value,
		Expiration: c.expirationTime(ttl),
	}
}

// Len returns the total number of items in the cache,
// including expired-but-still-present ones.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}
