package cache_test

import (
	"testing"
	"time"

	"github.com/tzrikka/conduct/internal/cache"
)

func TestCacheNoExpiration(t *testing.T) {
	c := cache.New[string](cache.NoExpiration, cache.NoCleanup)
	k, v := "key1", "val1"

	if got := c.Len(); got != 0 {
		t.Errorf("Cache.Len() = %d, want %d", got, 0)
	}

	c.Set(k, v, cache.DefaultExpiration)

	if got := c.Len(); got != 1 {
		t.Errorf("Cache.Len() = %d, want %d", got, 1)
	}
	if got, found := c.Get(k); !found || got != v {
		t.Errorf("Cache.Get() = %q, %v; want %q, true", got, found, v)
	}

	c.Del(k)

	if got := c.Len(); got != 0 {
		t.Errorf("Cache.Len() = %d, want %d", got, 0)
	}
	if _, found := c.Get(k); found {
		t.Errorf("Cache.Get() found deleted key: %s", k)
	}
}

func TestCacheWithExpiration(t *testing.T) {
	c := cache.New[int](1*time.Nanosecond, cache.NoCleanup)
	k := "key1"
	c.Set(k, 42, cache.DefaultExpiration)
	time.Sleep(time.Millisecond)

	if got := c.Len(); got != 1 {
		t.Errorf("Cache.Len() = %d, want %d", got, 1)
	}
	if _, found := c.Get(k); found {
		t.Errorf("Cache.Get() found expired key: %s", k)
	}
	if got := c.Len(); got != 0 {
		t.Errorf("Cache.Len() after lazy expiration = %d, want %d", got, 0)
	}
}

func TestCacheDeleteExpired(t *testing.T) {
	c := cache.New[string](cache.NoExpiration, cache.NoCleanup)
	c.Set("keep", "a", cache.DefaultExpiration)
	c.Set("drop", "b", time.Nanosecond)
	time.Sleep(time.Millisecond)

	c.DeleteExpired()

	if got := c.Len(); got != 1 {
		t.Errorf("Cache.Len() = %d, want %d", got, 1)
	}
	if got, found := c.Get("keep"); !found || got != "a" {
		t.Errorf("Cache.Get() = %q, %v; want %q, true", got, found, "a")
	}
}
