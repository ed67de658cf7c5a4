// Package memlru is the in-memory read-through front for the
// FingerprintCache, sitting in front of Postgres. It wraps
// hashicorp/golang-lru, the same library already present in the
// retrieved pack's dependency graph.
package memlru

import (
	lru "github.com/hashicorp/golang-lru"
)

// Cache is a fixed-capacity, concurrency-safe LRU cache of arbitrary
// values keyed by string.
type Cache struct {
	inner *lru.Cache
}

// New builds a Cache holding at most size entries.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = 1024
	}
	inner, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

// Get returns the value for key and whether it was present.
func (c *Cache) Get(key string) (any, bool) {
	return c.inner.Get(key)
}

// Add inserts or updates the value for key, evicting the least recently
// used entry if the cache is at capacity.
func (c *Cache) Add(key string, value any) {
	c.inner.Add(key, value)
}

// Remove evicts key if present.
func (c *Cache) Remove(key string) {
	c.inner.Remove(key)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	return c.inner.Len()
}
