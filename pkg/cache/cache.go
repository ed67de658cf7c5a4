package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/civicsim/orchestrator/pkg/models"
	"github.com/civicsim/orchestrator/pkg/storage/memlru"
	"github.com/civicsim/orchestrator/pkg/storage/postgres"
)

// Backend is the durable store a Cache reads through to and writes behind.
// *postgres.FingerprintRepo satisfies it; tests substitute a fake.
type Backend interface {
	Get(ctx context.Context, key string) (*models.CacheEntry, error)
	Upsert(ctx context.Context, entry models.CacheEntry) error
	InvalidateScenario(ctx context.Context, scenarioID string) error
}

// Cache is the FingerprintCache: an in-memory LRU in front of a durable
// backend, keyed by CacheKey.
type Cache struct {
	backend Backend
	front   *memlru.Cache

	mu         sync.Mutex
	byScenario map[string]map[string]struct{}
}

// New builds a Cache with an in-memory front of at most maxEntries items.
func New(backend Backend, maxEntries int) (*Cache, error) {
	front, err := memlru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{backend: backend, front: front, byScenario: make(map[string]map[string]struct{})}, nil
}

// Lookup returns the cached entry for key, checking the in-memory front
// before falling through to the backend. A backend miss is not an error.
func (c *Cache) Lookup(ctx context.Context, key string) (*models.CacheEntry, bool) {
	if v, ok := c.front.Get(key); ok {
		return v.(*models.CacheEntry), true
	}

	entry, err := c.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, postgres.ErrNotFound) {
			slog.Warn("fingerprint cache backend lookup failed", "key", key, "error", err)
		}
		return nil, false
	}
	c.front.Add(key, entry)
	c.indexKey(entry.ScenarioID, key)
	return entry, true
}

// Store writes entry to both the front and the backend. Backend failures
// are logged and swallowed — a cache write must never fail the simulation
// it is caching the result of.
func (c *Cache) Store(ctx context.Context, key string, entry models.CacheEntry) {
	entry.Key = key
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	stored := entry
	c.front.Add(key, &stored)
	c.indexKey(entry.ScenarioID, key)

	if err := c.backend.Upsert(ctx, entry); err != nil {
		slog.Warn("fingerprint cache backend write failed", "key", key, "error", err)
	}
}

// indexKey records that key belongs to scenarioID, so Invalidate can
// evict it from the in-memory front without scanning the whole LRU.
func (c *Cache) indexKey(scenarioID, key string) {
	if scenarioID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	keys, ok := c.byScenario[scenarioID]
	if !ok {
		keys = make(map[string]struct{})
		c.byScenario[scenarioID] = keys
	}
	keys[key] = struct{}{}
}

// Invalidate evicts every entry for scenarioID from both the backend and
// the in-memory front, so a stale fingerprint never remains servable
// after the world state it was computed against has moved on (an
// adopted policy, for instance).
func (c *Cache) Invalidate(ctx context.Context, scenarioID string) error {
	c.mu.Lock()
	keys := c.byScenario[scenarioID]
	delete(c.byScenario, scenarioID)
	c.mu.Unlock()

	for key := range keys {
		c.front.Remove(key)
	}

	return c.backend.InvalidateScenario(ctx, scenarioID)
}
