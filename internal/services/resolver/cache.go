package resolver

import (
	"sync"
	"sync/atomic"
)

// entry is a populated cache slot. found=false is the cached "not found"
// result, distinct from a key that was never looked up.
type entry struct {
	value string
	found bool
}

// CacheStats describes the resolution cache for diagnostics
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Cache is the process-wide resolution cache. Entries are never invalidated.
// Construct one at startup and share it between resolvers; tests use fresh instances.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache creates an empty resolution cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Get returns the cached value for key. ok reports whether the key was ever populated.
func (c *Cache) Get(key string) (value string, found bool, ok bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e.value, e.found, ok
}

// peek reads a slot without touching the hit/miss counters
func (c *Cache) peek(key string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put stores a resolved value, or a not-found marker when found is false
func (c *Cache) Put(key, value string, found bool) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, found: found}
	c.mu.Unlock()
}

// Len returns the number of populated keys
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
