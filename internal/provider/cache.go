package provider

import (
	"sync"
	"time"
)

type cacheKey struct {
	provider string
	chain    string
	address  string
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Cache is a small time-bounded response cache shared by all provider
// clients in the process. Entries are evicted lazily on lookup and in
// bulk via Sweep. Safe for concurrent use by tracker workers.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[cacheKey]cacheEntry

	now func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[cacheKey]cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Get(provider, chain, address string) (any, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	key := cacheKey{provider: provider, chain: chain, address: address}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *Cache) Set(provider, chain, address string, value any) {
	if c == nil || c.ttl <= 0 {
		return
	}
	key := cacheKey{provider: provider, chain: chain, address: address}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Sweep drops every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
