package fetch

import (
	"sync"
	"time"
)

const (
	// maxCacheEntries bounds memory use; the oldest entry is evicted when
	// the cache is full.
	maxCacheEntries = 100

	cleanupInterval = 30 * time.Minute
)

type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

type cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	defaultTTL time.Duration
}

func newCache(defaultTTL time.Duration) *cache {
	c := &cache{
		entries:    make(map[string]cacheEntry),
		defaultTTL: defaultTTL,
	}
	go c.janitor()
	return c
}

func (c *cache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.body, true
}

func (c *cache) set(key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= maxCacheEntries {
		c.evictOldestLocked()
	}

	c.entries[key] = cacheEntry{
		body:      body,
		expiresAt: time.Now().Add(ttl),
	}
}

func (c *cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = entry.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *cache) janitor() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}
