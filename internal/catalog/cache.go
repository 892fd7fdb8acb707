package catalog

import (
	"sync"
	"time"

	"bazaarscan/internal/fingerprint"
)

// Cache stores reference fingerprints between requests. Implementations must
// be safe for concurrent use; concurrent Sets of one key may race and the last
// writer wins.
type Cache interface {
	Get(key string) (fingerprint.Fingerprint, bool)
	Set(key string, fp fingerprint.Fingerprint)
	// Expire drops stale entries and returns how many were removed.
	Expire() int
}

type memoryEntry struct {
	fp      fingerprint.Fingerprint
	expires time.Time
}

// MemoryCache is an in-process Cache with a fixed TTL.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryCache returns an empty cache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements Cache.
func (c *MemoryCache) Get(key string) (fingerprint.Fingerprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expires) {
		return fingerprint.Fingerprint{}, false
	}
	return entry.fp, true
}

// Set implements Cache.
func (c *MemoryCache) Set(key string, fp fingerprint.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{fp: fp, expires: c.now().Add(c.ttl)}
}

// Expire implements Cache.
func (c *MemoryCache) Expire() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including stale ones.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
