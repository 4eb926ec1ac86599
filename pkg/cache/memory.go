package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryEntries bounds a [MemoryCache] created with size <= 0.
const DefaultMemoryEntries = 1024

// MaxMemoryTTL is the longest a [MemoryCache] keeps any entry, including
// entries stored with ttl <= 0. Stale entries are purged in the background.
const MaxMemoryTTL = TTLRender

// MemoryCache is an in-process LRU cache. Entries expire after their own
// ttl or [MaxMemoryTTL], whichever comes first.
type MemoryCache struct {
	entries *expirable.LRU[string, memoryEntry]
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates a cache holding at most size entries.
func NewMemoryCache(size int) (Cache, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	return &MemoryCache{
		entries: expirable.NewLRU[string, memoryEntry](size, nil, MaxMemoryTTL),
		now:     time.Now,
	}, nil
}

// Get returns a copy of the entry for key.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.entries.Remove(key)
		return nil, false, nil
	}
	return append([]byte(nil), e.data...), true, nil
}

// Set stores a copy of data. A ttl <= 0 keeps it for [MaxMemoryTTL].
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 && ttl < MaxMemoryTTL {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries.Add(key, e)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Close drops every entry.
func (c *MemoryCache) Close() error {
	c.entries.Purge()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

var _ Cache = (*MemoryCache)(nil)
