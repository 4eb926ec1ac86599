// Package cache stores rendered diagrams keyed by their inputs.
//
// Rendering shells out to Graphviz or the Mermaid CLI and can take hundreds
// of milliseconds, while the editor re-renders on every quiet period. A
// [Cache] in front of the renderer turns repeated renders of unchanged text
// into lookups.
//
// # Backends
//
//   - [MemoryCache]: bounded LRU for a single server process
//   - [RedisCache]: shared cache for several server instances
//   - [FileCache]: on-disk cache for the CLI
//   - [NullCache]: disables caching
//
// # Keys
//
// Keys are built by a [Keyer] from every input that affects the output, so
// a changed theme or engine is a different entry:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.RenderKey(cache.RenderKeyOpts{Dialect: "dot", Theme: "dark", Source: src})
package cache

import (
	"context"
	"time"
)

// Default time-to-live values for cached artifacts.
const (
	// TTLRender bounds how long a rendered SVG is kept.
	TTLRender = 24 * time.Hour

	// TTLExport bounds how long a converted PNG or PDF is kept.
	TTLExport = 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
//
// Get reports a miss with ok=false and a nil error. Implementations are safe
// for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache never stores anything. Every Get is a miss.
type NullCache struct{}

// NewNullCache returns a [NullCache].
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }
