// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about conversions, renders, editing sessions, cache
// operations, and served HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so library packages never
// import a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetConvertHooks(&myConvertHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	res := extract(...)
//	observability.Convert().OnExtract(ctx, "dot", len(res.Graph.Nodes), len(res.Graph.Edges), len(res.Diagnostics), time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Convert Hooks
// =============================================================================

// ConvertHooks receives events from the text↔graph converters.
type ConvertHooks interface {
	// OnExtract records a text→graph extraction. Extraction never fails;
	// skipped statements are counted in diagnostics.
	OnExtract(ctx context.Context, dialect string, nodes, edges, diagnostics int, duration time.Duration)

	// OnEmit records a graph→text emission.
	OnEmit(ctx context.Context, dialect string, nodes int, duration time.Duration, err error)

	// OnPanic records a recovered panic inside a codec.
	OnPanic(ctx context.Context, dialect, op string, recovered any)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from renderers and exporters.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, renderer, format string)
	OnRenderComplete(ctx context.Context, renderer, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from editing sessions.
type SessionHooks interface {
	// OnReconcile records a completed reconciliation. direction is
	// "text_to_graph" or "graph_to_text".
	OnReconcile(ctx context.Context, direction string, duration time.Duration)

	// OnSessionOpen and OnSessionClose bracket a live session.
	OnSessionOpen(ctx context.Context, id string)
	OnSessionClose(ctx context.Context, id string, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming request before it is handled.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, path string, statusCode int, written int64, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopConvertHooks is a no-op implementation of ConvertHooks.
type NoopConvertHooks struct{}

func (NoopConvertHooks) OnExtract(context.Context, string, int, int, int, time.Duration) {}
func (NoopConvertHooks) OnEmit(context.Context, string, int, time.Duration, error)       {}
func (NoopConvertHooks) OnPanic(context.Context, string, string, any)                   {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string, string) {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, string, int, time.Duration, error) {
}

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnReconcile(context.Context, string, time.Duration)     {}
func (NoopSessionHooks) OnSessionOpen(context.Context, string)                  {}
func (NoopSessionHooks) OnSessionClose(context.Context, string, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                             {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, int64, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	convertHooks ConvertHooks = NoopConvertHooks{}
	renderHooks  RenderHooks  = NoopRenderHooks{}
	sessionHooks SessionHooks = NoopSessionHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetConvertHooks registers custom converter hooks.
// This should be called once at application startup before any conversions.
func SetConvertHooks(h ConvertHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		convertHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetSessionHooks registers custom session hooks.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Convert returns the registered converter hooks.
func Convert() ConvertHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return convertHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	convertHooks = NoopConvertHooks{}
	renderHooks = NoopRenderHooks{}
	sessionHooks = NoopSessionHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
