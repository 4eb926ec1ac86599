package render

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hanhandi-git/flowchartRenderer/pkg/cache"
	"github.com/hanhandi-git/flowchartRenderer/pkg/observability"
)

// Cached puts a [cache.Cache] in front of a [Renderer] and of [Export].
//
// Cache backend failures are logged and treated as misses, so a broken
// Redis never fails a render.
type Cached struct {
	next   Renderer
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewCached wraps next. A nil keyer uses [cache.NewDefaultKeyer].
func NewCached(next Renderer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cached{next: next, cache: c, keyer: keyer, logger: logger}
}

// Render returns the cached SVG for req or renders and stores it.
func (c *Cached) Render(ctx context.Context, req Request) ([]byte, error) {
	req, err := Normalize(req)
	if err != nil {
		return nil, err
	}
	key := c.keyer.RenderKey(cache.RenderKeyOpts{
		Dialect: string(req.Dialect),
		Theme:   req.Theme,
		Engine:  req.Engine,
		Source:  req.Source,
	})
	return c.through(ctx, "render", key, cache.TTLRender, func() ([]byte, error) {
		return c.next.Render(ctx, req)
	})
}

// Export returns the cached conversion of svg or converts and stores it.
func (c *Cached) Export(ctx context.Context, svg []byte, format Format, scale float64) ([]byte, error) {
	if format == FormatSVG || format == "" {
		return svg, nil
	}
	key := c.keyer.ExportKey(cache.Hash(svg), cache.ExportKeyOpts{Format: string(format), Scale: scale})
	return c.through(ctx, "export", key, cache.TTLExport, func() ([]byte, error) {
		return Export(ctx, svg, format, scale)
	})
}

func (c *Cached) through(ctx context.Context, keyType, key string, ttl time.Duration, produce func() ([]byte, error)) ([]byte, error) {
	hooks := observability.Cache()

	data, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("cache read failed", "type", keyType, "error", err)
	case ok:
		hooks.OnCacheHit(ctx, keyType)
		return data, nil
	}
	hooks.OnCacheMiss(ctx, keyType)

	data, err = produce()
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("cache write failed", "type", keyType, "error", err)
	} else {
		hooks.OnCacheSet(ctx, keyType, len(data))
	}
	return data, nil
}
