package config

import (
	"context"

	"github.com/hanhandi-git/flowchartRenderer/pkg/cache"
)

// OpenCache creates the render cache selected by c.Cache. dir is used by
// the file backend.
func (c Config) OpenCache(ctx context.Context, dir string) (cache.Cache, error) {
	switch c.Cache {
	case CacheRedis:
		return cache.NewRedisCache(ctx, c.RedisURL)
	case CacheFile:
		return cache.NewFileCache(dir)
	case CacheNone:
		return cache.NewNullCache(), nil
	default:
		return cache.NewMemoryCache(c.CacheEntries)
	}
}
