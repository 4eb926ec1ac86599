package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis so that several server instances share
// rendered artifacts.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at url
// (redis://[user:password@]host:port/db) and verifies the connection.
// Connection failures are retried with backoff.
func NewRedisCache(ctx context.Context, url string) (Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	err = DefaultBackoff.Do(ctx, func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%w: ping: %v", ErrBackend, err)
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) Cache {
	return &RedisCache{client: client}
}

// Get retrieves a value from the cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get: %v", ErrBackend, err)
	}
	return data, true, nil
}

// Set stores a value. A ttl <= 0 never expires.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set: %v", ErrBackend, err)
	}
	return nil
}

// Delete removes a value from the cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrBackend, err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
