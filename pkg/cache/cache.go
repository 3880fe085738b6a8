// Package cache stores upstream source responses in Redis between ingestions.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ResponseCache is a best-effort JSON cache keyed by string.
type ResponseCache interface {
	// Get decodes the cached value into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache returns a ResponseCache backed by client, namespacing keys under prefix.
// A nil client yields a cache that always misses.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) ResponseCache {
	if client == nil {
		return NoopCache{}
	}
	return &redisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.Named("cache"),
	}
}

var _ ResponseCache = (*redisCache)(nil)

func (c *redisCache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cached response: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached response: %w", err)
	}

	c.logger.Debug("Cache hit", zap.String("key", c.key(key)))
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}

	c.logger.Debug("Response cached", zap.String("key", c.key(key)), zap.Duration("ttl", c.ttl))
	return nil
}

// NoopCache never stores anything.
type NoopCache struct{}

var _ ResponseCache = NoopCache{}

func (NoopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (NoopCache) Set(context.Context, string, any) error { return nil }
