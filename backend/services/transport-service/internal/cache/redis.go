// Package cache keeps query results in Redis between ingestion runs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"transporte/backend/services/transport-service/internal/metrics"
)

const (
	defaultPrefix = "transporte:"
	generationKey = "generation"
)

// RedisCache stores JSON values under a service prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache returns redis-backed cache.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{
		client: client,
		prefix: defaultPrefix,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "redis_cache")),
	}
}

func (c *RedisCache) key(gen int64, k string) string {
	return fmt.Sprintf("%sv%d:%s", c.prefix, gen, k)
}

// Generation returns the current cache generation. Values are stored and
// read under the generation a caller observed before touching storage.
func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.prefix+generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetJSON decodes the value cached for gen into dest. It reports false on a miss.
func (c *RedisCache) GetJSON(ctx context.Context, gen int64, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.key(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheRequests.WithLabelValues(family(key), "miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.CacheRequests.WithLabelValues(family(key), "error").Inc()
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		metrics.CacheRequests.WithLabelValues(family(key), "error").Inc()
		return false, fmt.Errorf("json unmarshal: %w", err)
	}
	metrics.CacheRequests.WithLabelValues(family(key), "hit").Inc()
	return true, nil
}

// SetJSON caches value under gen for the configured TTL.
func (c *RedisCache) SetJSON(ctx context.Context, gen int64, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := c.client.Set(ctx, c.key(gen, key), data, c.ttl).Err(); err != nil {
		return err
	}
	c.logger.Debug("cache set", zap.String("key", key), zap.Int64("generation", gen), zap.Int("size_bytes", len(data)))
	return nil
}

// Invalidate moves the cache to a new generation. Values of older
// generations, including ones written by queries still in flight, are never
// read again and expire with their TTL.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, c.prefix+generationKey).Result()
	if err != nil {
		return err
	}
	c.logger.Info("cache invalidated", zap.Int64("generation", gen))
	return nil
}

// family keeps the metric label set bounded.
func family(key string) string {
	prefix, _, _ := strings.Cut(key, ":")
	return prefix
}
