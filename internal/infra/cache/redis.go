package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisOpTimeout = 200 * time.Millisecond

// Redis is a JSON-encoded cache stored in Redis. Errors degrade to cache
// misses: the invoice is then looked up upstream again.
type Redis[T any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a Redis cache whose keys are namespaced by prefix.
func NewRedis[T any](client redis.UniversalClient, prefix string, ttl time.Duration, logger *zap.Logger) *Redis[T] {
	return &Redis[T]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns false on a miss, an expired key, or any Redis/decoding error.
func (c *Redis[T]) Get(key string) (T, bool) {
	var zero T
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis cache: get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("redis cache: corrupt entry", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return v, true
}

// Set stores value with the configured TTL. Failures are logged only.
func (c *Redis[T]) Set(key string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis cache: encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache: set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes key.
func (c *Redis[T]) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.Warn("redis cache: delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Ping checks the connection, used by the health endpoint.
func (c *Redis[T]) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
