package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IshaanNene/PriceGoat/internal/types"
)

// RedisCache stores results as JSON strings in Redis.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisCache connects to the Redis server at rawURL
// (redis://[:password@]host:port/db) and checks it with PING.
func NewRedisCache(ctx context.Context, rawURL string, logger *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger = logger.With("component", "redis_cache")
	logger.Info("redis cache connected", "addr", opts.Addr, "db", opts.DB)

	return &RedisCache{client: client, logger: logger}, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*types.ComparisonResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, types.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var res types.ComparisonResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		return nil, types.ErrCacheMiss
	}
	return &res, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, result *types.ComparisonResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
