// Package cache stores recent comparison results so repeated queries can
// skip the sites.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// Cache is a TTL store for comparison results. Get returns
// types.ErrCacheMiss when the key is absent or expired.
type Cache interface {
	Get(ctx context.Context, key string) (*types.ComparisonResult, error)
	Set(ctx context.Context, key string, result *types.ComparisonResult, ttl time.Duration) error
	Close() error
}

// Key builds the cache key for a query. Case and spacing of the product
// name are ignored. The reference price, the site set and the per-site
// limit all change the result, so each is part of the key.
func Key(query string, referencePrice *float64, sites []string, limit int) string {
	var b strings.Builder
	b.WriteString("pricegoat:")
	b.WriteString(strings.Join(strings.Fields(strings.ToLower(query)), " "))
	b.WriteString("|ref=")
	if referencePrice != nil {
		b.WriteString(strconv.FormatFloat(*referencePrice, 'f', -1, 64))
	}
	b.WriteString("|sites=")
	b.WriteString(strings.Join(sites, ","))
	b.WriteString("|limit=")
	b.WriteString(strconv.Itoa(limit))
	return b.String()
}

// New creates the cache selected by cfg.Type. It returns nil for "none".
func New(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(), nil
	case "redis":
		c, err := NewRedisCache(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %q", cfg.Type)
	}
}

// Through returns the result cached under key, or runs compute and caches
// its result when the analysis succeeded. hit reports whether compute was
// skipped. A nil Cache always computes. Cache errors are logged and never
// fail the call.
func Through(ctx context.Context, c Cache, key string, ttl time.Duration, logger *slog.Logger, compute func() *types.ComparisonResult) (result *types.ComparisonResult, hit bool) {
	if c == nil {
		return compute(), false
	}

	res, err := c.Get(ctx, key)
	switch {
	case err == nil:
		logger.Debug("served from cache", "key", key)
		return res, true
	case !errors.Is(err, types.ErrCacheMiss):
		logger.Warn("cache read failed", "key", key, "error", err)
	}

	res = compute()
	if res != nil && res.Analysis.IsSuccess() {
		if err := c.Set(ctx, key, res, ttl); err != nil {
			logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return res, false
}
