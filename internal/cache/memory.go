package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/IshaanNene/PriceGoat/internal/types"
)

// cacheItem holds an encoded result and its expiry.
type cacheItem struct {
	data       []byte
	expiration time.Time
}

// MemoryCache is a thread-safe in-process cache with TTL support. Values are
// stored encoded so callers never share a result with the cache.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a cache and starts its cleanup loop.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		data: make(map[string]cacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go c.cleanupExpired(time.Minute)
	return c
}

// Get retrieves a result from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) (*types.ComparisonResult, error) {
	c.mutex.RLock()
	item, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists || c.now().After(item.expiration) {
		return nil, types.ErrCacheMiss
	}

	var res types.ComparisonResult
	if err := json.Unmarshal(item.data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Set stores a result with the given TTL.
func (c *MemoryCache) Set(ctx context.Context, key string, result *types.ComparisonResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data[key] = cacheItem{data: data, expiration: c.now().Add(ttl)}
	return nil
}

// Size returns the number of stored entries, expired ones included.
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Close stops the cleanup loop.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	now := c.now()
	for key, item := range c.data {
		if now.After(item.expiration) {
			delete(c.data, key)
		}
	}
}
