// Package lru is the in-process recall cache backend. Strictly bounded:
// entries are evicted by capacity (LRU) and by a cache-wide TTL, so a
// single instance never grows without limit. Multi-replica deployments
// should use the redis backend instead.
package lru

import (
	"context"
	"time"

	"github.com/empathai/chat-service/internal/config"
	registrycache "github.com/empathai/chat-service/internal/registry/cache"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultSize = 1024
	defaultTTL  = 5 * time.Minute
)

func init() {
	registrycache.Register(registrycache.Plugin{
		Name: "lru",
		Loader: func(ctx context.Context) (registrycache.RecallCache, error) {
			size := defaultSize
			ttl := defaultTTL
			if cfg := config.FromContext(ctx); cfg != nil {
				if cfg.RecallCacheSize > 0 {
					size = cfg.RecallCacheSize
				}
				if cfg.RecallCacheTTL > 0 {
					ttl = cfg.RecallCacheTTL
				}
			}
			return New(size, ttl), nil
		},
	})
}

// New creates an LRU recall cache with the given capacity and TTL.
func New(size int, ttl time.Duration) registrycache.RecallCache {
	return &lruRecallCache{
		entries: expirable.NewLRU[string, registrycache.CachedRecall](size, nil, ttl),
	}
}

type lruRecallCache struct {
	entries *expirable.LRU[string, registrycache.CachedRecall]
}

func (c *lruRecallCache) Available() bool { return true }

func (c *lruRecallCache) Get(_ context.Context, userID string) (*registrycache.CachedRecall, error) {
	cached, ok := c.entries.Get(userID)
	if !ok {
		return nil, nil
	}
	return &cached, nil
}

// Set stores the recall result. The TTL argument is ignored: expirable.LRU
// uses a single cache-wide TTL fixed at construction.
func (c *lruRecallCache) Set(_ context.Context, userID string, recall registrycache.CachedRecall, _ time.Duration) error {
	c.entries.Add(userID, recall)
	return nil
}

func (c *lruRecallCache) Invalidate(_ context.Context, userID string) error {
	c.entries.Remove(userID)
	return nil
}

var _ registrycache.RecallCache = (*lruRecallCache)(nil)
