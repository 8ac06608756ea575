package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/empathai/chat-service/internal/model"
)

type recallCacheKey struct{}

// WithRecallCacheContext returns a new context carrying the given RecallCache.
func WithRecallCacheContext(ctx context.Context, c RecallCache) context.Context {
	return context.WithValue(ctx, recallCacheKey{}, c)
}

// RecallCacheFromContext retrieves the RecallCache from the context.
// Returns nil if none was set.
func RecallCacheFromContext(ctx context.Context) RecallCache {
	c, _ := ctx.Value(recallCacheKey{}).(RecallCache)
	return c
}

// CachedRecall holds the cached no-query recall result for a user.
type CachedRecall struct {
	Memories []model.Memory `json:"memories"`
}

// RecallCache caches no-query memory recall results keyed by user id.
// Implementations must be bounded (strict LRU or TTL) and support explicit
// invalidation, which the store calls on every memory write for the user.
type RecallCache interface {
	Available() bool
	Get(ctx context.Context, userID string) (*CachedRecall, error)
	Set(ctx context.Context, userID string, recall CachedRecall, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}

// Loader creates a cache from config.
type Loader func(ctx context.Context) (RecallCache, error)

// Plugin represents a cache plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a cache plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered cache plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named cache plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown cache %q; valid: %v", name, Names())
}
