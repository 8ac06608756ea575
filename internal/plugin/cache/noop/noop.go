package noop

import (
	"context"
	"time"

	"github.com/empathai/chat-service/internal/registry/cache"
)

func init() {
	cache.Register(cache.Plugin{
		Name: "none",
		Loader: func(ctx context.Context) (cache.RecallCache, error) {
			return &noopRecallCache{}, nil
		},
	})
}

type noopRecallCache struct{}

func (n *noopRecallCache) Available() bool { return false }
func (n *noopRecallCache) Get(_ context.Context, _ string) (*cache.CachedRecall, error) {
	return nil, nil
}
func (n *noopRecallCache) Set(_ context.Context, _ string, _ cache.CachedRecall, _ time.Duration) error {
	return nil
}
func (n *noopRecallCache) Invalidate(_ context.Context, _ string) error { return nil }

var _ cache.RecallCache = (*noopRecallCache)(nil)
