// Package gormstore is the shared GORM-backed ChatStore implementation.
// The postgres and sqlite plugins are thin loaders around it; everything
// here must stay portable across both dialects.
package gormstore

import (
	"context"

	registrycache "github.com/empathai/chat-service/internal/registry/cache"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"gorm.io/gorm"
)

// Store implements registrystore.ChatStore on top of a gorm.DB.
type Store struct {
	db *gorm.DB
	// recallCache, when set, is invalidated on every memory write so the
	// no-query retrieval path never serves stale data.
	recallCache registrycache.RecallCache
}

// New creates a Store. cache may be nil.
func New(db *gorm.DB, cache registrycache.RecallCache) *Store {
	return &Store{db: db, recallCache: cache}
}

// DB exposes the underlying gorm handle for plugin loaders (pool tuning).
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) invalidateRecall(ctx context.Context, userID string) {
	if s.recallCache != nil && s.recallCache.Available() {
		_ = s.recallCache.Invalidate(ctx, userID)
	}
}

var _ registrystore.ChatStore = (*Store)(nil)
