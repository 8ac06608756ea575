package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
)

// MemorySweeper periodically archives stale low-confidence memories and
// hard-deletes expired ones.
type MemorySweeper struct {
	store    registrystore.ChatStore
	interval time.Duration
	maxAge   time.Duration
}

// NewMemorySweeper creates a sweeper. Non-positive arguments fall back to
// an hourly sweep with a 90-day staleness horizon.
func NewMemorySweeper(store registrystore.ChatStore, interval, maxAge time.Duration) *MemorySweeper {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if maxAge <= 0 {
		maxAge = 90 * 24 * time.Hour
	}
	return &MemorySweeper{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Start begins the periodic sweep loop. Returns when ctx is cancelled.
func (s *MemorySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				log.Error("Sweep failed", "err", err)
			}
		}
	}
}

// RunOnce performs a single sweep and reports what it did.
func (s *MemorySweeper) RunOnce(ctx context.Context) (*registrystore.SweepResult, error) {
	result, err := s.store.SweepMemories(ctx, s.maxAge)
	if err != nil {
		return nil, err
	}
	if result.Archived > 0 || result.Deleted > 0 {
		log.Info("Sweep completed", "archived", result.Archived, "deleted", result.Deleted)
	}
	return result, nil
}
