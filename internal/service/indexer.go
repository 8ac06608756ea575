package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	registryembed "github.com/empathai/chat-service/internal/registry/embed"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	registryvector "github.com/empathai/chat-service/internal/registry/vector"
)

// BackgroundIndexer polls for unindexed memories, generates embeddings, and
// stores them in the vector backend.
type BackgroundIndexer struct {
	store    registrystore.ChatStore
	embedder registryembed.Embedder
	vector   registryvector.VectorStore
	interval time.Duration
	batch    int
}

// NewBackgroundIndexer creates a new indexer.
func NewBackgroundIndexer(store registrystore.ChatStore, embedder registryembed.Embedder, vector registryvector.VectorStore, batchSize int) *BackgroundIndexer {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &BackgroundIndexer{
		store:    store,
		embedder: embedder,
		vector:   vector,
		interval: 30 * time.Second,
		batch:    batchSize,
	}
}

// Start begins the background indexing loop. Returns when ctx is cancelled.
func (b *BackgroundIndexer) Start(ctx context.Context) {
	if b.embedder == nil || b.vector == nil || !b.vector.IsEnabled() {
		log.Info("Background indexer disabled (no embedder or vector store)")
		return
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.indexBatch(ctx)
		}
	}
}

func (b *BackgroundIndexer) indexBatch(ctx context.Context) {
	memories, err := b.store.FindMemoriesPendingVectorIndexing(ctx, b.batch)
	if err != nil {
		log.Error("Indexer: list unindexed memories failed", "err", err)
		return
	}
	if len(memories) == 0 {
		return
	}

	// Batch embed all memory texts in one request.
	texts := make([]string, len(memories))
	for i, m := range memories {
		texts[i] = m.Content
	}
	embeddings, err := b.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		log.Error("Indexer: batch embed failed", "err", err)
		return
	}

	upserts := make([]registryvector.UpsertRequest, len(memories))
	for i, m := range memories {
		upserts[i] = registryvector.UpsertRequest{
			UserID:    m.UserID,
			MemoryID:  m.ID,
			Embedding: embeddings[i],
			ModelName: b.embedder.ModelName(),
		}
	}
	if err := b.vector.Upsert(ctx, upserts); err != nil {
		log.Error("Indexer: batch vector upsert failed", "err", err)
		return
	}

	now := time.Now()
	count := 0
	for _, m := range memories {
		if err := b.store.SetMemoryIndexedAt(ctx, m.ID, now); err != nil {
			log.Error("Indexer: set indexed_at failed", "memoryId", m.ID, "err", err)
			continue
		}
		count++
	}

	if count > 0 {
		log.Info("Indexer: indexed memories", "count", count)
	}
}
