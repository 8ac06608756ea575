package memory

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/empathai/chat-service/internal/model"
	registrycache "github.com/empathai/chat-service/internal/registry/cache"
	registryembed "github.com/empathai/chat-service/internal/registry/embed"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	registryvector "github.com/empathai/chat-service/internal/registry/vector"
	"github.com/empathai/chat-service/internal/security"
	"github.com/google/uuid"
)

// Retriever selects the top-K relevant memories for a user. With a query it
// prefers semantic similarity, falling back to substring search; without one
// it returns the importance/recency ranking, optionally served from the
// recall cache.
type Retriever struct {
	store         registrystore.ChatStore
	embedder      registryembed.Embedder
	vector        registryvector.VectorStore
	cache         registrycache.RecallCache
	limit         int
	minConfidence float64
	cacheTTL      time.Duration
}

// NewRetriever creates a retriever. embedder, vector, and cache may be nil;
// the corresponding paths are skipped.
func NewRetriever(store registrystore.ChatStore, embedder registryembed.Embedder, vector registryvector.VectorStore, cache registrycache.RecallCache, limit int, minConfidence float64, cacheTTL time.Duration) *Retriever {
	if limit <= 0 {
		limit = 5
	}
	if minConfidence <= 0 {
		minConfidence = 0.3
	}
	return &Retriever{
		store:         store,
		embedder:      embedder,
		vector:        vector,
		cache:         cache,
		limit:         limit,
		minConfidence: minConfidence,
		cacheTTL:      cacheTTL,
	}
}

// Relevant returns up to the configured limit of memories for the user.
// Every returned record's access count and last-accessed timestamp are
// incremented as a side effect of the read.
func (r *Retriever) Relevant(ctx context.Context, userID string, query string) ([]model.Memory, error) {
	if query == "" {
		return r.recall(ctx, userID)
	}

	if r.embedder != nil && r.vector != nil && r.vector.IsEnabled() {
		memories, err := r.semantic(ctx, userID, query)
		if err != nil {
			// Semantic failures degrade to the keyword path on purpose; the
			// turn must not fail because the vector backend is unhealthy.
			log.Warn("Semantic retrieval failed, falling back to keyword search", "userId", userID, "err", err)
		} else if len(memories) > 0 {
			return r.touch(ctx, memories)
		}
	}

	memories, err := r.store.SearchMemories(ctx, userID, query, r.minConfidence, r.limit)
	if err != nil {
		return nil, err
	}
	return r.touch(ctx, memories)
}

func (r *Retriever) semantic(ctx context.Context, userID string, query string) ([]model.Memory, error) {
	embeddings, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	results, err := r.vector.Search(ctx, embeddings[0], userID, r.limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(results))
	for i, res := range results {
		ids[i] = res.MemoryID
	}
	memories, err := r.store.MemoriesByID(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	// Preserve similarity order and drop below-threshold records.
	byID := make(map[uuid.UUID]model.Memory, len(memories))
	for _, m := range memories {
		byID[m.ID] = m
	}
	ordered := make([]model.Memory, 0, len(results))
	for _, res := range results {
		m, ok := byID[res.MemoryID]
		if !ok || m.Confidence < r.minConfidence {
			continue
		}
		ordered = append(ordered, m)
		if len(ordered) == r.limit {
			break
		}
	}
	return ordered, nil
}

func (r *Retriever) recall(ctx context.Context, userID string) ([]model.Memory, error) {
	if r.cache != nil && r.cache.Available() {
		cached, err := r.cache.Get(ctx, userID)
		if err != nil {
			log.Warn("Recall cache read failed", "userId", userID, "err", err)
		} else if cached != nil {
			if security.CacheHitsTotal != nil {
				security.CacheHitsTotal.Inc()
			}
			return r.touch(ctx, cached.Memories)
		}
		if security.CacheMissesTotal != nil {
			security.CacheMissesTotal.Inc()
		}
	}

	memories, err := r.store.RankedMemories(ctx, userID, r.minConfidence, r.limit)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && r.cache.Available() {
		if err := r.cache.Set(ctx, userID, registrycache.CachedRecall{Memories: memories}, r.cacheTTL); err != nil {
			log.Warn("Recall cache write failed", "userId", userID, "err", err)
		}
	}
	return r.touch(ctx, memories)
}

func (r *Retriever) touch(ctx context.Context, memories []model.Memory) ([]model.Memory, error) {
	if len(memories) == 0 {
		return memories, nil
	}
	ids := make([]uuid.UUID, len(memories))
	for i, m := range memories {
		ids[i] = m.ID
	}
	if err := r.store.TouchMemories(ctx, ids); err != nil {
		log.Warn("Failed to update memory access counts", "err", err)
	}
	return memories, nil
}
