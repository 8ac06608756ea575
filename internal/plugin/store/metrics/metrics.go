package metrics

import (
	"context"
	"time"

	"github.com/empathai/chat-service/internal/model"
	"github.com/empathai/chat-service/internal/registry/store"
	"github.com/empathai/chat-service/internal/security"
	"github.com/google/uuid"
)

// Wrap returns a ChatStore that records StoreLatency for every operation.
func Wrap(inner store.ChatStore) store.ChatStore {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.ChatStore
}

func observe(op string, start time.Time) {
	// Nil until InitMetrics runs; the wrapper stays usable either way.
	if security.StoreLatency == nil {
		return
	}
	security.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsStore) GetOrCreateUser(ctx context.Context, userID string) (*model.User, error) {
	defer observe("get_or_create_user", time.Now())
	return m.inner.GetOrCreateUser(ctx, userID)
}

func (m *metricsStore) TouchUser(ctx context.Context, userID string, messageDelta int) error {
	defer observe("touch_user", time.Now())
	return m.inner.TouchUser(ctx, userID, messageDelta)
}

func (m *metricsStore) StartConversation(ctx context.Context, userID string, sessionID string) (*model.Conversation, error) {
	defer observe("start_conversation", time.Now())
	return m.inner.StartConversation(ctx, userID, sessionID)
}

func (m *metricsStore) GetConversation(ctx context.Context, conversationID uuid.UUID) (*model.Conversation, error) {
	defer observe("get_conversation", time.Now())
	return m.inner.GetConversation(ctx, conversationID)
}

func (m *metricsStore) EndConversation(ctx context.Context, conversationID uuid.UUID, summary *string) error {
	defer observe("end_conversation", time.Now())
	return m.inner.EndConversation(ctx, conversationID, summary)
}

func (m *metricsStore) ListConversations(ctx context.Context, userID string, limit int) ([]model.Conversation, error) {
	defer observe("list_conversations", time.Now())
	return m.inner.ListConversations(ctx, userID, limit)
}

func (m *metricsStore) SetConversationSummary(ctx context.Context, conversationID uuid.UUID, summary string) error {
	defer observe("set_conversation_summary", time.Now())
	return m.inner.SetConversationSummary(ctx, conversationID, summary)
}

func (m *metricsStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	defer observe("append_message", time.Now())
	return m.inner.AppendMessage(ctx, msg)
}

func (m *metricsStore) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error) {
	defer observe("list_messages", time.Now())
	return m.inner.ListMessages(ctx, conversationID, limit)
}

func (m *metricsStore) FirstMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error) {
	defer observe("first_messages", time.Now())
	return m.inner.FirstMessages(ctx, conversationID, limit)
}

func (m *metricsStore) UpsertMemory(ctx context.Context, req store.UpsertMemoryRequest) (*model.Memory, error) {
	defer observe("upsert_memory", time.Now())
	return m.inner.UpsertMemory(ctx, req)
}

func (m *metricsStore) GetMemory(ctx context.Context, memoryID uuid.UUID) (*model.Memory, error) {
	defer observe("get_memory", time.Now())
	return m.inner.GetMemory(ctx, memoryID)
}

func (m *metricsStore) ActiveMemories(ctx context.Context, userID string, limit int) ([]model.Memory, error) {
	defer observe("active_memories", time.Now())
	return m.inner.ActiveMemories(ctx, userID, limit)
}

func (m *metricsStore) RankedMemories(ctx context.Context, userID string, minConfidence float64, limit int) ([]model.Memory, error) {
	defer observe("ranked_memories", time.Now())
	return m.inner.RankedMemories(ctx, userID, minConfidence, limit)
}

func (m *metricsStore) SearchMemories(ctx context.Context, userID string, query string, minConfidence float64, limit int) ([]model.Memory, error) {
	defer observe("search_memories", time.Now())
	return m.inner.SearchMemories(ctx, userID, query, minConfidence, limit)
}

func (m *metricsStore) MemoriesByID(ctx context.Context, userID string, ids []uuid.UUID) ([]model.Memory, error) {
	defer observe("memories_by_id", time.Now())
	return m.inner.MemoriesByID(ctx, userID, ids)
}

func (m *metricsStore) TouchMemories(ctx context.Context, ids []uuid.UUID) error {
	defer observe("touch_memories", time.Now())
	return m.inner.TouchMemories(ctx, ids)
}

func (m *metricsStore) DeactivateMemory(ctx context.Context, memoryID uuid.UUID) error {
	defer observe("deactivate_memory", time.Now())
	return m.inner.DeactivateMemory(ctx, memoryID)
}

func (m *metricsStore) SweepMemories(ctx context.Context, maxAge time.Duration) (*store.SweepResult, error) {
	defer observe("sweep_memories", time.Now())
	return m.inner.SweepMemories(ctx, maxAge)
}

func (m *metricsStore) FindMemoriesPendingVectorIndexing(ctx context.Context, limit int) ([]model.Memory, error) {
	defer observe("find_memories_pending_vector_indexing", time.Now())
	return m.inner.FindMemoriesPendingVectorIndexing(ctx, limit)
}

func (m *metricsStore) SetMemoryIndexedAt(ctx context.Context, memoryID uuid.UUID, indexedAt time.Time) error {
	defer observe("set_memory_indexed_at", time.Now())
	return m.inner.SetMemoryIndexedAt(ctx, memoryID, indexedAt)
}

func (m *metricsStore) GetPersona(ctx context.Context, userID string) (*model.PersonaProfile, error) {
	defer observe("get_persona", time.Now())
	return m.inner.GetPersona(ctx, userID)
}

func (m *metricsStore) GetOrCreatePersona(ctx context.Context, userID string) (*model.PersonaProfile, error) {
	defer observe("get_or_create_persona", time.Now())
	return m.inner.GetOrCreatePersona(ctx, userID)
}

func (m *metricsStore) SavePersona(ctx context.Context, profile *model.PersonaProfile) error {
	defer observe("save_persona", time.Now())
	return m.inner.SavePersona(ctx, profile)
}

func (m *metricsStore) Stats(ctx context.Context) (*store.Stats, error) {
	defer observe("stats", time.Now())
	return m.inner.Stats(ctx)
}

func (m *metricsStore) ResetUser(ctx context.Context, userID string) error {
	defer observe("reset_user", time.Now())
	return m.inner.ResetUser(ctx, userID)
}
