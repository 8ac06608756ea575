package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/empathai/chat-service/internal/model"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Message{},
		&model.Memory{},
		&model.PersonaProfile{},
	))
	return New(db, nil)
}

func TestGetOrCreateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u1, err := s.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	u2, err := s.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)

	_, err = s.GetOrCreateUser(ctx, "")
	var ve *registrystore.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestTouchUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, s.TouchUser(ctx, "alice", 2))
	require.NoError(t, s.TouchUser(ctx, "alice", 2))

	u, err := s.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, u.TotalMessages)
	assert.NotNil(t, u.LastSeen)
}

func TestStartConversationReusesOpenSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c1, err := s.StartConversation(ctx, "alice", "sess-1")
	require.NoError(t, err)
	c2, err := s.StartConversation(ctx, "alice", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID, "open conversation with the same session id must be reused")

	summary := "short chat"
	require.NoError(t, s.EndConversation(ctx, c1.ID, &summary))

	c3, err := s.StartConversation(ctx, "alice", "sess-1")
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c3.ID, "ended conversation must not be reused")
}

func TestStartConversationGeneratesSessionID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.StartConversation(ctx, "alice", "")
	require.NoError(t, err)
	assert.NotEmpty(t, c.SessionID)
}

func TestAppendAndListMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.StartConversation(ctx, "alice", "sess-1")
	require.NoError(t, err)

	for i, content := range []string{"hello", "hi there", "how are you"} {
		role := model.RoleUser
		if i == 1 {
			role = model.RoleAssistant
		}
		require.NoError(t, s.AppendMessage(ctx, &model.Message{
			ConversationID: conv.ID,
			Role:           role,
			Content:        content,
			CreatedAt:      time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		}))
	}

	msgs, err := s.ListMessages(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[0].Content, "messages must be chronological")
	assert.Equal(t, "how are you", msgs[2].Content)

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MessageCount)

	// limit keeps the most recent messages, still chronological
	tail, err := s.ListMessages(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "hi there", tail[0].Content)
	assert.Equal(t, "how are you", tail[1].Content)
}

func TestUpsertMemoryDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m1, err := s.UpsertMemory(ctx, registrystore.UpsertMemoryRequest{
		UserID:     "alice",
		MemoryType: "preference",
		Content:    "I love hiking",
		Confidence: 0.6,
		Importance: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m1.AccessCount)
	assert.Equal(t, "preference", m1.Category)

	// Same content modulo case and whitespace merges into the same row.
	m2, err := s.UpsertMemory(ctx, registrystore.UpsertMemoryRequest{
		UserID:     "alice",
		MemoryType: "preference",
		Content:    "  i LOVE hiking ",
		Confidence: 0.9,
		Importance: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)
	assert.Equal(t, 2, m2.AccessCount)
	assert.Equal(t, 0.9, m2.Confidence, "merge keeps the max confidence")
	assert.Equal(t, 0.5, m2.Importance, "merge keeps the max importance")

	all, err := s.ActiveMemories(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertMemoryDerivesCategoryAndExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.UpsertMemory(ctx, registrystore.UpsertMemoryRequest{
		UserID:     "alice",
		MemoryType: "auto",
		Content:    "I want to learn the piano",
		Confidence: 0.9,
		Importance: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "goal", m.Category)
	require.NotNil(t, m.ExpiresAt)
	days := time.Until(*m.ExpiresAt).Hours() / 24
	assert.InDelta(t, 90, days, 1, "goals expire after 90 days")
}

func TestRankedMemoriesOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := []registrystore.UpsertMemoryRequest{
		{UserID: "alice", MemoryType: "fact", Content: "low importance", Confidence: 0.95, Importance: 0.2},
		{UserID: "alice", MemoryType: "fact", Content: "high importance", Confidence: 0.5, Importance: 0.9},
		{UserID: "alice", MemoryType: "fact", Content: "below threshold", Confidence: 0.2, Importance: 1.0},
	}
	for _, req := range seed {
		_, err := s.UpsertMemory(ctx, req)
		require.NoError(t, err)
	}

	got, err := s.RankedMemories(ctx, "alice", 0.3, 10)
	require.NoError(t, err)
	require.Len(t, got, 2, "low-confidence rows are filtered")
	assert.Equal(t, "high importance", got[0].Content)
	assert.Equal(t, "low importance", got[1].Content)
}

func TestSearchMemories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, req := range []registrystore.UpsertMemoryRequest{
		{UserID: "alice", MemoryType: "preference", Content: "I love hiking in the mountains", Confidence: 0.9, Importance: 0.5},
		{UserID: "alice", MemoryType: "fact", Content: "I work as a chef", Confidence: 0.9, Importance: 0.5},
		{UserID: "bob", MemoryType: "preference", Content: "hiking is great", Confidence: 0.9, Importance: 0.5},
	} {
		_, err := s.UpsertMemory(ctx, req)
		require.NoError(t, err)
	}

	got, err := s.SearchMemories(ctx, "alice", "HIKING", 0.3, 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "search is per-user and case-insensitive")
	assert.Contains(t, got[0].Content, "hiking")

	byType, err := s.SearchMemories(ctx, "alice", "preference", 0.3, 10)
	require.NoError(t, err)
	assert.Len(t, byType, 1, "type and category are searchable too")
}

func TestTouchMemories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.UpsertMemory(ctx, registrystore.UpsertMemoryRequest{
		UserID: "alice", MemoryType: "fact", Content: "I live in Lisbon", Confidence: 0.9, Importance: 0.5,
	})
	require.NoError(t, err)

	require.NoError(t, s.TouchMemories(ctx, []uuid.UUID{m.ID}))

	got, err := s.GetMemory(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AccessCount)
	assert.NotNil(t, got.LastAccessedAt)
}

func TestDeactivateMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.UpsertMemory(ctx, registrystore.UpsertMemoryRequest{
		UserID: "alice", MemoryType: "fact", Content: "I live in Lisbon", Confidence: 0.9, Importance: 0.5,
	})
	require.NoError(t, err)
	require.NoError(t, s.DeactivateMemory(ctx, m.ID))

	active, err := s.ActiveMemories(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, active)

	err = s.DeactivateMemory(ctx, uuid.New())
	var nfe *registrystore.NotFoundError
	assert.ErrorAs(t, err, &nfe)
}

func TestSweepMemories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := now.AddDate(0, 0, -120)
	past := now.Add(-time.Hour)
	future := now.AddDate(0, 0, 30)

	rows := []model.Memory{
		{ID: uuid.New(), UserID: "alice", MemoryType: "fact", Category: "fact",
			Content: "stale guess", ContentHash: model.HashContent("alice", "stale guess"),
			Confidence: 0.2, Importance: 0.1, AccessCount: 1, IsActive: true,
			ExpiresAt: &future, CreatedAt: old, UpdatedAt: old},
		{ID: uuid.New(), UserID: "alice", MemoryType: "emotion", Category: "emotion",
			Content: "felt sad", ContentHash: model.HashContent("alice", "felt sad"),
			Confidence: 0.9, Importance: 0.5, AccessCount: 1, IsActive: true,
			ExpiresAt: &past, CreatedAt: old, UpdatedAt: old},
		{ID: uuid.New(), UserID: "alice", MemoryType: "fact", Category: "fact",
			Content: "keep me", ContentHash: model.HashContent("alice", "keep me"),
			Confidence: 0.9, Importance: 0.5, AccessCount: 1, IsActive: true,
			ExpiresAt: &future, CreatedAt: now, UpdatedAt: now},
	}
	for i := range rows {
		require.NoError(t, s.db.Create(&rows[i]).Error)
	}

	result, err := s.SweepMemories(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Archived)
	assert.Equal(t, int64(1), result.Deleted)

	active, err := s.ActiveMemories(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "keep me", active[0].Content)
}

func TestVectorIndexBookkeeping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m, err := s.UpsertMemory(ctx, registrystore.UpsertMemoryRequest{
		UserID: "alice", MemoryType: "fact", Content: "I play the guitar", Confidence: 0.9, Importance: 0.5,
	})
	require.NoError(t, err)

	pending, err := s.FindMemoriesPendingVectorIndexing(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, m.ID, pending[0].ID)

	require.NoError(t, s.SetMemoryIndexedAt(ctx, m.ID, time.Now().UTC()))

	pending, err = s.FindMemoriesPendingVectorIndexing(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGetOrCreatePersonaSeedsFromSystemDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sys := model.DefaultPersona(model.SystemDefaultUserID)
	sys.PreferredTone = "warm"
	sys.TrustLevel = 60
	require.NoError(t, s.db.Create(&sys).Error)

	p, err := s.GetOrCreatePersona(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
	assert.Equal(t, "warm", p.PreferredTone, "new personas copy the system default")
	assert.Equal(t, 60, p.TrustLevel)

	again, err := s.GetOrCreatePersona(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, p.UserID, again.UserID)
}

func TestGetOrCreatePersonaHardDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.GetOrCreatePersona(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "friendly", p.PreferredTone)
	assert.Equal(t, 50, p.TrustLevel)
}

func TestSavePersona(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.GetOrCreatePersona(ctx, "alice")
	require.NoError(t, err)
	p.PreferredTone = "casual"
	p.TrustLevel = 70
	require.NoError(t, s.SavePersona(ctx, p))

	got, err := s.GetPersona(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "casual", got.PreferredTone)
	assert.Equal(t, 70, got.TrustLevel)
}

func TestStatsAndResetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	conv, err := s.StartConversation(ctx, "alice", "sess-1")
	require.NoError(t, err)
	require.NoError(t, s.AppendMessage(ctx, &model.Message{
		ConversationID: conv.ID, Role: model.RoleUser, Content: "hello",
	}))
	_, err = s.UpsertMemory(ctx, registrystore.UpsertMemoryRequest{
		UserID: "alice", MemoryType: "fact", Content: "I live in Lisbon", Confidence: 0.9, Importance: 0.5,
	})
	require.NoError(t, err)
	_, err = s.GetOrCreatePersona(ctx, "alice")
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Conversations)
	assert.Equal(t, int64(1), stats.Messages)
	assert.Equal(t, int64(1), stats.Memories)

	require.NoError(t, s.ResetUser(ctx, "alice"))

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Users)
	assert.Zero(t, stats.Conversations)
	assert.Zero(t, stats.Messages)
	assert.Zero(t, stats.Memories)
}
