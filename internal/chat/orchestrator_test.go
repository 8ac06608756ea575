package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/empathai/chat-service/internal/conversation"
	"github.com/empathai/chat-service/internal/memory"
	"github.com/empathai/chat-service/internal/model"
	"github.com/empathai/chat-service/internal/persona"
	"github.com/empathai/chat-service/internal/plugin/store/gormstore"
	"github.com/empathai/chat-service/internal/prompt"
	registrygenerate "github.com/empathai/chat-service/internal/registry/generate"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, req registrygenerate.Request) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *stubGenerator) ModelName() string { return "stub-model" }

func newTestOrchestrator(t *testing.T, gen registrygenerate.Generator, opts Options) (*Orchestrator, *gormstore.Store) {
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
	store := gormstore.New(db, nil)

	retriever := memory.NewRetriever(store, nil, nil, nil, 5, 0.3, 0)
	ledger := conversation.NewLedger(store)
	personas := persona.NewManager(store)
	composer := prompt.NewComposer(prompt.Identity{Name: "Sam", Age: 28, Background: "a designer from Lisbon"})

	return NewOrchestrator(store, retriever, ledger, personas, composer, gen, opts), store
}

func TestHandleTurnRejectsEmptyInput(t *testing.T) {
	o, _ := newTestOrchestrator(t, &stubGenerator{reply: "hi"}, Options{})
	ctx := context.Background()

	var verr *registrystore.ValidationError
	_, err := o.HandleTurn(ctx, "", "hello", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userId", verr.Field)

	_, err = o.HandleTurn(ctx, "alice", "", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message", verr.Field)
}

func TestHandleTurnSuccess(t *testing.T) {
	gen := &stubGenerator{reply: "That sounds wonderful! Tell me more."}
	o, store := newTestOrchestrator(t, gen, Options{})
	ctx := context.Background()

	res, err := o.HandleTurn(ctx, "alice", "I'm so happy about my new garden!", "")
	require.NoError(t, err)

	assert.Equal(t, "That sounds wonderful! Tell me more.", res.ReplyText)
	assert.Equal(t, "alice", res.UserID)
	assert.Equal(t, "joy", res.EmotionDetected)
	assert.Equal(t, "cheerful and enthusiastic", res.Tone)
	assert.Equal(t, "stub-model", res.ModelUsed)
	assert.NotEmpty(t, res.SessionID)
	assert.False(t, res.Timestamp.IsZero())
	assert.Equal(t, 1, gen.calls)

	// Both sides of the exchange are persisted.
	conv, err := store.StartConversation(ctx, "alice", res.SessionID)
	require.NoError(t, err)
	msgs, err := store.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	require.NotNil(t, msgs[0].Sentiment)
	assert.Equal(t, "positive", *msgs[0].Sentiment)
	require.NotNil(t, msgs[0].Emotion)
	assert.Equal(t, "joy", *msgs[0].Emotion)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
}

func TestHandleTurnFallbackOnGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider down")}
	o, store := newTestOrchestrator(t, gen, Options{})
	ctx := context.Background()

	res, err := o.HandleTurn(ctx, "bob", "nice weather today", "")
	require.NoError(t, err)

	assert.Equal(t, FallbackReply, res.ReplyText)
	assert.Equal(t, FallbackModel, res.ModelUsed)

	// The user message is kept, but no assistant message is written for a
	// fallback reply.
	conv, err := store.StartConversation(ctx, "bob", res.SessionID)
	require.NoError(t, err)
	msgs, err := store.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
}

func TestHandleTurnExtractsUserMemories(t *testing.T) {
	gen := &stubGenerator{reply: "Hiking is a great way to unwind."}
	o, store := newTestOrchestrator(t, gen, Options{})
	ctx := context.Background()

	_, err := o.HandleTurn(ctx, "carol", "I love hiking in the mountains", "")
	require.NoError(t, err)

	memories, err := store.ActiveMemories(ctx, "carol", 0)
	require.NoError(t, err)
	require.NotEmpty(t, memories)

	var found bool
	for _, m := range memories {
		if m.Content == "I love hiking in the mountains" {
			found = true
			assert.Equal(t, "preference", m.Category)
			assert.InDelta(t, 0.9, m.Confidence, 0.001)
			assert.InDelta(t, 0.5, m.Importance, 0.001)
		}
	}
	assert.True(t, found, "expected the stated preference to be stored")
}

func TestHandleTurnDiscardsAssistantOnlyCandidates(t *testing.T) {
	// The assistant sentence classifies at 0.5 and is scaled by 0.8, which
	// lands exactly on the 0.4 threshold and is rejected.
	gen := &stubGenerator{reply: "You went to Paris once."}
	o, store := newTestOrchestrator(t, gen, Options{})
	ctx := context.Background()

	_, err := o.HandleTurn(ctx, "dave", "nice weather today", "")
	require.NoError(t, err)

	memories, err := store.ActiveMemories(ctx, "dave", 0)
	require.NoError(t, err)
	assert.Empty(t, memories)
}

func TestHandleTurnScrubsGeneratedReply(t *testing.T) {
	gen := &stubGenerator{reply: "As an AI, I cannot go outside. A walk by the river sounds nice though!"}
	o, _ := newTestOrchestrator(t, gen, Options{})

	res, err := o.HandleTurn(context.Background(), "erin", "nice weather today", "")
	require.NoError(t, err)
	assert.Equal(t, "A walk by the river sounds nice though!", res.ReplyText)
	assert.Equal(t, "stub-model", res.ModelUsed)
}

func TestHandleTurnFallbackWhenScrubEmptiesReply(t *testing.T) {
	gen := &stubGenerator{reply: "I am an AI assistant. I don't have feelings about that."}
	o, _ := newTestOrchestrator(t, gen, Options{})

	res, err := o.HandleTurn(context.Background(), "frank", "nice weather today", "")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, res.ReplyText)
	assert.Equal(t, FallbackModel, res.ModelUsed)
}

func TestHandleTurnReusesSession(t *testing.T) {
	gen := &stubGenerator{reply: "Good to hear."}
	o, store := newTestOrchestrator(t, gen, Options{})
	ctx := context.Background()

	first, err := o.HandleTurn(ctx, "gina", "nice weather today", "session-1")
	require.NoError(t, err)
	assert.Equal(t, "session-1", first.SessionID)

	second, err := o.HandleTurn(ctx, "gina", "still sunny out there", "session-1")
	require.NoError(t, err)
	assert.Equal(t, "session-1", second.SessionID)

	conv, err := store.StartConversation(ctx, "gina", "session-1")
	require.NoError(t, err)
	msgs, err := store.ListMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
}

func TestHandleTurnUsesStoredMemories(t *testing.T) {
	gen := &stubGenerator{reply: "You should hit the trail this weekend."}
	o, store := newTestOrchestrator(t, gen, Options{})
	ctx := context.Background()

	_, err := store.UpsertMemory(ctx, registrystore.UpsertMemoryRequest{
		UserID:     "holly",
		MemoryType: "preference",
		Content:    "I love hiking in the mountains",
		Confidence: 0.9,
		Importance: 0.8,
	})
	require.NoError(t, err)

	res, err := o.HandleTurn(ctx, "holly", "hiking", "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.MemoriesUsedCount)
}

func TestHandleTurnCreatesPersona(t *testing.T) {
	gen := &stubGenerator{reply: "Good to hear."}
	o, store := newTestOrchestrator(t, gen, Options{})
	ctx := context.Background()

	_, err := o.HandleTurn(ctx, "ivan", "nice weather today", "")
	require.NoError(t, err)

	profile, err := store.GetPersona(ctx, "ivan")
	require.NoError(t, err)
	assert.Equal(t, "ivan", profile.UserID)
	assert.NotEmpty(t, profile.PreferredTone)
}

func TestHandleTurnSummarizesOnWindow(t *testing.T) {
	gen := &stubGenerator{reply: "Good to hear."}
	o, store := newTestOrchestrator(t, gen, Options{SummaryWindowSize: 2})
	ctx := context.Background()

	res, err := o.HandleTurn(ctx, "judy", "nice weather today", "")
	require.NoError(t, err)

	conv, err := store.StartConversation(ctx, "judy", res.SessionID)
	require.NoError(t, err)
	refreshed, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, refreshed.Summary)
	assert.Contains(t, *refreshed.Summary, "Conversation Summary")
}
