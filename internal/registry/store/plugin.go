package store

import (
	"context"
	"fmt"
	"time"

	"github.com/empathai/chat-service/internal/model"
	"github.com/google/uuid"
)

// UpsertMemoryRequest is the input for creating-or-merging a memory.
type UpsertMemoryRequest struct {
	UserID string `json:"userId"`
	// MemoryType is the free-form label. When Category is empty the store
	// derives it from the content via the classifier keyword table.
	MemoryType string  `json:"memoryType"`
	Category   string  `json:"category,omitempty"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Importance float64 `json:"importance"`

	SourceConversationID *uuid.UUID             `json:"sourceConversationId,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
}

// SweepResult reports what a maintenance sweep did.
type SweepResult struct {
	Archived int64 `json:"archived"`
	Deleted  int64 `json:"deleted"`
}

// Stats is the admin system-counters snapshot.
type Stats struct {
	Users         int64        `json:"users"`
	Conversations int64        `json:"conversations"`
	Messages      int64        `json:"messages"`
	Memories      int64        `json:"memories"`
	RecentUsers   []model.User `json:"recentUsers"`
}

// ChatStore defines the primary data access interface for the chat service.
type ChatStore interface {
	// Users
	GetOrCreateUser(ctx context.Context, userID string) (*model.User, error)
	TouchUser(ctx context.Context, userID string, messageDelta int) error

	// Conversations
	StartConversation(ctx context.Context, userID string, sessionID string) (*model.Conversation, error)
	GetConversation(ctx context.Context, conversationID uuid.UUID) (*model.Conversation, error)
	EndConversation(ctx context.Context, conversationID uuid.UUID, summary *string) error
	ListConversations(ctx context.Context, userID string, limit int) ([]model.Conversation, error)
	SetConversationSummary(ctx context.Context, conversationID uuid.UUID, summary string) error

	// Messages
	AppendMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error)
	FirstMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error)

	// Memories
	UpsertMemory(ctx context.Context, req UpsertMemoryRequest) (*model.Memory, error)
	GetMemory(ctx context.Context, memoryID uuid.UUID) (*model.Memory, error)
	ActiveMemories(ctx context.Context, userID string, limit int) ([]model.Memory, error)
	RankedMemories(ctx context.Context, userID string, minConfidence float64, limit int) ([]model.Memory, error)
	SearchMemories(ctx context.Context, userID string, query string, minConfidence float64, limit int) ([]model.Memory, error)
	MemoriesByID(ctx context.Context, userID string, ids []uuid.UUID) ([]model.Memory, error)
	TouchMemories(ctx context.Context, ids []uuid.UUID) error
	DeactivateMemory(ctx context.Context, memoryID uuid.UUID) error
	SweepMemories(ctx context.Context, maxAge time.Duration) (*SweepResult, error)

	// Vector index bookkeeping
	FindMemoriesPendingVectorIndexing(ctx context.Context, limit int) ([]model.Memory, error)
	SetMemoryIndexedAt(ctx context.Context, memoryID uuid.UUID, indexedAt time.Time) error

	// Personas
	GetPersona(ctx context.Context, userID string) (*model.PersonaProfile, error)
	GetOrCreatePersona(ctx context.Context, userID string) (*model.PersonaProfile, error)
	SavePersona(ctx context.Context, profile *model.PersonaProfile) error

	// Admin
	Stats(ctx context.Context) (*Stats, error)
	ResetUser(ctx context.Context, userID string) error
}

// Loader creates a ChatStore from config.
type Loader func(ctx context.Context) (ChatStore, error)

// Plugin represents a store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a store plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}
