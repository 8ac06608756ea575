package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// User is a chat participant, keyed by an external user id string.
type User struct {
	ID                uuid.UUID              `json:"id"                gorm:"primaryKey;type:uuid"`
	UserID            string                 `json:"userId"            gorm:"not null;uniqueIndex"`
	ConversationCount int                    `json:"conversationCount" gorm:"not null;default:0"`
	TotalMessages     int                    `json:"totalMessages"     gorm:"not null;default:0"`
	LastSeen          *time.Time             `json:"lastSeen,omitempty"`
	Metadata          map[string]interface{} `json:"metadata"          gorm:"serializer:json"`
	CreatedAt         time.Time              `json:"createdAt"         gorm:"not null"`
	UpdatedAt         time.Time              `json:"updatedAt"         gorm:"not null"`
}

func (User) TableName() string { return "users" }

// Conversation is a single chat session for a user.
type Conversation struct {
	ID           uuid.UUID              `json:"id"                 gorm:"primaryKey;type:uuid"`
	UserID       string                 `json:"userId"             gorm:"not null;index"`
	SessionID    string                 `json:"sessionId"          gorm:"not null;index"`
	StartedAt    time.Time              `json:"startedAt"          gorm:"not null"`
	EndedAt      *time.Time             `json:"endedAt,omitempty"`
	MessageCount int                    `json:"messageCount"       gorm:"not null;default:0"`
	Summary      *string                `json:"summary,omitempty"`
	Metadata     map[string]interface{} `json:"metadata"           gorm:"serializer:json"`
	CreatedAt    time.Time              `json:"createdAt"          gorm:"not null"`
	UpdatedAt    time.Time              `json:"updatedAt"          gorm:"not null"`
}

func (Conversation) TableName() string { return "conversations" }

// Message is one immutable turn within a conversation.
type Message struct {
	ID             uuid.UUID `json:"id"                  gorm:"primaryKey;type:uuid"`
	ConversationID uuid.UUID `json:"conversationId"      gorm:"not null;type:uuid;index"`
	Role           Role      `json:"role"                gorm:"not null"`
	Content        string    `json:"content"             gorm:"not null"`
	Sentiment      *string   `json:"sentiment,omitempty"`
	Emotion        *string   `json:"emotion,omitempty"`
	// Embedding is populated synchronously when an embedder is configured.
	// Memory embeddings live in the vector store instead; see MemoryIndexer.
	Embedding []float32 `json:"-"         gorm:"serializer:json"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

func (Message) TableName() string { return "messages" }
