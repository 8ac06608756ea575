package model

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Memory is a single long-term memory extracted from conversation text.
// At most one active row may exist per (user_id, content_hash) pair; a
// duplicate write merges into the existing row instead of inserting.
type Memory struct {
	// ID is the primary key (UUID).
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`

	// UserID is the external id of the user this memory belongs to.
	UserID string `json:"userId" gorm:"not null;index;uniqueIndex:idx_memories_user_hash"`

	// MemoryType is a free-form label (fact, preference, experience, goal, emotion).
	MemoryType string `json:"memoryType" gorm:"not null"`

	// Category is the closed enumeration driving lifespan and priority defaults.
	Category string `json:"category" gorm:"not null"`

	// Content is the remembered sentence, trimmed.
	Content string `json:"content" gorm:"not null"`

	// ContentHash is the user-scoped, case/whitespace-normalized dedup key.
	ContentHash string `json:"-" gorm:"not null;uniqueIndex:idx_memories_user_hash"`

	// Confidence is how sure the classifier was, in [0,1]. Merges keep the max.
	Confidence float64 `json:"confidence" gorm:"not null"`

	// Importance drives retrieval ranking, in [0,1]. Merges keep the max.
	Importance float64 `json:"importance" gorm:"not null"`

	// AccessCount increments on every retrieval and on every merge.
	AccessCount int `json:"accessCount" gorm:"not null;default:1"`

	// LastAccessedAt is set whenever the memory is returned by the retriever.
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`

	// IsActive is cleared by the maintenance sweep (soft delete).
	IsActive bool `json:"isActive" gorm:"not null;default:true"`

	// ExpiresAt is computed at creation from the category lifespan.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`

	// SourceConversationID records which conversation produced this memory.
	SourceConversationID *uuid.UUID `json:"sourceConversationId,omitempty" gorm:"type:uuid"`

	// IndexedAt tracks vector index sync state. NULL means pending indexing.
	IndexedAt *time.Time `json:"-"`

	Metadata  map[string]interface{} `json:"metadata"  gorm:"serializer:json"`
	CreatedAt time.Time              `json:"createdAt" gorm:"not null"`
	UpdatedAt time.Time              `json:"updatedAt" gorm:"not null"`
}

// TableName implements gorm.Tabler.
func (Memory) TableName() string { return "memories" }

// HashContent returns the dedup key for a user/content pair: the md5 of the
// user id joined with the lowercased, whitespace-trimmed content.
func HashContent(userID, content string) string {
	normalized := strings.ToLower(strings.TrimSpace(content))
	sum := md5.Sum([]byte(userID + ":" + normalized))
	return hex.EncodeToString(sum[:])
}
