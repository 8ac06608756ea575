package service

import (
	"context"
	"testing"
	"time"

	"github.com/empathai/chat-service/internal/model"
	"github.com/empathai/chat-service/internal/plugin/store/gormstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSweeperRunOnce(t *testing.T) {
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

	old := time.Now().Add(-120 * 24 * time.Hour)
	expired := time.Now().Add(-1 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	stale := model.Memory{
		ID: uuid.New(), UserID: "u1", MemoryType: "fact", Category: "fact",
		Content: "stale guess", ContentHash: model.HashContent("u1", "stale guess"),
		Confidence: 0.2, Importance: 0.5, IsActive: true,
		CreatedAt: old, UpdatedAt: old, ExpiresAt: &future,
	}
	dead := model.Memory{
		ID: uuid.New(), UserID: "u1", MemoryType: "emotion", Category: "emotion",
		Content: "felt sad", ContentHash: model.HashContent("u1", "felt sad"),
		Confidence: 0.9, Importance: 0.5, IsActive: true,
		CreatedAt: old, UpdatedAt: time.Now(), ExpiresAt: &expired,
	}
	keep := model.Memory{
		ID: uuid.New(), UserID: "u1", MemoryType: "preference", Category: "preference",
		Content: "keep me", ContentHash: model.HashContent("u1", "keep me"),
		Confidence: 0.9, Importance: 0.5, IsActive: true,
		CreatedAt: time.Now(), UpdatedAt: time.Now(), ExpiresAt: &future,
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&dead).Error)
	require.NoError(t, db.Create(&keep).Error)

	sweeper := NewMemorySweeper(store, time.Hour, 90*24*time.Hour)
	result, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Archived)
	assert.Equal(t, int64(1), result.Deleted)

	active, err := store.ActiveMemories(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "keep me", active[0].Content)
}
