package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/empathai/chat-service/internal/memory"
	"github.com/empathai/chat-service/internal/model"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// activeMemories scopes a query to live rows: active and not yet expired.
func activeMemories(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&model.Memory{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC())
}

// UpsertMemory creates a memory or merges into the existing active row with
// the same content hash. The merge keeps the max of old/new confidence and
// importance and increments the access count. Concurrent writers racing on
// the same hash are resolved by the (user_id, content_hash) unique index:
// the loser's insert fails and is retried as a merge.
func (s *Store) UpsertMemory(ctx context.Context, req registrystore.UpsertMemoryRequest) (*model.Memory, error) {
	if req.UserID == "" {
		return nil, &registrystore.ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if req.Content == "" {
		return nil, &registrystore.ValidationError{Field: "content", Message: "must not be empty"}
	}

	hash := model.HashContent(req.UserID, req.Content)

	var result model.Memory
	upsert := func(tx *gorm.DB) error {
		var existing model.Memory
		err := tx.Where("user_id = ? AND content_hash = ? AND is_active = ?", req.UserID, hash, true).
			First(&existing).Error
		if err == nil {
			return mergeMemory(tx, &existing, req, &result)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return insertMemory(tx, req, hash, &result)
	}

	err := s.db.WithContext(ctx).Transaction(upsert)
	if err != nil {
		// A concurrent writer may have inserted the row between our lookup
		// and insert; the unique index rejected ours. Merge instead.
		retryErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var existing model.Memory
			if lookupErr := tx.Where("user_id = ? AND content_hash = ? AND is_active = ?", req.UserID, hash, true).
				First(&existing).Error; lookupErr != nil {
				return err // original error; the conflict theory was wrong
			}
			return mergeMemory(tx, &existing, req, &result)
		})
		if retryErr != nil {
			return nil, retryErr
		}
	}

	s.invalidateRecall(ctx, req.UserID)
	return &result, nil
}

func insertMemory(tx *gorm.DB, req registrystore.UpsertMemoryRequest, hash string, out *model.Memory) error {
	category := req.Category
	if category == "" {
		category = memory.Categorize(req.Content, req.MemoryType)
	}
	now := time.Now().UTC()
	expires := now.AddDate(0, 0, memory.LifespanDays(category))

	row := model.Memory{
		ID:                   uuid.New(),
		UserID:               req.UserID,
		MemoryType:           req.MemoryType,
		Category:             category,
		Content:              req.Content,
		ContentHash:          hash,
		Confidence:           req.Confidence,
		Importance:           req.Importance,
		AccessCount:          1,
		IsActive:             true,
		ExpiresAt:            &expires,
		SourceConversationID: req.SourceConversationID,
		Metadata:             req.Metadata,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := tx.Create(&row).Error; err != nil {
		return err
	}
	*out = row
	return nil
}

func mergeMemory(tx *gorm.DB, existing *model.Memory, req registrystore.UpsertMemoryRequest, out *model.Memory) error {
	if req.Confidence > existing.Confidence {
		existing.Confidence = req.Confidence
	}
	if req.Importance > existing.Importance {
		existing.Importance = req.Importance
	}
	existing.AccessCount++
	existing.UpdatedAt = time.Now().UTC()
	if err := tx.Model(&model.Memory{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"confidence":   existing.Confidence,
			"importance":   existing.Importance,
			"access_count": existing.AccessCount,
			"updated_at":   existing.UpdatedAt,
		}).Error; err != nil {
		return err
	}
	*out = *existing
	return nil
}

// GetMemory fetches a memory by id.
func (s *Store) GetMemory(ctx context.Context, memoryID uuid.UUID) (*model.Memory, error) {
	var m model.Memory
	err := s.db.WithContext(ctx).Where("id = ?", memoryID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &registrystore.NotFoundError{Resource: "memory", ID: memoryID.String()}
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ActiveMemories returns the user's active memories, most recently updated first.
func (s *Store) ActiveMemories(ctx context.Context, userID string, limit int) ([]model.Memory, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []model.Memory
	err := activeMemories(s.db.WithContext(ctx), userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RankedMemories is the no-query retrieval ordering: importance, recency,
// confidence.
func (s *Store) RankedMemories(ctx context.Context, userID string, minConfidence float64, limit int) ([]model.Memory, error) {
	var out []model.Memory
	err := activeMemories(s.db.WithContext(ctx), userID).
		Where("confidence >= ?", minConfidence).
		Order("importance DESC").
		Order("updated_at DESC").
		Order("confidence DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SearchMemories is the keyword fallback: substring match over content,
// category, and type, ranked by importance, confidence, then access count.
func (s *Store) SearchMemories(ctx context.Context, userID string, query string, minConfidence float64, limit int) ([]model.Memory, error) {
	pattern := "%" + query + "%"
	var out []model.Memory
	err := activeMemories(s.db.WithContext(ctx), userID).
		Where("confidence >= ?", minConfidence).
		Where("LOWER(content) LIKE LOWER(?) OR LOWER(category) LIKE LOWER(?) OR LOWER(memory_type) LIKE LOWER(?)",
			pattern, pattern, pattern).
		Order("importance DESC").
		Order("confidence DESC").
		Order("access_count DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MemoriesByID returns the user's active memories among the given ids.
func (s *Store) MemoriesByID(ctx context.Context, userID string, ids []uuid.UUID) ([]model.Memory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []model.Memory
	err := activeMemories(s.db.WithContext(ctx), userID).
		Where("id IN ?", ids).
		Find(&out).Error
	return out, err
}

// TouchMemories increments access counts and stamps last-accessed for the
// given memories.
func (s *Store) TouchMemories(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&model.Memory{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"access_count":     gorm.Expr("access_count + 1"),
			"last_accessed_at": now,
		}).Error
}

// DeactivateMemory soft-deletes a memory.
func (s *Store) DeactivateMemory(ctx context.Context, memoryID uuid.UUID) error {
	var m model.Memory
	err := s.db.WithContext(ctx).Where("id = ?", memoryID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &registrystore.NotFoundError{Resource: "memory", ID: memoryID.String()}
	}
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&model.Memory{}).
		Where("id = ?", memoryID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return err
	}
	s.invalidateRecall(ctx, m.UserID)
	return nil
}

// SweepMemories archives active low-confidence rows older than maxAge and
// hard-deletes rows whose expiry has passed. Maintenance only; never runs
// during a chat turn.
func (s *Store) SweepMemories(ctx context.Context, maxAge time.Duration) (*registrystore.SweepResult, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-maxAge)
	result := &registrystore.SweepResult{}
	var affectedUsers []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Memory{}).
			Distinct("user_id").
			Where("is_active = ? AND ((confidence < ? AND updated_at < ?) OR expires_at < ?)", true, 0.3, cutoff, now).
			Pluck("user_id", &affectedUsers).Error; err != nil {
			return err
		}

		archived := tx.Model(&model.Memory{}).
			Where("is_active = ? AND confidence < ? AND updated_at < ?", true, 0.3, cutoff).
			Updates(map[string]interface{}{
				"is_active":  false,
				"updated_at": now,
			})
		if archived.Error != nil {
			return archived.Error
		}
		result.Archived = archived.RowsAffected

		deleted := tx.Where("is_active = ? AND expires_at < ?", true, now).
			Delete(&model.Memory{})
		if deleted.Error != nil {
			return deleted.Error
		}
		result.Deleted = deleted.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, userID := range affectedUsers {
		s.invalidateRecall(ctx, userID)
	}
	return result, nil
}

// FindMemoriesPendingVectorIndexing returns active memories not yet synced
// to the vector store.
func (s *Store) FindMemoriesPendingVectorIndexing(ctx context.Context, limit int) ([]model.Memory, error) {
	var out []model.Memory
	err := s.db.WithContext(ctx).Model(&model.Memory{}).
		Where("is_active = ? AND indexed_at IS NULL", true).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SetMemoryIndexedAt records vector index sync state for a memory.
func (s *Store) SetMemoryIndexedAt(ctx context.Context, memoryID uuid.UUID, indexedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Memory{}).
		Where("id = ?", memoryID).
		Update("indexed_at", indexedAt).Error
}
