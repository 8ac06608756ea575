package gormstore

import (
	"context"

	"github.com/empathai/chat-service/internal/model"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"gorm.io/gorm"
)

// Stats returns aggregate counts for the admin surface.
func (s *Store) Stats(ctx context.Context) (*registrystore.Stats, error) {
	stats := &registrystore.Stats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.User{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Conversation{}).Count(&stats.Conversations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Message{}).Count(&stats.Messages).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Memory{}).Where("is_active = ?", true).Count(&stats.Memories).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.User{}).Order("last_seen DESC").Limit(10).Find(&stats.RecentUsers).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// ResetUser removes all of a user's data: messages, conversations, memories,
// persona, and the user row itself.
func (s *Store) ResetUser(ctx context.Context, userID string) error {
	if userID == "" {
		return &registrystore.ValidationError{Field: "userId", Message: "must not be empty"}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var convIDs []string
		if err := tx.Model(&model.Conversation{}).
			Where("user_id = ?", userID).
			Pluck("id", &convIDs).Error; err != nil {
			return err
		}
		if len(convIDs) > 0 {
			if err := tx.Where("conversation_id IN ?", convIDs).Delete(&model.Message{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Conversation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Memory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.PersonaProfile{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&model.User{}).Error
	})
	if err != nil {
		return err
	}

	s.invalidateRecall(ctx, userID)
	return nil
}
