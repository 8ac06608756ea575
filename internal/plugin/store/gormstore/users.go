package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/empathai/chat-service/internal/model"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrCreateUser returns the user row for the external id, creating it on
// first contact.
func (s *Store) GetOrCreateUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, &registrystore.ValidationError{Field: "userId", Message: "must not be empty"}
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = model.User{
		ID:        uuid.New(),
		UserID:    userID,
		LastSeen:  &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Lost a create race; the row exists now.
		var existing model.User
		if lookupErr := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &user, nil
}

// TouchUser updates last-seen and bumps the message counter.
func (s *Store) TouchUser(ctx context.Context, userID string, messageDelta int) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"last_seen":      now,
			"updated_at":     now,
			"total_messages": gorm.Expr("total_messages + ?", messageDelta),
		}).Error
}
