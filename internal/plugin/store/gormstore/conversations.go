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

// StartConversation returns the open conversation with the given session id
// when one exists, otherwise starts a new one. An empty sessionID always
// starts a fresh conversation under a generated session id.
func (s *Store) StartConversation(ctx context.Context, userID string, sessionID string) (*model.Conversation, error) {
	if userID == "" {
		return nil, &registrystore.ValidationError{Field: "userId", Message: "must not be empty"}
	}

	if sessionID != "" {
		var existing model.Conversation
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND session_id = ? AND ended_at IS NULL", userID, sessionID).
			First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	now := time.Now().UTC()
	conv := model.Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		SessionID: sessionID,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).
			Where("user_id = ?", userID).
			Update("conversation_count", gorm.Expr("conversation_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetConversation fetches a conversation by id.
func (s *Store) GetConversation(ctx context.Context, conversationID uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).Where("id = ?", conversationID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &registrystore.NotFoundError{Resource: "conversation", ID: conversationID.String()}
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// EndConversation marks the conversation ended, optionally recording a summary.
func (s *Store) EndConversation(ctx context.Context, conversationID uuid.UUID, summary *string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"ended_at":   now,
		"updated_at": now,
	}
	if summary != nil {
		updates["summary"] = *summary
	}
	result := s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &registrystore.NotFoundError{Resource: "conversation", ID: conversationID.String()}
	}
	return nil
}

// ListConversations returns the user's conversations, most recent first.
func (s *Store) ListConversations(ctx context.Context, userID string, limit int) ([]model.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	var convs []model.Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&convs).Error
	return convs, err
}

// SetConversationSummary stores a rolling summary without ending the conversation.
func (s *Store) SetConversationSummary(ctx context.Context, conversationID uuid.UUID, summary string) error {
	return s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"summary":    summary,
			"updated_at": time.Now().UTC(),
		}).Error
}

// AppendMessage stores a message and bumps the conversation message counter
// in the same transaction.
func (s *Store) AppendMessage(ctx context.Context, msg *model.Message) error {
	if msg.Content == "" {
		return &registrystore.ValidationError{Field: "content", Message: "must not be empty"}
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]interface{}{
				"message_count": gorm.Expr("message_count + 1"),
				"updated_at":    msg.CreatedAt,
			}).Error
	})
}

// ListMessages returns the last `limit` messages of a conversation in
// chronological order.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var msgs []model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// FirstMessages returns the first `limit` messages of a conversation in
// chronological order.
func (s *Store) FirstMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var msgs []model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}
