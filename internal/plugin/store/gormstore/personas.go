package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/empathai/chat-service/internal/model"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
	"gorm.io/gorm"
)

// GetPersona fetches a user's persona profile.
func (s *Store) GetPersona(ctx context.Context, userID string) (*model.PersonaProfile, error) {
	var p model.PersonaProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &registrystore.NotFoundError{Resource: "persona", ID: userID}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreatePersona returns the user's persona, seeding a new one from the
// system_default row when present, else from hard defaults.
func (s *Store) GetOrCreatePersona(ctx context.Context, userID string) (*model.PersonaProfile, error) {
	if userID == "" {
		return nil, &registrystore.ValidationError{Field: "userId", Message: "must not be empty"}
	}

	var p model.PersonaProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	seed := s.personaSeed(ctx, userID)
	if createErr := s.db.WithContext(ctx).Create(seed).Error; createErr != nil {
		// Concurrent creation; the existing row wins.
		if lookupErr := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; lookupErr == nil {
			return &p, nil
		}
		return nil, createErr
	}
	return seed, nil
}

// personaSeed copies the system_default row if one exists, otherwise falls
// back to the built-in defaults.
func (s *Store) personaSeed(ctx context.Context, userID string) *model.PersonaProfile {
	var sys model.PersonaProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", model.SystemDefaultUserID).First(&sys).Error
	if err != nil {
		p := model.DefaultPersona(userID)
		return &p
	}
	now := time.Now().UTC()
	sys.UserID = userID
	sys.CreatedAt = now
	sys.UpdatedAt = now
	return &sys
}

// SavePersona persists a full persona profile.
func (s *Store) SavePersona(ctx context.Context, persona *model.PersonaProfile) error {
	if persona.UserID == "" {
		return &registrystore.ValidationError{Field: "userId", Message: "must not be empty"}
	}
	persona.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Save(persona).Error
}
