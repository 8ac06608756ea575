package model

import "time"

// SystemDefaultUserID is the reserved user id of the template persona row.
// New user profiles are seeded by copying this row when it exists.
const SystemDefaultUserID = "system_default"

// PersonaProfile holds the per-user adjustable persona attributes.
// One row per user; adapted over time from conversation content.
type PersonaProfile struct {
	UserID string `json:"userId" gorm:"primaryKey"`

	PreferredTone      string `json:"preferredTone"      gorm:"not null"`
	CommunicationStyle string `json:"communicationStyle" gorm:"not null"`

	// FormalityLevel is 1 (very casual) to 5 (very formal).
	FormalityLevel int `json:"formalityLevel" gorm:"not null;default:2"`

	TopicsOfInterest []string `json:"topicsOfInterest" gorm:"serializer:json"`
	Dislikes         []string `json:"dislikes"         gorm:"serializer:json"`

	// Personality traits, each 1-10.
	Friendliness  int `json:"friendliness"  gorm:"not null;default:8"`
	Curiosity     int `json:"curiosity"     gorm:"not null;default:7"`
	Humor         int `json:"humor"         gorm:"not null;default:6"`
	Empathy       int `json:"empathy"       gorm:"not null;default:9"`
	Assertiveness int `json:"assertiveness" gorm:"not null;default:5"`

	// TrustLevel is 0-100. Adaptation never decreases it.
	TrustLevel int `json:"trustLevel" gorm:"not null;default:50"`

	PreferredResponseLength string `json:"preferredResponseLength" gorm:"not null"`

	// Metadata carries the adjustment history appended by persona adaptation.
	Metadata  map[string]interface{} `json:"metadata"  gorm:"serializer:json"`
	CreatedAt time.Time              `json:"createdAt" gorm:"not null"`
	UpdatedAt time.Time              `json:"updatedAt" gorm:"not null"`
}

// TableName implements gorm.Tabler.
func (PersonaProfile) TableName() string { return "persona_profiles" }

// DefaultPersona returns the hard-coded profile used when no system_default
// template row exists in the store.
func DefaultPersona(userID string) PersonaProfile {
	return PersonaProfile{
		UserID:                  userID,
		PreferredTone:           "friendly",
		CommunicationStyle:      "casual",
		FormalityLevel:          2,
		TopicsOfInterest:        []string{},
		Dislikes:                []string{},
		Friendliness:            8,
		Curiosity:               7,
		Humor:                   6,
		Empathy:                 9,
		Assertiveness:           5,
		TrustLevel:              50,
		PreferredResponseLength: "medium",
	}
}
