// Package persona manages the per-user persona profile and adapts it from
// conversation history. Adaptation is additive: topics are only ever added
// and trust only ever rises.
package persona

import (
	"context"
	"strings"
	"time"

	"github.com/empathai/chat-service/internal/model"
	registrystore "github.com/empathai/chat-service/internal/registry/store"
)

// topicKeywords maps interest topics to their marker words, in detection
// order.
var topicKeywords = []struct {
	Topic    string
	Keywords []string
}{
	{"technology", []string{"code", "program", "computer", "tech", "software", "machine learning"}},
	{"art", []string{"art", "paint", "draw", "design", "creative", "music", "photo"}},
	{"sports", []string{"sport", "game", "team", "play", "exercise", "fitness"}},
	{"science", []string{"science", "research", "discover", "experiment", "theory"}},
	{"business", []string{"business", "work", "job", "career", "company", "market"}},
}

// Tone marker sets. Counts are distinct markers present, not occurrences.
var (
	emotionalWords = []string{"love", "hate", "excited", "angry", "happy", "sad"}
	casualWords    = []string{"hey", "yo", "lol", "haha", "omg"}
	formalWords    = []string{"please", "thank you", "sincerely", "regards"}
)

// toneSwitchFloor is the minimum marker count before the preferred tone
// changes. A couple of stray "hey"s must not flip a formal user to casual.
const toneSwitchFloor = 3

// trustGrowthThreshold is the history length past which trust rises.
const trustGrowthThreshold = 20

// Manager provides persona operations on top of the store.
type Manager struct {
	store registrystore.ChatStore
}

// NewManager creates a Manager.
func NewManager(store registrystore.ChatStore) *Manager {
	return &Manager{store: store}
}

// GetOrCreate returns the user's persona, seeding it on first use.
func (m *Manager) GetOrCreate(ctx context.Context, userID string) (*model.PersonaProfile, error) {
	return m.store.GetOrCreatePersona(ctx, userID)
}

// AdaptFromHistory adjusts the user's persona from recent conversation
// history and persists it when anything changed.
func (m *Manager) AdaptFromHistory(ctx context.Context, userID string, history []model.Message) (*model.PersonaProfile, error) {
	profile, err := m.store.GetOrCreatePersona(ctx, userID)
	if err != nil {
		return nil, err
	}
	if Adapt(profile, history, time.Now().UTC()) {
		if err := m.store.SavePersona(ctx, profile); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// Adapt applies topic, tone, and trust adjustments to the profile in place.
// Returns true when the profile changed.
func Adapt(profile *model.PersonaProfile, history []model.Message, now time.Time) bool {
	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(strings.ToLower(m.Content))
		sb.WriteString(" ")
	}
	content := sb.String()

	changed := false

	// Topics: add newly detected interests, never remove existing ones.
	var added []string
	for _, tk := range topicKeywords {
		if containsTopic(profile.TopicsOfInterest, tk.Topic) {
			continue
		}
		for _, kw := range tk.Keywords {
			if strings.Contains(content, kw) {
				profile.TopicsOfInterest = append(profile.TopicsOfInterest, tk.Topic)
				added = append(added, tk.Topic)
				changed = true
				break
			}
		}
	}

	// Tone: the winning register must beat its competitor and clear the
	// switch floor; emotional markers alone need a stronger signal.
	emotional := countPresent(content, emotionalWords)
	casual := countPresent(content, casualWords)
	formal := countPresent(content, formalWords)

	newTone := profile.PreferredTone
	switch {
	case casual > formal && casual >= toneSwitchFloor:
		newTone = "casual"
	case formal > casual && formal >= toneSwitchFloor:
		newTone = "formal"
	case emotional > toneSwitchFloor:
		newTone = "empathetic"
	}
	if newTone != profile.PreferredTone {
		profile.PreferredTone = newTone
		changed = true
	}

	// Trust rises once a relationship has real history. Never decreases.
	trustDelta := 0
	if len(history) > trustGrowthThreshold && profile.TrustLevel < 100 {
		trustDelta = 10
		profile.TrustLevel += trustDelta
		if profile.TrustLevel > 100 {
			profile.TrustLevel = 100
		}
		changed = true
	}

	if changed {
		if profile.Metadata == nil {
			profile.Metadata = map[string]interface{}{}
		}
		profile.Metadata["last_updated"] = now.Format(time.RFC3339)
		profile.Metadata["conversations_analyzed"] = len(history) / 2
		adjustments, _ := profile.Metadata["adjustments"].([]interface{})
		adjustments = append(adjustments, map[string]interface{}{
			"at":          now.Format(time.RFC3339),
			"tone":        profile.PreferredTone,
			"topicsAdded": added,
			"trustDelta":  trustDelta,
		})
		profile.Metadata["adjustments"] = adjustments
	}
	return changed
}

func containsTopic(topics []string, topic string) bool {
	for _, t := range topics {
		if t == topic {
			return true
		}
	}
	return false
}

func countPresent(content string, markers []string) int {
	count := 0
	for _, w := range markers {
		if strings.Contains(content, w) {
			count++
		}
	}
	return count
}
