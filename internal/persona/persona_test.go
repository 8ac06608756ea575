package persona

import (
	"testing"
	"time"

	"github.com/empathai/chat-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMsgs(contents ...string) []model.Message {
	msgs := make([]model.Message, len(contents))
	for i, c := range contents {
		msgs[i] = model.Message{Role: model.RoleUser, Content: c}
	}
	return msgs
}

func TestAdaptAddsTopicsAdditively(t *testing.T) {
	p := model.DefaultPersona("alice")
	p.TopicsOfInterest = []string{"art"}

	history := userMsgs("I write code and do some photo editing", "software is fun")
	changed := Adapt(&p, history, time.Now())

	require.True(t, changed)
	assert.Equal(t, []string{"art", "technology"}, p.TopicsOfInterest,
		"existing topics stay; only new ones are appended")
}

func TestAdaptToneRequiresFloor(t *testing.T) {
	p := model.DefaultPersona("alice")
	p.PreferredTone = "friendly"

	// Two casual markers only; below the floor, tone must not change.
	changed := Adapt(&p, userMsgs("hey there", "lol that is funny"), time.Now())
	assert.Equal(t, "friendly", p.PreferredTone)
	_ = changed

	// Three distinct casual markers beat zero formal markers.
	Adapt(&p, userMsgs("hey", "lol", "omg that is wild"), time.Now())
	assert.Equal(t, "casual", p.PreferredTone)
}

func TestAdaptToneFormalWins(t *testing.T) {
	p := model.DefaultPersona("alice")
	Adapt(&p, userMsgs("please review this", "thank you kindly", "regards", "sincerely yours"), time.Now())
	assert.Equal(t, "formal", p.PreferredTone)
}

func TestAdaptToneEmpatheticFallback(t *testing.T) {
	p := model.DefaultPersona("alice")
	// Four distinct emotional markers, no casual or formal markers.
	Adapt(&p, userMsgs("so excited but also sad", "that made me angry", "now I am content"), time.Now())
	assert.Equal(t, "friendly", p.PreferredTone, "three emotional markers are not enough")

	Adapt(&p, userMsgs("so excited but also sad", "that made me angry", "now I am happy again"), time.Now())
	assert.Equal(t, "empathetic", p.PreferredTone)
}

func TestAdaptTrustGrowsMonotonically(t *testing.T) {
	p := model.DefaultPersona("alice")
	p.TrustLevel = 85

	long := make([]model.Message, 25)
	for i := range long {
		long[i] = model.Message{Role: model.RoleUser, Content: "nothing notable"}
	}

	Adapt(&p, long, time.Now())
	assert.Equal(t, 95, p.TrustLevel)

	Adapt(&p, long, time.Now())
	assert.Equal(t, 100, p.TrustLevel, "trust is capped at 100")

	Adapt(&p, long, time.Now())
	assert.Equal(t, 100, p.TrustLevel)

	// Short history never decreases trust.
	Adapt(&p, userMsgs("hello"), time.Now())
	assert.Equal(t, 100, p.TrustLevel)
}

func TestAdaptRecordsAdjustmentMetadata(t *testing.T) {
	p := model.DefaultPersona("alice")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	changed := Adapt(&p, userMsgs("I love my work on software projects", "code code code"), now)
	require.True(t, changed)

	assert.Equal(t, now.Format(time.RFC3339), p.Metadata["last_updated"])
	adjustments, ok := p.Metadata["adjustments"].([]interface{})
	require.True(t, ok)
	require.Len(t, adjustments, 1)
}

func TestAdaptNoChangeNoMetadata(t *testing.T) {
	p := model.DefaultPersona("alice")
	changed := Adapt(&p, userMsgs("hello there"), time.Now())
	assert.False(t, changed)
	assert.Nil(t, p.Metadata)
}
