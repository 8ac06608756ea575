package prompt

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/empathai/chat-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{
	Name:       "Alex",
	Age:        28,
	Background: "a digital artist from Portland who loves hiking, anime, and photography",
}

func strptr(s string) *string { return &s }

func TestComposePersonaBlock(t *testing.T) {
	c := NewComposer(testIdentity)
	p := model.DefaultPersona("alice")
	p.PreferredTone = "casual"
	p.FormalityLevel = 2

	out := c.Compose(Input{Persona: &p, UserMessage: "hi"})

	assert.Contains(t, out, "You are Alex, a 28-year-old")
	assert.Contains(t, out, "Tone: casual")
	assert.Contains(t, out, "Formality: 2/5")
	assert.Contains(t, out, "NEVER mention being an AI")
	assert.Contains(t, out, `CURRENT MESSAGE FROM USER:
"hi"`)
	assert.Contains(t, out, "YOUR RESPONSE (as Alex):")
}

func TestComposeMemoryGrouping(t *testing.T) {
	c := NewComposer(testIdentity)
	memories := []model.Memory{
		{Category: "preference", Content: "loves hiking", Confidence: 0.9},
		{Category: "fact", Content: "works as a chef", Confidence: 0.9},
		{Category: "preference", Content: "enjoys photography", Confidence: 0.6},
		{Category: "preference", Content: "prefers tea", Confidence: 0.6},
		{Category: "preference", Content: "likes jazz", Confidence: 0.6},
	}

	out := c.Compose(Input{Memories: memories, UserMessage: "hi"})

	assert.Contains(t, out, "WHAT YOU KNOW ABOUT THE USER:")
	assert.Contains(t, out, "PREFERENCE:")
	assert.Contains(t, out, "FACT:")
	assert.Contains(t, out, "- loves hiking (confidence: 0.9)")
	// Category cap: the fourth preference is dropped.
	assert.NotContains(t, out, "likes jazz")
	// First-seen category order.
	assert.Less(t, strings.Index(out, "PREFERENCE:"), strings.Index(out, "FACT:"))
}

func TestComposeHistoryWindow(t *testing.T) {
	c := NewComposer(testIdentity)
	var history []model.Message
	for i := 0; i < 10; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		history = append(history, model.Message{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}

	out := c.Compose(Input{History: history, UserMessage: "hi"})

	assert.NotContains(t, out, "turn 3", "only the last six turns are kept")
	assert.Contains(t, out, "USER: turn 4")
	assert.Contains(t, out, "YOU: turn 9")
}

func TestComposeEmptySectionsOmitted(t *testing.T) {
	c := NewComposer(testIdentity)
	out := c.Compose(Input{UserMessage: "hi"})
	assert.NotContains(t, out, "WHAT YOU KNOW ABOUT THE USER:")
	assert.NotContains(t, out, "RECENT CONVERSATION:")
}

func TestComposeMood(t *testing.T) {
	c := NewComposer(testIdentity)
	history := []model.Message{
		{Role: model.RoleUser, Content: "a", Sentiment: strptr("positive")},
		{Role: model.RoleUser, Content: "b", Sentiment: strptr("positive")},
		{Role: model.RoleUser, Content: "c", Sentiment: strptr("positive")},
	}
	out := c.Compose(Input{History: history, UserMessage: "hi", Now: time.Now()})
	assert.Contains(t, out, "Conversation mood: positive")

	out = c.Compose(Input{UserMessage: "hi"})
	assert.Contains(t, out, "Conversation mood: neutral")
}

func TestComposeCompressionKeepsHeaders(t *testing.T) {
	c := NewComposer(testIdentity)

	// Enough long low-confidence memories to cross the word ceiling.
	filler := strings.Repeat("word ", 1200)
	var memories []model.Memory
	for i := 0; i < 3; i++ {
		memories = append(memories, model.Memory{
			Category:   fmt.Sprintf("category%d", i),
			Content:    fmt.Sprintf("weak detail %d %s", i, filler),
			Confidence: 0.5,
		})
	}
	memories = append(memories, model.Memory{
		Category:   "fact",
		Content:    "works as a chef",
		Confidence: 0.9,
	})

	out := c.Compose(Input{Memories: memories, UserMessage: "hi"})

	// Low-confidence lines were dropped, headers and strong lines survive.
	assert.NotContains(t, out, "weak detail 0")
	assert.Contains(t, out, "WHAT YOU KNOW ABOUT THE USER:")
	assert.Contains(t, out, "CATEGORY0:")
	assert.Contains(t, out, "- works as a chef (confidence: 0.9)")
	assert.Contains(t, out, "CURRENT MESSAGE FROM USER:")
	require.Less(t, len(strings.Fields(out)), 3000)
}

func TestComposeBelowCeilingUntouched(t *testing.T) {
	c := NewComposer(testIdentity)
	memories := []model.Memory{
		{Category: "preference", Content: "low confidence but short", Confidence: 0.5},
	}
	out := c.Compose(Input{Memories: memories, UserMessage: "hi"})
	assert.Contains(t, out, "low confidence but short", "no compression below the ceiling")
}
