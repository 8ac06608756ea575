// Package prompt assembles the system prompt for a chat turn: persona
// block, categorized memories, recent history, and the current message.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/empathai/chat-service/internal/model"
)

// wordCeiling triggers the compression pass.
const wordCeiling = 3000

// memoriesPerCategory caps how many memory lines one category contributes.
const memoriesPerCategory = 3

// historyWindow is the number of trailing history messages included.
const historyWindow = 6

const personaTemplate = `You are %s, a %d-year-old %s.
You are having a natural conversation with a friend.

PERSONALITY TRAITS:
%s

CONVERSATION STYLE:
- Tone: %s
- Communication style: %s
- Formality: %d/5
- Friendliness: %d/10
- Curiosity: %d/10
- Humor: %d/10

IMPORTANT RULES:
1. You are HUMAN - NEVER mention being an AI, assistant, or language model
2. Be consistent with your background and personality
3. Reference past conversations naturally
4. Adapt your tone to match the user's emotion
5. Share personal experiences when relevant
6. Ask thoughtful questions
7. Never invent false information about yourself`

// Identity is the assistant's fixed self-description.
type Identity struct {
	Name       string
	Age        int
	Background string
}

// Input carries everything a single turn's prompt needs.
type Input struct {
	Persona     *model.PersonaProfile
	Memories    []model.Memory
	History     []model.Message
	UserMessage string
	UserEmotion string
	Now         time.Time
}

// Composer builds system prompts for the generator.
type Composer struct {
	identity Identity
}

// NewComposer creates a Composer with the given identity.
func NewComposer(identity Identity) *Composer {
	return &Composer{identity: identity}
}

// Compose assembles the full prompt and compresses it when it exceeds the
// word ceiling.
func (c *Composer) Compose(in Input) string {
	var sb strings.Builder
	sb.WriteString(c.personaSection(in.Persona))
	sb.WriteString(memorySection(in.Memories))
	sb.WriteString(historySection(in.History))
	sb.WriteString(c.contextSection(in))

	full := sb.String()
	if len(strings.Fields(full)) > wordCeiling {
		full = compress(full)
	}
	return full
}

func (c *Composer) personaSection(p *model.PersonaProfile) string {
	traits := "friendly, creative, curious"
	tone := "casual"
	style := "balanced"
	formality, friendliness, curiosity, humor := 3, 7, 6, 5
	if p != nil {
		tone = p.PreferredTone
		style = p.CommunicationStyle
		formality = p.FormalityLevel
		friendliness = p.Friendliness
		curiosity = p.Curiosity
		humor = p.Humor
	}
	return fmt.Sprintf(personaTemplate,
		c.identity.Name, c.identity.Age, c.identity.Background,
		traits, tone, style, formality, friendliness, curiosity, humor)
}

// memorySection groups memories by category in first-seen order, at most a
// few lines per category. Confidence is printed on each line so the
// compression pass can keep only the strong ones.
func memorySection(memories []model.Memory) string {
	if len(memories) == 0 {
		return ""
	}

	grouped := map[string][]model.Memory{}
	var order []string
	for _, m := range memories {
		category := m.Category
		if category == "" {
			category = "general"
		}
		if _, seen := grouped[category]; !seen {
			order = append(order, category)
		}
		grouped[category] = append(grouped[category], m)
	}

	var sb strings.Builder
	sb.WriteString("\n\nWHAT YOU KNOW ABOUT THE USER:\n")
	for _, category := range order {
		sb.WriteString(fmt.Sprintf("\n%s:\n", strings.ToUpper(category)))
		items := grouped[category]
		if len(items) > memoriesPerCategory {
			items = items[:memoriesPerCategory]
		}
		for _, m := range items {
			sb.WriteString(fmt.Sprintf("- %s (confidence: %.1f)\n", m.Content, m.Confidence))
		}
	}
	return sb.String()
}

func historySection(history []model.Message) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	var sb strings.Builder
	sb.WriteString("\n\nRECENT CONVERSATION:\n")
	for _, msg := range history {
		speaker := "YOU"
		if msg.Role == model.RoleUser {
			speaker = "USER"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", speaker, msg.Content))
	}
	return sb.String()
}

func (c *Composer) contextSection(in Input) string {
	emotion := in.UserEmotion
	if emotion == "" {
		emotion = "neutral"
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	return fmt.Sprintf(`

CURRENT SITUATION:
- User emotion: %s
- Time of day: %s
- Conversation mood: %s

CURRENT MESSAGE FROM USER:
"%s"

YOUR RESPONSE (as %s):
`, emotion, now.Format("3:04 PM"), mood(in.History), in.UserMessage, c.identity.Name)
}

// mood summarizes the sentiment of the last few history messages.
func mood(history []model.Message) string {
	if len(history) == 0 {
		return "neutral"
	}
	if len(history) > 5 {
		history = history[len(history)-5:]
	}
	var positive, negative int
	for _, m := range history {
		if m.Sentiment == nil {
			continue
		}
		switch *m.Sentiment {
		case "positive":
			positive++
		case "negative":
			negative++
		}
	}
	switch {
	case positive > negative*2:
		return "positive"
	case negative > positive*2:
		return "negative"
	default:
		return "balanced"
	}
}

// compress drops low-confidence memory lines while preserving every section
// header and all non-memory content.
func compress(prompt string) string {
	lines := strings.Split(prompt, "\n")
	compressed := make([]string, 0, len(lines))
	inMemorySection := false

	for _, line := range lines {
		switch {
		case strings.Contains(line, "WHAT YOU KNOW ABOUT THE USER:"):
			inMemorySection = true
			compressed = append(compressed, line)
		case strings.Contains(line, "RECENT CONVERSATION:") || strings.Contains(line, "CURRENT SITUATION:"):
			inMemorySection = false
			compressed = append(compressed, line)
		case inMemorySection && strings.HasPrefix(strings.TrimSpace(line), "-"):
			if strings.Contains(line, "(confidence: 0.8") ||
				strings.Contains(line, "(confidence: 0.9") ||
				strings.Contains(line, "(confidence: 1.0") {
				compressed = append(compressed, line)
			}
		default:
			compressed = append(compressed, line)
		}
	}
	return strings.Join(compressed, "\n")
}
