package conversation

import (
	"fmt"
	"strings"

	"github.com/empathai/chat-service/internal/model"
)

// topicCategory labels a summary topic by keyword presence. The table order
// is fixed so summaries are deterministic.
type topicCategory struct {
	Label    string
	Keywords []string
}

var topicCategories = []topicCategory{
	{"Work/Career", []string{"work", "job", "career", "office", "colleague", "boss", "project"}},
	{"Relationships", []string{"friend", "family", "partner", "relationship", "love", "dating"}},
	{"Hobbies", []string{"hobby", "sport", "game", "music", "art", "read", "movie"}},
	{"Technology", []string{"computer", "phone", "app", "software", "code", "internet", "ai"}},
	{"Health", []string{"health", "doctor", "exercise", "diet", "sleep", "stress"}},
	{"Education", []string{"study", "learn", "school", "university", "course", "book"}},
	{"Travel", []string{"travel", "vacation", "trip", "hotel", "flight", "destination"}},
}

// actionPhrases mark user commitments worth surfacing in the summary.
var actionPhrases = []string{"decided to", "will", "going to", "plan to", "promised"}

// BuildSummary produces a deterministic multi-line report for a
// conversation. No model call involved; the same messages always yield the
// same summary.
func BuildSummary(conv *model.Conversation, msgs []model.Message) string {
	if len(msgs) == 0 {
		return "No messages in this conversation."
	}

	var userCount, assistantCount int
	for _, m := range msgs {
		switch m.Role {
		case model.RoleUser:
			userCount++
		case model.RoleAssistant:
			assistantCount++
		}
	}

	parts := []string{
		fmt.Sprintf("Conversation Summary (ID: %.8s...):", conv.ID.String()),
		fmt.Sprintf("- Total messages: %d (%d user, %d assistant)", len(msgs), userCount, assistantCount),
	}

	if conv.EndedAt != nil {
		minutes := conv.EndedAt.Sub(conv.StartedAt).Minutes()
		parts = append(parts, fmt.Sprintf("- Duration: %.1f minutes", minutes))
	}

	if topics := DetectTopics(msgs); len(topics) > 0 {
		if len(topics) > 5 {
			topics = topics[:5]
		}
		parts = append(parts, fmt.Sprintf("- Main topics: %s", strings.Join(topics, ", ")))
	}

	if actions := countActions(msgs); actions > 0 {
		parts = append(parts, fmt.Sprintf("- Key actions/decisions: %d noted", actions))
	}

	if sentiment := dominantSentiment(msgs); sentiment != "" {
		parts = append(parts, fmt.Sprintf("- Overall sentiment: %s", sentiment))
	}

	return strings.Join(parts, "\n")
}

// DetectTopics returns the topic labels present in the messages, in table
// order.
func DetectTopics(msgs []model.Message) []string {
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(strings.ToLower(m.Content))
		sb.WriteString(" ")
	}
	content := sb.String()

	var topics []string
	for _, tc := range topicCategories {
		for _, kw := range tc.Keywords {
			if strings.Contains(content, kw) {
				topics = append(topics, tc.Label)
				break
			}
		}
	}
	return topics
}

// countActions counts user messages containing a commitment phrase. At most
// one action per message.
func countActions(msgs []model.Message) int {
	count := 0
	for _, m := range msgs {
		if m.Role != model.RoleUser {
			continue
		}
		content := strings.ToLower(m.Content)
		for _, phrase := range actionPhrases {
			if strings.Contains(content, phrase) {
				count++
				break
			}
		}
	}
	return count
}

// dominantSentiment returns the most frequent message sentiment. Ties break
// toward the sentiment seen first, keeping the result deterministic.
func dominantSentiment(msgs []model.Message) string {
	counts := map[string]int{}
	var order []string
	for _, m := range msgs {
		if m.Sentiment == nil || *m.Sentiment == "" {
			continue
		}
		if _, seen := counts[*m.Sentiment]; !seen {
			order = append(order, *m.Sentiment)
		}
		counts[*m.Sentiment]++
	}

	best := ""
	bestCount := 0
	for _, s := range order {
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}
