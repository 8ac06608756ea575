package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/empathai/chat-service/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestBuildSummaryEmpty(t *testing.T) {
	conv := &model.Conversation{ID: uuid.New()}
	assert.Equal(t, "No messages in this conversation.", BuildSummary(conv, nil))
}

func TestBuildSummaryCountsAndDuration(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(12 * time.Minute)
	conv := &model.Conversation{ID: uuid.New(), StartedAt: start, EndedAt: &end}

	msgs := []model.Message{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "hi"},
		{Role: model.RoleUser, Content: "bye"},
	}

	summary := BuildSummary(conv, msgs)
	assert.Contains(t, summary, "Total messages: 3 (2 user, 1 assistant)")
	assert.Contains(t, summary, "Duration: 12.0 minutes")
}

func TestBuildSummaryTopicsAndActions(t *testing.T) {
	conv := &model.Conversation{ID: uuid.New(), StartedAt: time.Now()}
	msgs := []model.Message{
		{Role: model.RoleUser, Content: "My job has a big project coming up"},
		{Role: model.RoleUser, Content: "I decided to learn some software skills"},
		{Role: model.RoleAssistant, Content: "That sounds exciting"},
	}

	summary := BuildSummary(conv, msgs)
	assert.Contains(t, summary, "Main topics: Work/Career, Technology, Education")
	assert.Contains(t, summary, "Key actions/decisions: 1 noted")
}

func TestBuildSummaryIsDeterministic(t *testing.T) {
	conv := &model.Conversation{ID: uuid.New(), StartedAt: time.Now()}
	msgs := []model.Message{
		{Role: model.RoleUser, Content: "I will travel for work", Sentiment: strptr("positive")},
		{Role: model.RoleUser, Content: "the flight is long", Sentiment: strptr("negative")},
		{Role: model.RoleUser, Content: "but the destination is great", Sentiment: strptr("positive")},
	}

	first := BuildSummary(conv, msgs)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildSummary(conv, msgs))
	}
	assert.Contains(t, first, "Overall sentiment: positive")
}

func TestDetectTopicsTableOrder(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleUser, Content: "my doctor recommends exercise, and I read a good book about travel"},
	}
	topics := DetectTopics(msgs)
	require.Equal(t, []string{"Hobbies", "Health", "Education", "Travel"}, topics)
}

func TestCountActionsOnePerMessage(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleUser, Content: "I decided to quit and I plan to start a bakery"},
		{Role: model.RoleAssistant, Content: "I will help you plan"},
	}
	// Two phrases in one user message count once; assistant messages don't count.
	assert.Equal(t, 1, countActions(msgs))
}

func TestDominantSentimentTieBreaksFirstSeen(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleUser, Content: "a", Sentiment: strptr("negative")},
		{Role: model.RoleUser, Content: "b", Sentiment: strptr("positive")},
		{Role: model.RoleUser, Content: "c", Sentiment: strptr("positive")},
		{Role: model.RoleUser, Content: "d", Sentiment: strptr("negative")},
	}
	assert.Equal(t, "negative", dominantSentiment(msgs))

	summary := BuildSummary(&model.Conversation{ID: uuid.New()}, msgs)
	assert.True(t, strings.Contains(summary, "Overall sentiment: negative"))
}
