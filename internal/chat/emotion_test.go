package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEmotion(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"I'm so happy about my new job!", "joy"},
		{"I feel really sad and lonely tonight", "sadness"},
		{"I hate when the build breaks", "anger"},
		{"I'm worried about the interview tomorrow", "fear"},
		{"wow, I did not see that coming", "surprise"},
		{"the meeting is at three", "neutral"},
		{"", "neutral"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectEmotion(tc.text), "text: %q", tc.text)
	}
}

func TestDetectEmotionFirstTableMatchWins(t *testing.T) {
	// "love" (joy) appears alongside "hate" (anger); the joy row is
	// checked first.
	assert.Equal(t, "joy", DetectEmotion("I love tea but hate coffee"))
}

func TestToneFor(t *testing.T) {
	assert.Equal(t, "cheerful and enthusiastic", ToneFor("joy"))
	assert.Equal(t, "empathetic and supportive", ToneFor("sadness"))
	assert.Equal(t, "friendly and engaging", ToneFor("neutral"))
	assert.Equal(t, "friendly", ToneFor("bogus"))
}

func TestSentimentFor(t *testing.T) {
	assert.Equal(t, "positive", SentimentFor("joy"))
	assert.Equal(t, "positive", SentimentFor("surprise"))
	assert.Equal(t, "negative", SentimentFor("sadness"))
	assert.Equal(t, "negative", SentimentFor("anger"))
	assert.Equal(t, "negative", SentimentFor("fear"))
	assert.Equal(t, "neutral", SentimentFor("neutral"))
	assert.Equal(t, "neutral", SentimentFor("bogus"))
}
