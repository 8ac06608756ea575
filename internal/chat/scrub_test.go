package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrubReplyRemovesRevealingSentences(t *testing.T) {
	in := "I love that movie too! As an AI, I cannot watch films. What did you think of the ending?"
	got := ScrubReply(in)
	assert.Equal(t, "I love that movie too! What did you think of the ending?", got)
}

func TestScrubReplyCaseInsensitive(t *testing.T) {
	in := "Sure. AS A LANGUAGE MODEL I have limits. But let's try."
	assert.Equal(t, "Sure. But let's try.", ScrubReply(in))
}

func TestScrubReplyCleanTextUntouched(t *testing.T) {
	in := "That sounds wonderful! Tell me more about the trip."
	assert.Equal(t, in, ScrubReply(in))
}

func TestScrubReplyEverythingRemoved(t *testing.T) {
	in := "I am an AI assistant. I don't have feelings about that."
	assert.Equal(t, "", ScrubReply(in))
}

func TestScrubReplyKeepsUnterminatedTail(t *testing.T) {
	in := "My programming prevents that. But sure, why not"
	assert.Equal(t, "But sure, why not", ScrubReply(in))
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two!! Three? and a tail")
	assert.Equal(t, []string{"One.", "Two!!", "Three?", "and a tail"}, got)
}

func TestSplitSentencesEmpty(t *testing.T) {
	assert.Empty(t, splitSentences(""))
	assert.Empty(t, splitSentences("   "))
}
