package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFirstPersonPreference(t *testing.T) {
	got := Classify("I love hiking and photography.", SourceUser)
	require.Len(t, got, 1)
	assert.Equal(t, "preference", got[0].Category)
	assert.Equal(t, "I love hiking and photography", got[0].Content)
	assert.Equal(t, 0.9, got[0].Confidence)
}

func TestClassifyConfidenceTiers(t *testing.T) {
	// "my " anywhere in a user sentence also counts as first-person.
	got := Classify("Hiking is my favorite thing", SourceUser)
	require.Len(t, got, 1)
	assert.Equal(t, 0.9, got[0].Confidence)

	// User sentence without a first-person subject.
	got = Classify("People generally love hiking", SourceUser)
	require.Len(t, got, 1)
	assert.Equal(t, 0.6, got[0].Confidence)

	// Assistant sentences score a flat 0.5 regardless of structure.
	got = Classify("I love that you mentioned hiking", SourceAssistant)
	require.Len(t, got, 1)
	assert.Equal(t, 0.5, got[0].Confidence)
}

func TestClassifyFirstMatchWinsPerSentence(t *testing.T) {
	// Matches both preference ("love") and emotion ("happy"); preference
	// comes first in the category table so only it is emitted.
	got := Classify("I love being happy", SourceUser)
	require.Len(t, got, 1)
	assert.Equal(t, "preference", got[0].Category)
}

func TestClassifyMultipleSentences(t *testing.T) {
	got := Classify("I work at a bakery. I want to open my own shop! The weather is nice today.", SourceUser)
	require.Len(t, got, 2)
	assert.Equal(t, "fact", got[0].Category)
	assert.Equal(t, "goal", got[1].Category)
}

func TestClassifyNoMatchEmitsNothing(t *testing.T) {
	assert.Empty(t, Classify("The sky is blue today", SourceUser))
	assert.Empty(t, Classify("", SourceUser))
	assert.Empty(t, Classify("   \n  ", SourceUser))
}

func TestCategoryTableOrder(t *testing.T) {
	// Classification tie-breaks on table order, so the order is part of the
	// observable contract.
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"preference", "fact", "experience", "goal", "emotion"}, names)
}

func TestLifespanDays(t *testing.T) {
	assert.Equal(t, 365, LifespanDays("preference"))
	assert.Equal(t, 730, LifespanDays("fact"))
	assert.Equal(t, 30, LifespanDays("something-unknown"))
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, "preference", Categorize("I really enjoy sushi", "fact"))
	assert.Equal(t, "goal", Categorize("someday I plan to sail around the world", ""))
	// No keyword match: fall back to the memory type when it names a category.
	assert.Equal(t, "emotion", Categorize("just a mood", "emotion"))
	assert.Equal(t, "general", Categorize("nothing recognizable here", "custom"))
}
