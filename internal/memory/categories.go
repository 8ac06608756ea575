package memory

import "strings"

// Category defines one entry in the memory category table: the trigger
// keywords that classify a sentence into it, how long resulting memories
// live, and a retrieval priority hint.
type Category struct {
	Name         string
	Keywords     []string
	LifespanDays int
	Priority     int
}

const (
	PriorityLow = iota + 1
	PriorityMedium
	PriorityHigh
)

// DefaultLifespanDays applies to memories whose category is not in the table.
const DefaultLifespanDays = 30

// Categories is the ordered category table. Order matters: classification is
// first-match-wins per sentence, with table order as the tie-break.
var Categories = []Category{
	{
		Name:         "preference",
		Keywords:     []string{"like", "love", "enjoy", "favorite", "prefer", "hate", "dislike", "fond of"},
		LifespanDays: 365,
		Priority:     PriorityHigh,
	},
	{
		Name:         "fact",
		Keywords:     []string{"am", "'m", "have", "work", "study", "live", "born", "age", "from"},
		LifespanDays: 730,
		Priority:     PriorityMedium,
	},
	{
		Name:         "experience",
		Keywords:     []string{"went to", "visited", "experienced", "happened", "once"},
		LifespanDays: 180,
		Priority:     PriorityMedium,
	},
	{
		Name:         "goal",
		Keywords:     []string{"want to", "plan to", "goal", "aspire", "dream", "hope to"},
		LifespanDays: 90,
		Priority:     PriorityHigh,
	},
	{
		Name:         "emotion",
		Keywords:     []string{"feel", "felt", "emotion", "happy", "sad", "angry", "excited"},
		LifespanDays: 30,
		Priority:     PriorityLow,
	},
}

// LifespanDays returns the configured lifespan for a category name, or
// DefaultLifespanDays for unknown categories.
func LifespanDays(category string) int {
	for _, c := range Categories {
		if c.Name == category {
			return c.LifespanDays
		}
	}
	return DefaultLifespanDays
}

// Categorize returns the first category whose keywords match the content, in
// table order. When nothing matches it falls back to the memory type if that
// names a known category, else "general".
func Categorize(content, memoryType string) string {
	lower := strings.ToLower(content)
	for _, c := range Categories {
		for _, kw := range c.Keywords {
			if strings.Contains(lower, kw) {
				return c.Name
			}
		}
	}
	for _, c := range Categories {
		if c.Name == memoryType {
			return memoryType
		}
	}
	return "general"
}
