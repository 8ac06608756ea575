package memory

import (
	"regexp"
	"strings"
)

// Source identifies who authored the text being classified.
type Source string

const (
	SourceUser      Source = "user"
	SourceAssistant Source = "assistant"
)

// Candidate is one classified sentence: a category, the trimmed sentence,
// and a confidence score in [0,1].
type Candidate struct {
	Category   string
	Content    string
	Confidence float64
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Classify splits text into sentences and scans each one against the
// category table. The first keyword match in a sentence wins; no further
// categories are considered for that sentence. Unmatched sentences emit
// nothing. Empty or whitespace-only input yields no candidates.
//
// Confidence: user sentences with a first-person subject score 0.9, other
// user sentences 0.6, assistant sentences a flat 0.5. Callers additionally
// scale assistant-derived candidates by 0.8 before persisting.
func Classify(text string, source Source) []Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []Candidate
	for _, raw := range sentenceSplit.Split(text, -1) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}
		lower := strings.ToLower(sentence)

	scan:
		for _, c := range Categories {
			for _, kw := range c.Keywords {
				if !strings.Contains(lower, kw) {
					continue
				}
				confidence := 0.5
				if source == SourceUser {
					if strings.HasPrefix(lower, "i ") || strings.Contains(lower, "my ") {
						confidence = 0.9
					} else {
						confidence = 0.6
					}
				}
				out = append(out, Candidate{
					Category:   c.Name,
					Content:    sentence,
					Confidence: confidence,
				})
				break scan
			}
		}
	}
	return out
}
