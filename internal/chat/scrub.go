package chat

import "strings"

// forbiddenPhrases break persona immersion; sentences containing one are
// removed from generated replies.
var forbiddenPhrases = []string{
	"as an ai",
	"as a language model",
	"i am an ai",
	"i'm programmed to",
	"my programming",
	"i don't have feelings",
	"i don't have experiences",
	"in my training data",
}

// ScrubReply removes sentences that reveal the assistant is not human.
// Returns the cleaned reply; empty when nothing survives.
func ScrubReply(reply string) string {
	sentences := splitSentences(reply)
	kept := make([]string, 0, len(sentences))
	for _, s := range sentences {
		lower := strings.ToLower(s)
		clean := true
		for _, phrase := range forbiddenPhrases {
			if strings.Contains(lower, phrase) {
				clean = false
				break
			}
		}
		if clean {
			kept = append(kept, s)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// splitSentences splits on terminal punctuation, keeping the punctuation
// attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if r == '.' || r == '!' || r == '?' {
			// include any run of terminal punctuation
			if i+1 < len(runes) && (runes[i+1] == '.' || runes[i+1] == '!' || runes[i+1] == '?') {
				continue
			}
			sentence := strings.TrimSpace(string(runes[start : i+1]))
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
