package chat

import "strings"

// emotionMarkers maps detected emotions to their keyword sets, checked in
// order with first match winning.
var emotionMarkers = []struct {
	Emotion  string
	Keywords []string
}{
	{"joy", []string{"happy", "excited", "love", "great", "awesome", "joy", "wonderful", "amazing", "fantastic"}},
	{"sadness", []string{"sad", "unhappy", "depressed", "cry", "lonely", "miss", "hurt", "upset"}},
	{"anger", []string{"angry", "mad", "hate", "furious", "annoyed", "frustrated", "pissed"}},
	{"fear", []string{"scared", "afraid", "anxious", "worried", "nervous", "terrified"}},
	{"surprise", []string{"wow", "omg", "surprised", "unexpected", "shocked", "amazed"}},
}

// toneByEmotion picks the reply tone the assistant should take.
var toneByEmotion = map[string]string{
	"joy":      "cheerful and enthusiastic",
	"sadness":  "empathetic and supportive",
	"anger":    "calm and understanding",
	"fear":     "reassuring and gentle",
	"surprise": "excited and curious",
	"neutral":  "friendly and engaging",
}

// DetectEmotion classifies the dominant emotion of a message.
func DetectEmotion(text string) string {
	lower := strings.ToLower(text)
	for _, em := range emotionMarkers {
		for _, kw := range em.Keywords {
			if strings.Contains(lower, kw) {
				return em.Emotion
			}
		}
	}
	return "neutral"
}

// ToneFor returns the reply tone for a detected emotion.
func ToneFor(emotion string) string {
	if tone, ok := toneByEmotion[emotion]; ok {
		return tone
	}
	return "friendly"
}

// SentimentFor collapses an emotion into a coarse message sentiment.
func SentimentFor(emotion string) string {
	switch emotion {
	case "joy", "surprise":
		return "positive"
	case "sadness", "anger", "fear":
		return "negative"
	default:
		return "neutral"
	}
}
