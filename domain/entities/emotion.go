package entities

import "fmt"

// Emotion is the avatar's displayed emotion. The set is closed; the remote
// model selects one via the set_emotion tool call.
type Emotion string

const (
	EmotionNeutral   Emotion = "neutral"
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionSurprised Emotion = "surprised"
	EmotionThinking  Emotion = "thinking"
	EmotionAngry     Emotion = "angry"
)

// DefaultEmotion is the baseline value at session start.
const DefaultEmotion = EmotionNeutral

// Emotions lists every valid emotion, in the order declared to the model.
var Emotions = []Emotion{
	EmotionNeutral,
	EmotionHappy,
	EmotionSad,
	EmotionSurprised,
	EmotionThinking,
	EmotionAngry,
}

// ParseEmotion validates a raw string against the closed emotion set
func ParseEmotion(raw string) (Emotion, error) {
	for _, e := range Emotions {
		if string(e) == raw {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q", raw)
}
