package tools

import (
	"fmt"
	"sync"

	"github.com/prasaja/wicara/domain/entities"
	"github.com/prasaja/wicara/domain/repositories"
)

// EmotionHolder holds the avatar's current emotion. Only the set_emotion tool
// handler writes it; the presentation layer reads it.
type EmotionHolder struct {
	mu      sync.RWMutex
	current entities.Emotion
}

// NewEmotionHolder starts at the baseline emotion
func NewEmotionHolder() *EmotionHolder {
	return &EmotionHolder{current: entities.DefaultEmotion}
}

// Current returns the current emotion
func (h *EmotionHolder) Current() entities.Emotion {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reset restores the baseline emotion for a fresh session
func (h *EmotionHolder) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = entities.DefaultEmotion
}

func (h *EmotionHolder) set(e entities.Emotion) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = e
}

// RegisterSetEmotion registers the set_emotion tool against the holder
func RegisterSetEmotion(d *Dispatcher, holder *EmotionHolder) error {
	emotionNames := make([]string, len(entities.Emotions))
	for i, e := range entities.Emotions {
		emotionNames[i] = string(e)
	}

	decl := repositories.ToolDeclaration{
		Name:        "set_emotion",
		Description: "Change the emotion displayed by the avatar to match the tone of the conversation.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"emotion": map[string]any{
					"type": "string",
					"enum": emotionNames,
				},
			},
			"required": []string{"emotion"},
		},
	}

	return d.Register(decl, func(args map[string]any) (map[string]any, error) {
		raw, ok := args["emotion"].(string)
		if !ok {
			return nil, fmt.Errorf("set_emotion: missing emotion argument")
		}
		emotion, err := entities.ParseEmotion(raw)
		if err != nil {
			return nil, fmt.Errorf("set_emotion: %w", err)
		}
		holder.set(emotion)
		return map[string]any{"emotion": string(emotion)}, nil
	})
}
