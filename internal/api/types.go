package api

import (
	"time"

	"github.com/prasaja/wicara/domain/entities"
)

// TokenRequest represents the request payload for token issuance
type TokenRequest struct {
	ClientID string `json:"client_id" validate:"required"`
	APIKey   string `json:"api_key" validate:"required"`
}

// TokenResponse represents the response payload for token issuance
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// CallStateResponse reports the session lifecycle state
type CallStateResponse struct {
	State entities.SessionState `json:"state"`
	Error string                `json:"error,omitempty"`
}

// MessagesResponse is the committed transcript in conversation order
type MessagesResponse struct {
	Messages []entities.ChatMessage `json:"messages"`
}

// PartialsResponse carries the live, uncommitted transcript buffers
type PartialsResponse struct {
	User  string `json:"user"`
	Model string `json:"model"`
}

// EmotionResponse reports the avatar's current emotion
type EmotionResponse struct {
	Emotion entities.Emotion `json:"emotion"`
}

// MuteRequest toggles the microphone gate
type MuteRequest struct {
	Muted bool `json:"muted"`
}

// VideoRequest toggles the outbound video gate
type VideoRequest struct {
	Enabled bool `json:"enabled"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
