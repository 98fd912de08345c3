package entities

import (
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a realtime call session
type SessionState string

const (
	StateDisconnected SessionState = "disconnected"
	StateConnecting   SessionState = "connecting"
	StateConnected    SessionState = "connected"
	StateError        SessionState = "error"
)

// Role represents the speaker of a transcript message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is a committed transcript entry. Messages are immutable after
// creation and are appended to the session log in commit order.
type ChatMessage struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	Interrupted bool      `json:"interrupted"`
}

// NewChatMessage creates a committed transcript message
func NewChatMessage(role Role, text string, interrupted bool) ChatMessage {
	return ChatMessage{
		ID:          uuid.NewString(),
		Role:        role,
		Text:        text,
		CreatedAt:   time.Now(),
		Interrupted: interrupted,
	}
}
