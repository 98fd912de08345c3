// Package transcript reconstructs a turn-based conversation log from the
// interleaved, partial-token transcription stream.
package transcript

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/prasaja/wicara/domain/entities"
)

// TruncationMarker is appended to a model message committed by barge-in.
const TruncationMarker = "…"

// Reconstructor accumulates streamed partial text per role and commits a
// buffer into the immutable message log when a flush trigger fires. Commit
// and clear are one atomic step; a buffer's content is never committed twice.
type Reconstructor struct {
	logger *zap.Logger

	mu       sync.Mutex
	user     strings.Builder
	model    strings.Builder
	messages []entities.ChatMessage
}

// NewReconstructor creates an empty reconstructor
func NewReconstructor(logger *zap.Logger) *Reconstructor {
	return &Reconstructor{logger: logger}
}

// AppendDelta appends a partial fragment to the role's growing buffer. The
// buffer stays visible via Partial until a flush trigger commits it.
func (r *Reconstructor) AppendDelta(role entities.Role, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch role {
	case entities.RoleUser:
		r.user.WriteString(text)
	case entities.RoleModel:
		r.model.WriteString(text)
	default:
		r.logger.Warn("Transcript delta for unknown role", zap.String("role", string(role)))
	}
}

// OnModelAudioStart commits the user buffer, if non-empty. Once the model is
// audibly responding the user's turn is over even without an explicit
// end-of-turn marker.
func (r *Reconstructor) OnModelAudioStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitUserLocked()
}

// OnTurnComplete commits the model buffer, then the user buffer if one is
// still pending. Model first so causal conversation order is preserved when
// both flush on the same event.
func (r *Reconstructor) OnTurnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitModelLocked(false)
	r.commitUserLocked()
}

// OnInterrupted commits the model buffer as an interrupted message with a
// trailing truncation marker. The user buffer is untouched; the user was not
// the one interrupted.
func (r *Reconstructor) OnInterrupted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitModelLocked(true)
}

func (r *Reconstructor) commitUserLocked() {
	if r.user.Len() == 0 {
		return
	}
	msg := entities.NewChatMessage(entities.RoleUser, r.user.String(), false)
	r.user.Reset()
	r.messages = append(r.messages, msg)
	r.logger.Debug("Committed user message", zap.String("id", msg.ID))
}

func (r *Reconstructor) commitModelLocked(interrupted bool) {
	if r.model.Len() == 0 {
		return
	}
	text := r.model.String()
	if interrupted {
		text += TruncationMarker
	}
	msg := entities.NewChatMessage(entities.RoleModel, text, interrupted)
	r.model.Reset()
	r.messages = append(r.messages, msg)
	r.logger.Debug("Committed model message",
		zap.String("id", msg.ID),
		zap.Bool("interrupted", interrupted))
}

// Messages returns a copy of the committed message log in commit order
func (r *Reconstructor) Messages() []entities.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

// Partial returns the role's growing uncommitted buffer for live display
func (r *Reconstructor) Partial(role entities.Role) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role == entities.RoleUser {
		return r.user.String()
	}
	return r.model.String()
}

// Reset clears both accumulators and the message log
func (r *Reconstructor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user.Reset()
	r.model.Reset()
	r.messages = nil
}
