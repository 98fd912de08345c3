package repositories

import (
	"context"

	"github.com/prasaja/wicara/domain"
	"github.com/prasaja/wicara/domain/entities"
)

// ToolDeclaration describes one dispatchable tool to the remote model
type ToolDeclaration struct {
	Name        string
	Description string
	// Parameters is a JSON-schema object describing the tool arguments.
	Parameters map[string]any
}

// SessionConfig is the configuration supplied when opening a live session
type SessionConfig struct {
	Model             string
	SystemInstruction string
	Voice             string
	// ResponseModality is the requested reply modality, normally "audio".
	ResponseModality string
	TranscribeInput  bool
	TranscribeOutput bool
	Tools            []ToolDeclaration
}

// LiveTransport opens streaming sessions against the remote model service
type LiveTransport interface {
	Open(ctx context.Context, cfg SessionConfig) (LiveSession, error)
}

// LiveSession is one established bidirectional streaming session. Sends are
// safe to call from capture goroutines; Events delivers inbound events in
// arrival order and is closed when the session ends. After Events is closed,
// Err reports the terminal error, if any.
type LiveSession interface {
	SendAudio(chunk entities.AudioChunk) error
	SendImage(frame entities.VideoFrame) error
	SendToolResponses(batch []domain.ToolCallResponse) error
	Events() <-chan domain.ServerEvent
	Err() error
	// Close tears the session down. It tolerates repeated calls and calls
	// on a session that never finished opening.
	Close() error
}
