package domain

import "github.com/prasaja/wicara/domain/entities"

// TranscriptDelta is a partial text fragment for one role, streamed while an
// utterance is still in progress.
type TranscriptDelta struct {
	Role entities.Role `json:"role"`
	Text string        `json:"text"`
}

// ToolCallRequest is a structured function-call request from the remote model
type ToolCallRequest struct {
	CallID string         `json:"call_id"`
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
}

// ToolCallResponse acknowledges one ToolCallRequest, correlated by CallID
type ToolCallResponse struct {
	CallID string         `json:"call_id"`
	Name   string         `json:"name"`
	Result map[string]any `json:"result"`
}

// ServerEvent is one inbound transport message, normalized across transport
// adapters. A single event may carry several sub-fields; the session
// controller processes them in a fixed order: audio, transcript deltas,
// turn-complete, interruption, then tool calls.
type ServerEvent struct {
	// Audio is a model speech payload in the wire sample format.
	Audio *entities.AudioChunk

	// TranscriptDeltas are partial transcription fragments, tagged by role,
	// in the order the service emitted them.
	TranscriptDeltas []TranscriptDelta

	// TurnComplete marks the end of the model's logical utterance.
	TurnComplete bool

	// Interrupted signals barge-in: the user began speaking while model
	// audio was still playing.
	Interrupted bool

	// ToolCalls is a batch of function-call requests. Each request must
	// receive exactly one response, sent back as a single batch.
	ToolCalls []ToolCallRequest
}
