package wslive

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/prasaja/wicara/domain"
	"github.com/prasaja/wicara/domain/entities"
)

// Client-to-gateway frames. Every frame carries a type discriminator.

type clientHello struct {
	Type             string      `json:"type"`
	Model            string      `json:"model"`
	System           string      `json:"system,omitempty"`
	Voice            string      `json:"voice,omitempty"`
	ResponseModality string      `json:"response_modality"`
	TranscribeInput  bool        `json:"transcribe_input"`
	TranscribeOutput bool        `json:"transcribe_output"`
	Tools            []helloTool `json:"tools,omitempty"`
}

type helloTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type clientAudioFrame struct {
	Type       string `json:"type"`
	DataB64    string `json:"data_b64"`
	SampleRate int    `json:"sample_rate"`
}

type clientImageFrame struct {
	Type     string `json:"type"`
	DataB64  string `json:"data_b64"`
	MIMEType string `json:"mime_type"`
}

type clientToolResponses struct {
	Type      string             `json:"type"`
	Responses []wireToolResponse `json:"responses"`
}

type wireToolResponse struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Result map[string]any `json:"result"`
}

// Gateway-to-client frames.

type serverHelloAck struct {
	SessionID string `json:"session_id"`
}

type serverAudioFrame struct {
	DataB64    string `json:"data_b64"`
	SampleRate int    `json:"sample_rate"`
}

type serverTranscriptDelta struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type serverToolCall struct {
	Calls []wireToolCall `json:"calls"`
}

type wireToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type serverError struct {
	Message string `json:"message"`
}

// decodeServerFrame converts one gateway text frame into a server event. The
// second return reports whether the frame carries anything routable; decode
// failures and unknown types are returned as errors so the caller can decide
// whether the stream is still trustworthy.
func decodeServerFrame(data []byte) (domain.ServerEvent, bool, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return domain.ServerEvent{}, false, fmt.Errorf("decode frame envelope: %w", err)
	}

	switch envelope.Type {
	case "audio":
		var frame serverAudioFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return domain.ServerEvent{}, false, fmt.Errorf("decode audio frame: %w", err)
		}
		pcm, err := base64.StdEncoding.DecodeString(frame.DataB64)
		if err != nil {
			// Payload-level failure: the frame itself is well formed, so the
			// stream is still trustworthy.
			return domain.ServerEvent{}, false, fmt.Errorf("%w: audio payload: %v", entities.ErrDecode, err)
		}
		return domain.ServerEvent{
			Audio: &entities.AudioChunk{PCM: pcm, SampleRate: frame.SampleRate},
		}, true, nil

	case "transcript_delta":
		var delta serverTranscriptDelta
		if err := json.Unmarshal(data, &delta); err != nil {
			return domain.ServerEvent{}, false, fmt.Errorf("decode transcript_delta: %w", err)
		}
		role := entities.RoleModel
		if delta.Role == string(entities.RoleUser) {
			role = entities.RoleUser
		}
		return domain.ServerEvent{
			TranscriptDeltas: []domain.TranscriptDelta{{Role: role, Text: delta.Text}},
		}, true, nil

	case "turn_complete":
		return domain.ServerEvent{TurnComplete: true}, true, nil

	case "interrupted":
		return domain.ServerEvent{Interrupted: true}, true, nil

	case "tool_call":
		var call serverToolCall
		if err := json.Unmarshal(data, &call); err != nil {
			return domain.ServerEvent{}, false, fmt.Errorf("decode tool_call: %w", err)
		}
		ev := domain.ServerEvent{}
		for _, c := range call.Calls {
			ev.ToolCalls = append(ev.ToolCalls, domain.ToolCallRequest{
				CallID: c.ID,
				Name:   c.Name,
				Args:   c.Args,
			})
		}
		return ev, len(ev.ToolCalls) > 0, nil

	case "error":
		var msg serverError
		if err := json.Unmarshal(data, &msg); err != nil {
			return domain.ServerEvent{}, false, fmt.Errorf("decode error frame: %w", err)
		}
		return domain.ServerEvent{}, false, fmt.Errorf("gateway error: %s", msg.Message)

	default:
		// Tolerate additive protocol changes.
		return domain.ServerEvent{}, false, nil
	}
}
