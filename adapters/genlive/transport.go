// Package genlive implements the live transport against the Gemini Live API.
package genlive

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/prasaja/wicara/domain"
	"github.com/prasaja/wicara/domain/entities"
	"github.com/prasaja/wicara/domain/repositories"
)

// Transport opens realtime sessions against the Gemini Live API
type Transport struct {
	client *genai.Client
	logger *zap.Logger
}

// NewTransport creates a transport using the GEMINI_API_KEY environment
// variable for authentication.
func NewTransport(ctx context.Context, logger *zap.Logger) (*Transport, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Transport{client: client, logger: logger}, nil
}

// Open connects a live session and starts the inbound receive loop
func (t *Transport) Open(ctx context.Context, cfg repositories.SessionConfig) (repositories.LiveSession, error) {
	session, err := t.client.Live.Connect(ctx, cfg.Model, connectConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("live connect: %w", err)
	}

	s := &liveSession{
		session: session,
		events:  make(chan domain.ServerEvent, 32),
		logger:  t.logger,
	}
	go s.readLoop()
	return s, nil
}

// connectConfig maps a session configuration onto the Live API's connect shape
func connectConfig(cfg repositories.SessionConfig) *genai.LiveConnectConfig {
	out := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{modality(cfg.ResponseModality)},
	}
	if cfg.SystemInstruction != "" {
		out.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: cfg.SystemInstruction}},
		}
	}
	if cfg.Voice != "" {
		out.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.TranscribeInput {
		out.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if cfg.TranscribeOutput {
		out.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if len(cfg.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(cfg.Tools))
		for _, tool := range cfg.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  schemaFromMap(tool.Parameters),
			})
		}
		out.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return out
}

func modality(name string) genai.Modality {
	switch strings.ToLower(name) {
	case "text":
		return genai.ModalityText
	default:
		return genai.ModalityAudio
	}
}

// schemaFromMap converts a JSON-schema style map into the API's schema type.
// Unknown keys are ignored.
func schemaFromMap(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	out := &genai.Schema{}
	if t, ok := m["type"].(string); ok {
		out.Type = schemaType(t)
	}
	if d, ok := m["description"].(string); ok {
		out.Description = d
	}
	if enum, ok := m["enum"].([]string); ok {
		out.Enum = enum
	} else if enumAny, ok := m["enum"].([]any); ok {
		for _, v := range enumAny {
			if s, ok := v.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, sub := range props {
			if subMap, ok := sub.(map[string]any); ok {
				out.Properties[name] = schemaFromMap(subMap)
			}
		}
	}
	if req, ok := m["required"].([]string); ok {
		out.Required = req
	} else if reqAny, ok := m["required"].([]any); ok {
		for _, v := range reqAny {
			if s, ok := v.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		out.Items = schemaFromMap(items)
	}
	return out
}

func schemaType(name string) genai.Type {
	switch strings.ToLower(name) {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

type liveSession struct {
	session *genai.Session
	events  chan domain.ServerEvent
	logger  *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu    sync.Mutex
	terminal error
}

func (s *liveSession) SendAudio(chunk entities.AudioChunk) error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: chunk.PCM, MIMEType: chunk.MIMEType()},
	})
}

func (s *liveSession) SendImage(frame entities.VideoFrame) error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: frame.JPEG, MIMEType: frame.MIMEType},
	})
}

func (s *liveSession) SendToolResponses(batch []domain.ToolCallResponse) error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}
	responses := make([]*genai.FunctionResponse, 0, len(batch))
	for _, r := range batch {
		responses = append(responses, &genai.FunctionResponse{
			ID:       r.CallID,
			Name:     r.Name,
			Response: r.Result,
		})
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.session.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: responses,
	})
}

func (s *liveSession) Events() <-chan domain.ServerEvent {
	return s.events
}

func (s *liveSession) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.terminal
}

func (s *liveSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err = s.session.Close()
	})
	return err
}

// readLoop converts wire messages into server events until the session ends
func (s *liveSession) readLoop() {
	defer close(s.events)
	for {
		msg, err := s.session.Receive()
		if err != nil {
			if !s.closed.Load() {
				s.errMu.Lock()
				s.terminal = err
				s.errMu.Unlock()
				s.logger.Warn("Live session receive failed", zap.Error(err))
			}
			return
		}
		if ev, ok := convertMessage(msg); ok {
			s.events <- ev
		}
	}
}

// convertMessage flattens one wire message into a server event. Messages that
// carry nothing the engine reacts to are skipped.
func convertMessage(msg *genai.LiveServerMessage) (domain.ServerEvent, bool) {
	var ev domain.ServerEvent
	seen := false

	if sc := msg.ServerContent; sc != nil {
		if sc.ModelTurn != nil {
			// A turn may carry several audio parts; same-rate parts are
			// concatenated so none of the model speech is lost.
			var pcm []byte
			rate := 0
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData == nil || len(part.InlineData.Data) == 0 {
					continue
				}
				partRate := sampleRateFromMIME(part.InlineData.MIMEType)
				if rate == 0 {
					rate = partRate
				}
				if partRate != rate {
					continue
				}
				pcm = append(pcm, part.InlineData.Data...)
			}
			if len(pcm) > 0 {
				ev.Audio = &entities.AudioChunk{PCM: pcm, SampleRate: rate}
				seen = true
			}
		}
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			ev.TranscriptDeltas = append(ev.TranscriptDeltas, domain.TranscriptDelta{
				Role: entities.RoleUser,
				Text: sc.InputTranscription.Text,
			})
			seen = true
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			ev.TranscriptDeltas = append(ev.TranscriptDeltas, domain.TranscriptDelta{
				Role: entities.RoleModel,
				Text: sc.OutputTranscription.Text,
			})
			seen = true
		}
		if sc.TurnComplete {
			ev.TurnComplete = true
			seen = true
		}
		if sc.Interrupted {
			ev.Interrupted = true
			seen = true
		}
	}

	if tc := msg.ToolCall; tc != nil {
		for _, call := range tc.FunctionCalls {
			ev.ToolCalls = append(ev.ToolCalls, domain.ToolCallRequest{
				CallID: call.ID,
				Name:   call.Name,
				Args:   call.Args,
			})
			seen = true
		}
	}

	return ev, seen
}

const defaultOutputRate = 24000

// sampleRateFromMIME parses "audio/pcm;rate=24000" style MIME types
func sampleRateFromMIME(mime string) int {
	for _, param := range strings.Split(mime, ";") {
		param = strings.TrimSpace(param)
		if rest, ok := strings.CutPrefix(param, "rate="); ok {
			if rate, err := strconv.Atoi(rest); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return defaultOutputRate
}
