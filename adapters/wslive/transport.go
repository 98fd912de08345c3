// Package wslive implements the live transport against a self-hosted
// websocket gateway that proxies the realtime model API.
package wslive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/prasaja/wicara/domain"
	"github.com/prasaja/wicara/domain/entities"
	"github.com/prasaja/wicara/domain/repositories"
)

const connectTimeout = 15 * time.Second

// Transport dials a websocket gateway and speaks its JSON frame protocol
type Transport struct {
	url    string
	token  string
	logger *zap.Logger
}

// NewTransport creates a transport for the given ws:// or wss:// gateway URL.
// The token, if set, is sent as a bearer credential during the handshake.
func NewTransport(url, token string, logger *zap.Logger) (*Transport, error) {
	if url == "" {
		return nil, fmt.Errorf("gateway URL is required")
	}
	return &Transport{url: url, token: token, logger: logger}, nil
}

// Open dials the gateway, performs the hello handshake, and starts the read
// loop once the session is acknowledged.
func (t *Transport) Open(ctx context.Context, cfg repositories.SessionConfig) (repositories.LiveSession, error) {
	headers := make(http.Header)
	if t.token != "" {
		headers.Set("Authorization", "Bearer "+t.token)
	}

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, t.url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("gateway dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("gateway dial failed: %w", err)
	}

	if err := conn.WriteJSON(helloFrame(cfg)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(connectTimeout))
	var ack struct {
		Type string `json:"type"`
		serverHelloAck
		serverError
	}
	if err := conn.ReadJSON(&ack); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read hello_ack: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	switch ack.Type {
	case "hello_ack":
	case "error":
		_ = conn.Close()
		return nil, fmt.Errorf("gateway rejected session: %s", ack.Message)
	default:
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected first frame type %q", ack.Type)
	}

	s := &liveSession{
		conn:   conn,
		events: make(chan domain.ServerEvent, 32),
		logger: t.logger,
	}
	t.logger.Info("Gateway session established", zap.String("sessionID", ack.SessionID))
	go s.readLoop()
	return s, nil
}

func helloFrame(cfg repositories.SessionConfig) clientHello {
	hello := clientHello{
		Type:             "hello",
		Model:            cfg.Model,
		System:           cfg.SystemInstruction,
		Voice:            cfg.Voice,
		ResponseModality: cfg.ResponseModality,
		TranscribeInput:  cfg.TranscribeInput,
		TranscribeOutput: cfg.TranscribeOutput,
	}
	for _, tool := range cfg.Tools {
		hello.Tools = append(hello.Tools, helloTool{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return hello
}

type liveSession struct {
	conn   *websocket.Conn
	events chan domain.ServerEvent
	logger *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu    sync.Mutex
	terminal error
}

func (s *liveSession) sendJSON(v any) error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *liveSession) SendAudio(chunk entities.AudioChunk) error {
	return s.sendJSON(clientAudioFrame{
		Type:       "audio",
		DataB64:    chunk.Base64(),
		SampleRate: chunk.SampleRate,
	})
}

func (s *liveSession) SendImage(frame entities.VideoFrame) error {
	return s.sendJSON(clientImageFrame{
		Type:     "image",
		DataB64:  frame.Base64(),
		MIMEType: frame.MIMEType,
	})
}

func (s *liveSession) SendToolResponses(batch []domain.ToolCallResponse) error {
	frame := clientToolResponses{Type: "tool_responses"}
	for _, r := range batch {
		frame.Responses = append(frame.Responses, wireToolResponse{
			ID:     r.CallID,
			Name:   r.Name,
			Result: r.Result,
		})
	}
	return s.sendJSON(frame)
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
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second),
		)
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	return nil
}

func (s *liveSession) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.terminal == nil {
		s.terminal = err
	}
}

func (s *liveSession) readLoop() {
	defer close(s.events)
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.setErr(err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		ev, ok, err := decodeServerFrame(data)
		if err != nil {
			if errors.Is(err, entities.ErrDecode) {
				// Drop this payload only; the session stays healthy.
				s.logger.Warn("Dropping malformed gateway payload", zap.Error(err))
				continue
			}
			s.setErr(err)
			s.logger.Warn("Gateway stream failed", zap.Error(err))
			return
		}
		if ok {
			s.events <- ev
		}
	}
}
