// Package session owns the connection lifecycle of one realtime call: it
// wires the capture pump, playback scheduler, transcript reconstructor, and
// tool dispatcher to the transport's event streams and guarantees ordered
// teardown.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/prasaja/wicara/domain"
	"github.com/prasaja/wicara/domain/entities"
	"github.com/prasaja/wicara/domain/repositories"
	"github.com/prasaja/wicara/internal/capture"
	"github.com/prasaja/wicara/internal/codec"
	"github.com/prasaja/wicara/internal/playback"
	"github.com/prasaja/wicara/internal/tools"
	"github.com/prasaja/wicara/internal/transcript"
)

// Config is the per-controller session configuration
type Config struct {
	Model             string
	SystemInstruction string
	Voice             string
	Capture           capture.Config
}

const (
	defaultModel = "gemini-2.0-flash-live-001"
	defaultVoice = "Puck"
)

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Voice == "" {
		c.Voice = defaultVoice
	}
	return c
}

// Controller is the top-level session state machine. One controller owns at
// most one live session at a time; Start while a previous session has not
// completed Stop is rejected.
type Controller struct {
	transport repositories.LiveTransport
	source    repositories.MediaSource
	output    repositories.AudioOutput
	logger    *zap.Logger
	cfg       Config

	dispatcher *tools.Dispatcher
	emotion    *tools.EmotionHolder
	transcript *transcript.Reconstructor

	mu           sync.Mutex
	state        entities.SessionState
	lastErr      error
	closed       bool
	live         repositories.LiveSession
	pump         *capture.Pump
	scheduler    *playback.Scheduler
	runCancel    context.CancelFunc
	routingDone  chan struct{}
	muted        bool
	videoEnabled bool
}

// NewController creates a disconnected controller. The media source may be
// nil, in which case Start fails with ErrNoMedia.
func NewController(
	transport repositories.LiveTransport,
	source repositories.MediaSource,
	output repositories.AudioOutput,
	cfg Config,
	logger *zap.Logger,
) (*Controller, error) {
	dispatcher := tools.NewDispatcher(logger)
	emotion := tools.NewEmotionHolder()
	if err := tools.RegisterSetEmotion(dispatcher, emotion); err != nil {
		return nil, err
	}

	return &Controller{
		transport:    transport,
		source:       source,
		output:       output,
		logger:       logger,
		cfg:          cfg.withDefaults(),
		dispatcher:   dispatcher,
		emotion:      emotion,
		transcript:   transcript.NewReconstructor(logger),
		state:        entities.StateDisconnected,
		videoEnabled: true,
	}, nil
}

// RegisterTool adds an extra dispatchable tool. Must be called before Start;
// the declared schema is part of the session configuration.
func (c *Controller) RegisterTool(decl repositories.ToolDeclaration, handler tools.Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != entities.StateDisconnected && c.state != entities.StateError {
		return fmt.Errorf("cannot register tools on an active session")
	}
	return c.dispatcher.Register(decl, handler)
}

func (c *Controller) sessionConfig() repositories.SessionConfig {
	return repositories.SessionConfig{
		Model:             c.cfg.Model,
		SystemInstruction: c.cfg.SystemInstruction,
		Voice:             c.cfg.Voice,
		ResponseModality:  "audio",
		TranscribeInput:   true,
		TranscribeOutput:  true,
		Tools:             c.dispatcher.Declarations(),
	}
}

// Start opens the transport session and, once open, starts the capture pump
// and inbound event routing. Local media must already be available. No
// automatic reconnection: after a failure the caller must call Start again.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case entities.StateConnecting, entities.StateConnected:
		c.mu.Unlock()
		return entities.ErrSessionActive
	}
	if c.source == nil {
		c.mu.Unlock()
		return entities.ErrNoMedia
	}
	c.state = entities.StateConnecting
	c.closed = false
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Info("Opening live session", zap.String("model", c.cfg.Model))
	live, err := c.transport.Open(ctx, c.sessionConfig())
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", entities.ErrTransportOpen, err)
		c.mu.Lock()
		c.state = entities.StateError
		c.lastErr = wrapped
		c.mu.Unlock()
		c.logger.Error("Live session open failed", zap.Error(err))
		return wrapped
	}

	c.mu.Lock()
	if c.closed {
		// Stopped while connecting; discard the session we just opened.
		c.mu.Unlock()
		_ = live.Close()
		return nil
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	c.live = live
	c.runCancel = runCancel
	c.scheduler = playback.NewScheduler(c.output, c.logger)
	c.pump = capture.NewPump(c.source, live, c.cfg.Capture, c.logger)
	c.pump.SetMuted(c.muted)
	c.pump.SetVideoEnabled(c.videoEnabled)
	c.routingDone = make(chan struct{})
	c.emotion.Reset()
	c.transcript.Reset()
	c.state = entities.StateConnected
	pump := c.pump
	done := c.routingDone
	c.mu.Unlock()

	pump.Start(runCtx)
	go c.route(live, done)
	c.logger.Info("Live session connected")
	return nil
}

// route processes inbound events strictly in arrival order
func (c *Controller) route(live repositories.LiveSession, done chan struct{}) {
	defer close(done)
	for ev := range live.Events() {
		c.handleEvent(live, ev)
	}
	if err := live.Err(); err != nil && !c.isClosed() {
		wrapped := fmt.Errorf("%w: %v", entities.ErrTransportRuntime, err)
		c.logger.Error("Live session failed", zap.Error(err))
		c.shutdown(entities.StateError, wrapped, false)
	}
}

// handleEvent applies one inbound event's sub-fields in the fixed order:
// audio, transcript deltas, turn-complete, interruption, then tool calls.
func (c *Controller) handleEvent(live repositories.LiveSession, ev domain.ServerEvent) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	scheduler := c.scheduler
	c.mu.Unlock()

	if ev.Audio != nil {
		samples, err := codec.DecodeAudio(ev.Audio.PCM)
		if err != nil {
			// Drop this payload only; the session stays healthy.
			c.logger.Warn("Dropping malformed audio payload", zap.Error(err))
		} else {
			if _, err := scheduler.Enqueue(samples, ev.Audio.SampleRate); err != nil {
				c.logger.Warn("Failed to enqueue model audio", zap.Error(err))
			}
			c.transcript.OnModelAudioStart()
		}
	}

	for _, delta := range ev.TranscriptDeltas {
		c.transcript.AppendDelta(delta.Role, delta.Text)
	}

	if ev.TurnComplete {
		c.transcript.OnTurnComplete()
	}

	if ev.Interrupted {
		// Audio truncation and transcript truncation are coupled.
		scheduler.Interrupt()
		c.transcript.OnInterrupted()
	}

	if len(ev.ToolCalls) > 0 {
		responses := c.dispatcher.Dispatch(ev.ToolCalls)
		if len(responses) > 0 && !c.isClosed() {
			if err := live.SendToolResponses(responses); err != nil {
				c.logger.Warn("Failed to send tool responses", zap.Error(err))
			}
		}
	}
}

// Stop tears the session down in order: pump, scheduler, transport,
// accumulators. Safe to call repeatedly and on a never-started controller.
func (c *Controller) Stop() {
	c.shutdown(entities.StateDisconnected, nil, true)
}

func (c *Controller) shutdown(target entities.SessionState, cause error, wait bool) {
	c.mu.Lock()
	c.closed = true
	pump := c.pump
	scheduler := c.scheduler
	live := c.live
	done := c.routingDone
	runCancel := c.runCancel
	c.pump = nil
	c.scheduler = nil
	c.live = nil
	c.routingDone = nil
	c.runCancel = nil
	if cause != nil {
		c.lastErr = cause
	}
	c.state = target
	c.mu.Unlock()

	if runCancel != nil {
		runCancel()
	}
	if pump != nil {
		pump.Stop()
	}
	if scheduler != nil {
		scheduler.Teardown()
	}
	if live != nil {
		// Tolerates close on an already-closed session.
		_ = live.Close()
	}
	c.transcript.Reset()

	if wait && done != nil {
		<-done
	}
	if target == entities.StateDisconnected && live != nil {
		c.logger.Info("Session stopped")
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// State returns the current lifecycle state
func (c *Controller) State() entities.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent session-fatal error, if any
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Messages returns the committed transcript in conversation order
func (c *Controller) Messages() []entities.ChatMessage {
	return c.transcript.Messages()
}

// Partial returns a role's live, uncommitted transcript buffer
func (c *Controller) Partial(role entities.Role) string {
	return c.transcript.Partial(role)
}

// Emotion returns the avatar's current emotion
func (c *Controller) Emotion() entities.Emotion {
	return c.emotion.Current()
}

// SetMuted gates outbound microphone audio
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	pump := c.pump
	c.mu.Unlock()
	if pump != nil {
		pump.SetMuted(muted)
	}
}

// Muted reports the microphone gate
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// SetVideoEnabled gates outbound video frames
func (c *Controller) SetVideoEnabled(enabled bool) {
	c.mu.Lock()
	c.videoEnabled = enabled
	pump := c.pump
	c.mu.Unlock()
	if pump != nil {
		pump.SetVideoEnabled(enabled)
	}
}

// VideoEnabled reports the video gate
func (c *Controller) VideoEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.videoEnabled
}
