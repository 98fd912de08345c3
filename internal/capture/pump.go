// Package capture drives the two outbound media producers: the microphone
// read loop at the hardware's own cadence and a fixed-rate video sampler.
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prasaja/wicara/domain/repositories"
	"github.com/prasaja/wicara/internal/codec"
)

// Config controls the video sampler and frame compression
type Config struct {
	// VideoFPS is the outbound frame sampling rate. Defaults to 1.
	VideoFPS float64
	// JPEGQuality in (0, 1]. Defaults to 0.7.
	JPEGQuality float64
}

func (c Config) withDefaults() Config {
	if c.VideoFPS <= 0 {
		c.VideoFPS = 1
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = 0.7
	}
	return c
}

// Pump pushes encoded media frames from the local source into the transport.
// Mute and video toggles are local gates: the producers keep running and the
// frames are dropped, so toggling is perceptually instant and never
// renegotiates capture with the remote service.
type Pump struct {
	source  repositories.MediaSource
	session repositories.LiveSession
	logger  *zap.Logger
	cfg     Config

	mu           sync.Mutex
	muted        bool
	videoEnabled bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	running      bool
}

// NewPump creates a pump bound to one live session
func NewPump(source repositories.MediaSource, session repositories.LiveSession, cfg Config, logger *zap.Logger) *Pump {
	return &Pump{
		source:       source,
		session:      session,
		logger:       logger,
		cfg:          cfg.withDefaults(),
		videoEnabled: true,
	}
}

// Start launches the audio and video loops. Calling Start on a running pump
// is a no-op.
func (p *Pump) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(2)
	go p.audioLoop(ctx)
	go p.videoLoop(ctx)
	p.logger.Info("Capture pump started", zap.Float64("videoFPS", p.cfg.VideoFPS))
}

// Stop cancels both loops and waits for them to exit. Idempotent.
func (p *Pump) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	p.logger.Info("Capture pump stopped")
}

// SetMuted gates outbound audio without pausing capture
func (p *Pump) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
}

// Muted reports the current audio gate
func (p *Pump) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// SetVideoEnabled gates outbound video; the local preview keeps running
func (p *Pump) SetVideoEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videoEnabled = enabled
}

// VideoEnabled reports the current video gate
func (p *Pump) VideoEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.videoEnabled
}

func (p *Pump) audioLoop(ctx context.Context) {
	defer p.wg.Done()
	for {
		samples, sampleRate, err := p.source.ReadAudio(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			p.logger.Warn("Audio capture read failed", zap.Error(err))
			continue
		}
		if p.Muted() || !p.source.AudioEnabled() {
			// The callback still fires; the frame is dropped, not the pipe.
			continue
		}
		chunk := codec.EncodeAudio(samples, sampleRate)
		if err := p.session.SendAudio(chunk); err != nil {
			// A single dropped frame is tolerable; systemic failures surface
			// through the transport's own error path.
			p.logger.Warn("Failed to send audio frame", zap.Error(err))
		}
	}
}

func (p *Pump) videoLoop(ctx context.Context) {
	defer p.wg.Done()
	interval := time.Duration(float64(time.Second) / p.cfg.VideoFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.VideoEnabled() || !p.source.VideoEnabled() {
				continue
			}
			img, ok := p.source.CaptureFrame()
			if !ok {
				continue
			}
			frame, err := codec.EncodeFrame(img, p.cfg.JPEGQuality)
			if err != nil {
				p.logger.Warn("Failed to encode video frame", zap.Error(err))
				continue
			}
			if err := p.session.SendImage(frame); err != nil {
				p.logger.Warn("Failed to send video frame", zap.Error(err))
			}
		}
	}
}
