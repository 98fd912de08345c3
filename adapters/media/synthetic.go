// Package media provides a synthetic capture source: a steady sine tone for
// the microphone and generated test-card frames for the camera. Useful for
// integration runs on machines without capture hardware.
package media

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync"
	"time"
)

const (
	defaultSampleRate = 16000
	defaultToneHz     = 440
	defaultChunk      = 20 * time.Millisecond
	defaultAmplitude  = 0.2
	frameWidth        = 320
	frameHeight       = 240
)

// Config controls the synthetic signal
type Config struct {
	SampleRate int
	ToneHz     int
	Chunk      time.Duration
	Amplitude  float64
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.ToneHz <= 0 {
		c.ToneHz = defaultToneHz
	}
	if c.Chunk <= 0 {
		c.Chunk = defaultChunk
	}
	if c.Amplitude <= 0 || c.Amplitude > 1 {
		c.Amplitude = defaultAmplitude
	}
	return c
}

// Synthetic generates audio at the configured chunk cadence and a test-card
// image whose stripe moves with each captured frame.
type Synthetic struct {
	cfg Config

	mu         sync.Mutex
	phase      float64
	frameCount int
}

// NewSynthetic creates a synthetic source
func NewSynthetic(cfg Config) *Synthetic {
	return &Synthetic{cfg: cfg.withDefaults()}
}

// AudioEnabled always reports true; the tone never runs dry
func (s *Synthetic) AudioEnabled() bool { return true }

// VideoEnabled always reports true
func (s *Synthetic) VideoEnabled() bool { return true }

// ReadAudio blocks for one chunk interval and returns the next slice of the
// tone. The phase carries across calls so the signal stays continuous.
func (s *Synthetic) ReadAudio(ctx context.Context) ([]float32, int, error) {
	timer := time.NewTimer(s.cfg.Chunk)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case <-timer.C:
	}

	n := int(float64(s.cfg.SampleRate) * s.cfg.Chunk.Seconds())
	if n <= 0 {
		n = 1
	}
	step := 2 * math.Pi * float64(s.cfg.ToneHz) / float64(s.cfg.SampleRate)

	s.mu.Lock()
	phase := s.phase
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(s.cfg.Amplitude * math.Sin(phase))
		phase += step
	}
	s.phase = math.Mod(phase, 2*math.Pi)
	s.mu.Unlock()

	return samples, s.cfg.SampleRate, nil
}

// CaptureFrame returns a test-card frame. The moving stripe makes consecutive
// frames distinguishable downstream.
func (s *Synthetic) CaptureFrame() (image.Image, bool) {
	s.mu.Lock()
	count := s.frameCount
	s.frameCount++
	s.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	stripe := (count * 8) % frameWidth
	for y := 0; y < frameHeight; y++ {
		for x := 0; x < frameWidth; x++ {
			c := color.RGBA{R: 32, G: 32, B: 48, A: 255}
			if x >= stripe && x < stripe+16 {
				c = color.RGBA{R: 240, G: 200, B: 40, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, true
}
