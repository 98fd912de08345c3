// Package speaker implements audio output by piping s16le PCM into an ffplay
// subprocess. It carries its own monotonic clock so the playback scheduler can
// place units on a shared timeline.
package speaker

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prasaja/wicara/domain/repositories"
	"github.com/prasaja/wicara/internal/codec"
)

// Config controls the ffplay subprocess
type Config struct {
	// Path to the ffplay binary. Defaults to "ffplay" on PATH.
	Path string
	// SampleRate of the output stream. Defaults to 24000.
	SampleRate int
	// Volume in ffplay's 0-100 scale. Defaults to 80.
	Volume int
}

func (c Config) withDefaults() Config {
	if c.Path == "" {
		c.Path = "ffplay"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 24000
	}
	if c.Volume <= 0 {
		c.Volume = 80
	}
	return c
}

// pcmSink is the raw byte pipe behind the output. restart drops any audio the
// sink has buffered but not yet played.
type pcmSink interface {
	write(p []byte) error
	restart() error
	close() error
}

// Output schedules PCM units onto one ffplay pipe
type Output struct {
	cfg    Config
	sink   pcmSink
	logger *zap.Logger
	epoch  time.Time
}

// NewOutput starts the ffplay subprocess and returns the output
func NewOutput(cfg Config, logger *zap.Logger) (*Output, error) {
	cfg = cfg.withDefaults()
	sink := newFFPlaySink(cfg)
	if err := sink.restart(); err != nil {
		return nil, fmt.Errorf("start ffplay: %w", err)
	}
	return newOutputWithSink(cfg, sink, logger), nil
}

func newOutputWithSink(cfg Config, sink pcmSink, logger *zap.Logger) *Output {
	return &Output{
		cfg:    cfg.withDefaults(),
		sink:   sink,
		logger: logger,
		epoch:  time.Now(),
	}
}

// Now returns seconds elapsed on the output clock
func (o *Output) Now() float64 {
	return time.Since(o.epoch).Seconds()
}

// Play schedules one unit at the given clock time. The returned handle stops
// the unit early; done fires once if the unit plays out naturally.
func (o *Output) Play(samples []float32, sampleRate int, at float64, done func()) (repositories.Playing, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty unit")
	}
	if sampleRate <= 0 {
		sampleRate = o.cfg.SampleRate
	}

	ctx, cancel := context.WithCancel(context.Background())
	u := &unit{cancel: cancel, output: o}
	duration := time.Duration(float64(len(samples)) / float64(sampleRate) * float64(time.Second))
	pcm := codec.EncodeAudio(samples, sampleRate).PCM

	go func() {
		if delay := at - o.Now(); delay > 0 {
			timer := time.NewTimer(time.Duration(delay * float64(time.Second)))
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		u.markWritten()
		if err := o.sink.write(pcm); err != nil {
			o.logger.Warn("Speaker write failed", zap.Error(err))
			return
		}

		timer := time.NewTimer(duration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			done()
		}
	}()

	return u, nil
}

// Close tears down the subprocess
func (o *Output) Close() error {
	return o.sink.close()
}

type unit struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	written bool
	stopped bool
	output  *Output
}

func (u *unit) markWritten() {
	u.mu.Lock()
	u.written = true
	u.mu.Unlock()
}

// Stop cancels the unit. Audio already handed to the pipe is flushed by
// restarting the sink, so barge-in cuts sound immediately.
func (u *unit) Stop() {
	u.mu.Lock()
	if u.stopped {
		u.mu.Unlock()
		return
	}
	u.stopped = true
	written := u.written
	output := u.output
	u.mu.Unlock()

	u.cancel()
	if written && output != nil {
		if err := output.sink.restart(); err != nil {
			output.logger.Warn("Speaker restart failed", zap.Error(err))
		}
	}
}

// ffplaySink keeps one ffplay process alive behind a pipe
type ffplaySink struct {
	cfg Config

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

func newFFPlaySink(cfg Config) *ffplaySink {
	return &ffplaySink{cfg: cfg}
}

func (s *ffplaySink) write(p []byte) error {
	s.mu.Lock()
	stdin := s.stdin
	s.mu.Unlock()
	if stdin == nil {
		return fmt.Errorf("ffplay is not running")
	}
	_, err := stdin.Write(p)
	return err
}

func (s *ffplaySink) restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
		"-nodisp",
		"-volume", fmt.Sprintf("%d", s.cfg.Volume),
		"-f", "s16le",
		"-ch_layout", "mono",
		"-ar", fmt.Sprintf("%d", s.cfg.SampleRate),
		"-i", "-",
	}
	cmd := exec.Command(s.cfg.Path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return err
	}

	s.cmd = cmd
	s.stdin = stdin
	go func(c *exec.Cmd) {
		_ = c.Wait()
		s.mu.Lock()
		if s.cmd == c {
			s.cmd = nil
			s.stdin = nil
		}
		s.mu.Unlock()
	}(cmd)
	return nil
}

func (s *ffplaySink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

func (s *ffplaySink) stopLocked() {
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.cmd = nil
	s.stdin = nil
}
