// Package playback schedules decoded model audio for gapless sequential
// playback and supports hard-stop on barge-in.
package playback

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/prasaja/wicara/domain/repositories"
)

// Scheduler owns the monotonic next-start cursor and the set of currently
// queued playback units. Successive model replies chain back-to-back: each
// unit starts at the previous unit's logical end, or immediately when decode
// has fallen behind real time.
type Scheduler struct {
	out    repositories.AudioOutput
	logger *zap.Logger

	mu        sync.Mutex
	nextStart float64
	nextID    uint64
	active    map[uint64]repositories.Playing
}

// NewScheduler creates a scheduler over the given audio output
func NewScheduler(out repositories.AudioOutput, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		out:    out,
		logger: logger,
		active: make(map[uint64]repositories.Playing),
	}
}

// Enqueue schedules a decoded buffer to begin at max(cursor, now), advances
// the cursor by the buffer's duration, and registers the unit until its
// end-of-playback callback fires. Returns the unit's handle ID.
func (s *Scheduler) Enqueue(samples []float32, sampleRate int) (uint64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("enqueue: invalid sample rate %d", sampleRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.nextStart
	if now := s.out.Now(); now > start {
		start = now
	}
	duration := float64(len(samples)) / float64(sampleRate)

	s.nextID++
	id := s.nextID

	playing, err := s.out.Play(samples, sampleRate, start, func() {
		s.remove(id)
	})
	if err != nil {
		// The unit was never registered; playback of later units continues.
		s.logger.Warn("Failed to schedule playback unit",
			zap.Uint64("unit", id),
			zap.Error(err))
		return 0, err
	}

	s.active[id] = playing
	s.nextStart = start + duration

	s.logger.Debug("Playback unit enqueued",
		zap.Uint64("unit", id),
		zap.Float64("start", start),
		zap.Float64("duration", duration))
	return id, nil
}

func (s *Scheduler) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// Interrupt hard-stops every queued unit, clears the active set, and resets
// the cursor to zero so the next enqueue starts from the then-current output
// time. Idempotent and safe on an empty set.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	stopped := make([]repositories.Playing, 0, len(s.active))
	for id, p := range s.active {
		stopped = append(stopped, p)
		delete(s.active, id)
	}
	s.nextStart = 0
	s.mu.Unlock()

	for _, p := range stopped {
		p.Stop()
	}
	if len(stopped) > 0 {
		s.logger.Info("Playback interrupted", zap.Int("stoppedUnits", len(stopped)))
	}
}

// Teardown is called unconditionally on session end
func (s *Scheduler) Teardown() {
	s.Interrupt()
}

// ActiveCount returns the number of currently queued units
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// NextStart returns the current cursor position on the output's time base
func (s *Scheduler) NextStart() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}
