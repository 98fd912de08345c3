package repositories

// Playing is a handle to one scheduled playback unit
type Playing interface {
	// Stop halts playback immediately. Safe to call after completion.
	Stop()
}

// AudioOutput abstracts the audio rendering device and its clock. Now returns
// the output's monotonic time base in seconds. Play schedules the buffer to
// begin at the given time on that base and invokes done exactly once when
// playback finishes naturally (not when stopped). Implementations must call
// done from a separate goroutine, never from within Play itself.
type AudioOutput interface {
	Now() float64
	Play(samples []float32, sampleRate int, at float64, done func()) (Playing, error)
}
