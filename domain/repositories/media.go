package repositories

import (
	"context"
	"image"
)

// MediaSource abstracts camera and microphone access, which is acquired
// outside the engine. ReadAudio blocks at the capture hardware's own cadence
// and returns the next filled buffer; CaptureFrame returns the current video
// bitmap, or false when no frame is available.
type MediaSource interface {
	AudioEnabled() bool
	VideoEnabled() bool
	ReadAudio(ctx context.Context) (samples []float32, sampleRate int, err error)
	CaptureFrame() (image.Image, bool)
}
