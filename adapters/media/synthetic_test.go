package media

import (
	"context"
	"image/color"
	"math"
	"testing"
	"time"
)

func TestReadAudioCadenceAndContinuity(t *testing.T) {
	source := NewSynthetic(Config{SampleRate: 16000, Chunk: 10 * time.Millisecond})

	first, rate, err := source.ReadAudio(context.Background())
	if err != nil {
		t.Fatalf("ReadAudio failed: %v", err)
	}
	if rate != 16000 {
		t.Errorf("Expected rate 16000, got %d", rate)
	}
	if len(first) != 160 {
		t.Errorf("Expected 160 samples per 10ms chunk, got %d", len(first))
	}

	second, _, err := source.ReadAudio(context.Background())
	if err != nil {
		t.Fatalf("ReadAudio failed: %v", err)
	}

	// The waveform continues across chunk boundaries: the first sample of the
	// second chunk must follow from the last of the first, not restart at 0.
	step := 2 * math.Pi * 440.0 / 16000.0
	expected := 0.2 * math.Sin(float64(len(first))*step)
	if math.Abs(float64(second[0])-expected) > 1e-3 {
		t.Errorf("Expected continuous phase, got %f want %f", second[0], expected)
	}

	for _, v := range first {
		if v > 0.2 || v < -0.2 {
			t.Fatalf("Sample %f exceeds amplitude", v)
		}
	}
}

func TestReadAudioHonorsContext(t *testing.T) {
	source := NewSynthetic(Config{Chunk: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := source.ReadAudio(ctx); err == nil {
		t.Error("Expected context error")
	}
}

func TestCaptureFrameMoves(t *testing.T) {
	source := NewSynthetic(Config{})

	first, ok := source.CaptureFrame()
	if !ok {
		t.Fatal("Expected a frame")
	}
	if first.Bounds().Dx() != 320 || first.Bounds().Dy() != 240 {
		t.Errorf("Unexpected bounds: %v", first.Bounds())
	}

	second, _ := source.CaptureFrame()
	if samePixel(first.At(0, 0), second.At(0, 0)) &&
		samePixel(first.At(8, 0), second.At(8, 0)) {
		t.Error("Expected consecutive frames to differ")
	}
}

func samePixel(a, b color.Color) bool {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	return ar == br && ag == bg && ab == bb
}
