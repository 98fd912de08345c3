package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"

	"github.com/prasaja/wicara/domain/entities"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 0.999, -0.999, 0.123, -0.321, 1, -1}

	chunk := EncodeAudio(samples, 16000)
	if chunk.SampleRate != 16000 {
		t.Errorf("Expected sample rate 16000, got %d", chunk.SampleRate)
	}
	if len(chunk.PCM) != len(samples)*2 {
		t.Errorf("Expected %d pcm bytes, got %d", len(samples)*2, len(chunk.PCM))
	}

	decoded, err := DecodeAudio(chunk.PCM)
	if err != nil {
		t.Fatalf("DecodeAudio failed: %v", err)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if diff := math.Abs(float64(decoded[i] - samples[i])); diff > 1.0/32768 {
			t.Errorf("Sample %d: expected %f within one quantization step, got %f", i, samples[i], decoded[i])
		}
	}
}

func TestEncodeAudioClampsOutOfRange(t *testing.T) {
	chunk := EncodeAudio([]float32{2.5, -3.0}, 16000)
	decoded, err := DecodeAudio(chunk.PCM)
	if err != nil {
		t.Fatalf("DecodeAudio failed: %v", err)
	}

	// Clamping must saturate, not wrap: a large positive input stays positive.
	if decoded[0] < 0.99 {
		t.Errorf("Expected clamped positive sample near 1, got %f", decoded[0])
	}
	if decoded[1] > -0.99 {
		t.Errorf("Expected clamped negative sample near -1, got %f", decoded[1])
	}
}

func TestDecodeAudioMalformed(t *testing.T) {
	tests := []struct {
		name string
		pcm  []byte
	}{
		{name: "odd length", pcm: []byte{0x01, 0x02, 0x03}},
		{name: "single byte", pcm: []byte{0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAudio(tt.pcm)
			if !errors.Is(err, entities.ErrDecode) {
				t.Errorf("Expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestDecodeAudioBase64(t *testing.T) {
	chunk := EncodeAudio([]float32{0.25, -0.25}, 24000)

	decoded, err := DecodeAudioBase64(chunk.Base64())
	if err != nil {
		t.Fatalf("DecodeAudioBase64 failed: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(decoded))
	}

	if _, err := DecodeAudioBase64("not base64!!!"); !errors.Is(err, entities.ErrDecode) {
		t.Errorf("Expected ErrDecode for invalid base64, got %v", err)
	}
}

func TestEncodeFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 128, A: 255})
		}
	}

	frame, err := EncodeFrame(img, 0.7)
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	if frame.MIMEType != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", frame.MIMEType)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(frame.JPEG))
	if err != nil {
		t.Fatalf("Encoded frame is not decodable: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 64 || bounds.Dy() != 48 {
		t.Errorf("Expected 64x48 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestEncodeFrameNilImage(t *testing.T) {
	if _, err := EncodeFrame(nil, 0.7); err == nil {
		t.Error("Expected error for nil image")
	}
}
