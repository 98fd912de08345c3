// Package codec converts raw captured media into the wire formats the remote
// service expects, and decodes inbound audio payloads back to samples.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/prasaja/wicara/domain/entities"
)

// EncodeAudio converts floating-point samples in [-1, 1] to 16-bit signed
// little-endian PCM. Out-of-range samples are clamped before scaling so they
// saturate instead of wrapping around.
func EncodeAudio(samples []float32, sampleRate int) entities.AudioChunk {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s*32767)))
	}
	return entities.AudioChunk{PCM: pcm, SampleRate: sampleRate}
}

// DecodeAudio converts a 16-bit little-endian PCM payload back to
// floating-point samples. Odd-length payloads are malformed.
func DecodeAudio(pcm []byte) ([]float32, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("%w: truncated pcm payload (%d bytes)", entities.ErrDecode, len(pcm))
	}
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return samples, nil
}

// DecodeAudioBase64 decodes the transport text encoding, then the PCM payload
func DecodeAudioBase64(data string) ([]float32, error) {
	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrDecode, err)
	}
	return DecodeAudio(pcm)
}

// EncodeFrame compresses a bitmap to a JPEG still at the given quality in
// (0, 1]. Output bytes depend on the codec; callers should only rely on the
// result being decodable at the source dimensions.
func EncodeFrame(img image.Image, quality float64) (entities.VideoFrame, error) {
	if img == nil {
		return entities.VideoFrame{}, fmt.Errorf("encode frame: nil image")
	}
	q := int(quality * 100)
	if q < 1 {
		q = 1
	} else if q > 100 {
		q = 100
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return entities.VideoFrame{}, fmt.Errorf("encode frame: %w", err)
	}
	return entities.VideoFrame{JPEG: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}
