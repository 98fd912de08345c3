package entities

import (
	"encoding/base64"
	"fmt"
)

// AudioChunk is an outbound or inbound audio payload in the wire sample
// format: 16-bit signed little-endian PCM, mono. Immutable once created and
// consumed exactly once by a transport send.
type AudioChunk struct {
	PCM        []byte
	SampleRate int
}

// Base64 returns the transport-safe text encoding of the PCM payload
func (c AudioChunk) Base64() string {
	return base64.StdEncoding.EncodeToString(c.PCM)
}

// MIMEType returns the wire media type the remote service expects
func (c AudioChunk) MIMEType() string {
	return fmt.Sprintf("audio/pcm;rate=%d", c.SampleRate)
}

// Duration returns the playback length of the chunk in seconds
func (c AudioChunk) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.PCM)/2) / float64(c.SampleRate)
}

// VideoFrame is a compressed still image sampled from the local video source
type VideoFrame struct {
	JPEG     []byte
	MIMEType string
}

// Base64 returns the transport-safe text encoding of the image payload
func (f VideoFrame) Base64() string {
	return base64.StdEncoding.EncodeToString(f.JPEG)
}
