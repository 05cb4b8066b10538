package live

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"image"
	"time"
)

// Input sample rate for microphone audio and output rate for coach speech,
// in Hz. These are fixed by the live API contract.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000
)

// AudioSource produces microphone audio as 16-bit mono PCM at
// InputSampleRate. ReadChunk blocks until a chunk is available or the
// context ends.
type AudioSource interface {
	ReadChunk(ctx context.Context) ([]int16, error)
	Close() error
}

// VideoSource produces camera frames. CaptureFrame returns the most recent
// frame; the controller samples it once per second.
type VideoSource interface {
	CaptureFrame(ctx context.Context) (image.Image, error)
	Close() error
}

// EncodePCM16 packs samples as little-endian bytes, the layout the live
// API expects for audio/pcm payloads.
func EncodePCM16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// DecodePCM16 unpacks little-endian bytes into samples. A trailing odd
// byte is dropped.
func DecodePCM16(data []byte) []int16 {
	n := len(data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// EncodeAudio base64-encodes raw PCM bytes for transport.
func EncodeAudio(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// DecodeAudio reverses EncodeAudio.
func DecodeAudio(b64 string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64)
}

// PCMDuration returns the playback duration of 16-bit mono PCM bytes at
// the given sample rate.
func PCMDuration(byteLen, sampleRate int) time.Duration {
	samples := byteLen / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
