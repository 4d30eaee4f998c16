package audio

import (
	"errors"
	"fmt"
	"time"
)

// BytesPerSample is the width of one signed 16-bit sample.
const BytesPerSample = 2

// ErrEmptyAudio is returned for a zero-length clip.
var ErrEmptyAudio = errors.New("audio data is empty")

// ValidatePCM checks that data is non-empty 16-bit PCM made of whole frames.
func ValidatePCM(data []byte, channels int) error {
	if len(data) == 0 {
		return ErrEmptyAudio
	}
	if channels <= 0 {
		channels = 1
	}
	frame := BytesPerSample * channels
	if len(data)%frame != 0 {
		return fmt.Errorf("PCM data length %d is not aligned to %d-byte frames", len(data), frame)
	}
	return nil
}

// Duration returns how long n bytes of 16-bit PCM last at the given format.
func Duration(n, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := n / (BytesPerSample * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
