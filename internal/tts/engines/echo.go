package engines

import (
	"context"
	"encoding/binary"
	"math"
	"unicode/utf8"
)

const (
	echoPerRune   = SampleRate * 45 / 1000 // 45ms of tone per character
	echoMaxFrames = SampleRate * 20        // 20s
	echoAmplitude = 2400
	echoFade      = SampleRate / 100 // 10ms fade in and out
)

// EchoEngine needs no key and no network. It answers every request with a
// quiet tone whose length follows the text, so playback can be exercised
// offline. Its output is deterministic.
type EchoEngine struct{}

var _ Engine = EchoEngine{}

func (EchoEngine) Name() string         { return ProviderEcho }
func (EchoEngine) DefaultModel() string { return "tone" }

func (EchoEngine) Synthesize(ctx context.Context, text, _, _ string) ([]byte, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return echoTone(utf8.RuneCountInString(text)), nil
}

func echoTone(runes int) []byte {
	frames := runes * echoPerRune
	if frames > echoMaxFrames {
		frames = echoMaxFrames
	}

	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		gain := 1.0
		if i < echoFade {
			gain = float64(i) / echoFade
		} else if rem := frames - i; rem < echoFade {
			gain = float64(rem) / echoFade
		}
		v := gain * echoAmplitude * math.Sin(2*math.Pi*440*float64(i)/SampleRate)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
