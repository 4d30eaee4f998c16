package engines

import (
	"context"
	"errors"
)

// SampleRate is the PCM sample rate produced by every engine.
const SampleRate = 24000

// Provider names.
const (
	ProviderEcho       = "echo"
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"
	ProviderGemini     = "gemini"
)

// MaxTextSize is the longest input, in bytes, any engine accepts.
const MaxTextSize = 4096

var (
	// ErrEmptyText is returned for blank input.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong is returned when input exceeds MaxTextSize.
	ErrTextTooLong = errors.New("text too long")

	// ErrMissingKey is returned by engines that need a credential.
	ErrMissingKey = errors.New("api key required")

	// ErrUnknownProvider is returned for a provider with no engine.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Engine synthesizes speech for one provider.
type Engine interface {
	// Name is the provider name requests select the engine by.
	Name() string

	// DefaultModel is used when a request leaves the model empty.
	DefaultModel() string

	// Synthesize returns PCM audio for text.
	Synthesize(ctx context.Context, text, model, apiKey string) ([]byte, error)
}

func validateText(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	if len(text) > MaxTextSize {
		return ErrTextTooLong
	}
	return nil
}
