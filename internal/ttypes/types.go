// Package ttypes contains the contracts shared by the speech packages.
// It exists to break import cycles between tts, engines, audio, settings and
// server.
package ttypes

import "context"

// VoiceSettings is a snapshot of the user's voice preferences.
type VoiceSettings struct {
	// Provider is the configured provider name. Empty means "echo".
	Provider string

	// Model is the provider model. Empty means the provider default.
	Model string

	// APIKey is the credential for Provider, possibly empty.
	APIKey string

	// HasKey reports whether a usable key is present.
	HasKey bool
}

// SettingsProvider supplies the current voice settings. It is consulted on
// every utterance so edits take effect without a restart.
type SettingsProvider interface {
	VoiceSettings(ctx context.Context) (VoiceSettings, error)
}

// SynthesisRequest is what the orchestrator asks a synthesizer for.
type SynthesisRequest struct {
	Text     string
	Provider string
	Model    string
	APIKey   string
}

// SynthesisResult carries the audio and the provider that actually produced
// it. Provider differs from the requested one when the backend fell back.
type SynthesisResult struct {
	Audio    []byte
	Provider string
	Model    string
}

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisResult, error)
}

// AudioPlayer defines the contract for audio playback.
type AudioPlayer interface {
	// Play starts playback of audio data.
	Play(audio []byte) error

	// Stop halts any current playback.
	Stop() error

	// IsPlaying returns whether audio is currently playing.
	IsPlaying() bool

	// SetVolume sets the playback volume (0.0 to 1.0).
	SetVolume(volume float64) error

	// Close releases the audio device.
	Close() error
}

// AudioCache stores synthesized clips by key.
type AudioCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, audio []byte) error
}
