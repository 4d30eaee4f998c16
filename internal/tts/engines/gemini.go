package engines

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.5-flash-preview-tts"
	defaultGeminiVoice = "Kore"
)

// GeminiConfig holds configuration for the Gemini speech engine.
type GeminiConfig struct {
	// BaseURL overrides the API root (for proxies and tests).
	BaseURL string

	// Voice is a prebuilt Gemini voice name. Defaults to Kore.
	Voice string

	HTTPClient *http.Client
}

// GeminiEngine asks a Gemini TTS model for an audio-only response. The
// inline audio is 24 kHz mono PCM, the same format the other engines emit.
type GeminiEngine struct {
	cfg GeminiConfig
}

var _ Engine = (*GeminiEngine)(nil)

func NewGeminiEngine(cfg GeminiConfig) *GeminiEngine {
	if cfg.Voice == "" {
		cfg.Voice = defaultGeminiVoice
	}
	return &GeminiEngine{cfg: cfg}
}

func (e *GeminiEngine) Name() string         { return ProviderGemini }
func (e *GeminiEngine) DefaultModel() string { return defaultGeminiModel }

func (e *GeminiEngine) Synthesize(ctx context.Context, text, model, apiKey string) ([]byte, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingKey)
	}
	if model == "" {
		model = e.DefaultModel()
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: e.cfg.HTTPClient,
	}
	if e.cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = e.cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: e.cfg.Voice},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	var audio []byte
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil {
				audio = append(audio, part.InlineData.Data...)
			}
		}
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("gemini: empty audio response")
	}
	return audio, nil
}
