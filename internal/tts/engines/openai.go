package engines

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds configuration for the OpenAI speech engine.
type OpenAIConfig struct {
	// BaseURL overrides the API root (for proxies and tests).
	BaseURL string

	// Voice defaults to alloy.
	Voice string

	// Speed is passed through when non-zero (0.25 to 4.0).
	Speed float64

	HTTPClient *http.Client
}

// OpenAIEngine calls the OpenAI audio/speech endpoint and asks for raw PCM,
// which OpenAI delivers at 24 kHz mono.
type OpenAIEngine struct {
	cfg OpenAIConfig
}

var _ Engine = (*OpenAIEngine)(nil)

func NewOpenAIEngine(cfg OpenAIConfig) *OpenAIEngine {
	if cfg.Voice == "" {
		cfg.Voice = string(openai.VoiceAlloy)
	}
	return &OpenAIEngine{cfg: cfg}
}

func (e *OpenAIEngine) Name() string         { return ProviderOpenAI }
func (e *OpenAIEngine) DefaultModel() string { return string(openai.TTSModel1) }

func (e *OpenAIEngine) Synthesize(ctx context.Context, text, model, apiKey string) ([]byte, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingKey)
	}
	if model == "" {
		model = e.DefaultModel()
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if e.cfg.BaseURL != "" {
		clientCfg.BaseURL = e.cfg.BaseURL
	}
	if e.cfg.HTTPClient != nil {
		clientCfg.HTTPClient = e.cfg.HTTPClient
	}
	client := openai.NewClientWithConfig(clientCfg)

	resp, err := client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(model),
		Input:          text,
		Voice:          openai.SpeechVoice(e.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          e.cfg.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: create speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("openai: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("openai: empty audio response")
	}
	return audio, nil
}
