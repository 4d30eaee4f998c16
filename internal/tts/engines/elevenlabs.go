package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// ElevenLabsBaseURL is the public API root.
	ElevenLabsBaseURL = "https://api.elevenlabs.io/v1"

	defaultElevenLabsVoice = "21m00Tcm4TlvDq8ikWAM"
	elevenLabsFormat       = "pcm_24000"
)

// ElevenLabsConfig holds configuration for the ElevenLabs engine.
type ElevenLabsConfig struct {
	BaseURL    string
	VoiceID    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// ElevenLabsEngine calls the ElevenLabs text-to-speech endpoint.
type ElevenLabsEngine struct {
	baseURL string
	voiceID string
	client  *http.Client
}

var _ Engine = (*ElevenLabsEngine)(nil)

func NewElevenLabsEngine(cfg ElevenLabsConfig) *ElevenLabsEngine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ElevenLabsBaseURL
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = defaultElevenLabsVoice
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &ElevenLabsEngine{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		voiceID: cfg.VoiceID,
		client:  client,
	}
}

func (e *ElevenLabsEngine) Name() string         { return ProviderElevenLabs }
func (e *ElevenLabsEngine) DefaultModel() string { return "eleven_turbo_v2_5" }

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

func (e *ElevenLabsEngine) Synthesize(ctx context.Context, text, model, apiKey string) ([]byte, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("elevenlabs: %w", ErrMissingKey)
	}
	if model == "" {
		model = e.DefaultModel()
	}

	body, err := json.Marshal(elevenLabsRequest{Text: text, ModelID: model})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(e.voiceID), elevenLabsFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/pcm")
	req.Header.Set("xi-api-key", apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs: API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read audio: %w", err)
	}
	return audio, nil
}
