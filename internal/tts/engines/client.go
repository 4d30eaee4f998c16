package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgnsrekt/parrot/internal/ttypes"
)

// Headers set by the synthesis endpoint on audio responses.
const (
	HeaderProvider    = "X-Parrot-Provider"
	HeaderModel       = "X-Parrot-Model"
	HeaderSynthesisID = "X-Parrot-Synthesis-ID"
)

// SpeechRequest is the JSON body of POST /v1/speech.
type SpeechRequest struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Client is a Synthesizer backed by a remote parrot endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

var _ ttypes.Synthesizer = (*Client)(nil)

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("endpoint: base url is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	c := &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), http: hc}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c, nil
}

// Synthesize posts the request and returns the audio together with the
// provider the endpoint reports having used.
func (c *Client) Synthesize(ctx context.Context, req ttypes.SynthesisRequest) (ttypes.SynthesisResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return ttypes.SynthesisResult{}, fmt.Errorf("endpoint: rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(SpeechRequest{Text: req.Text, Provider: req.Provider, Model: req.Model})
	if err != nil {
		return ttypes.SynthesisResult{}, fmt.Errorf("endpoint: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/speech", bytes.NewReader(body))
	if err != nil {
		return ttypes.SynthesisResult{}, fmt.Errorf("endpoint: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/octet-stream")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ttypes.SynthesisResult{}, fmt.Errorf("endpoint: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ttypes.SynthesisResult{}, decodeError(resp)
	}

	// Without the provider the caller cannot tell a fallback from a real clip.
	provider := resp.Header.Get(HeaderProvider)
	if provider == "" {
		return ttypes.SynthesisResult{}, fmt.Errorf("endpoint: response missing %s header", HeaderProvider)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return ttypes.SynthesisResult{}, fmt.Errorf("endpoint: read audio: %w", err)
	}

	return ttypes.SynthesisResult{
		Audio:    audio,
		Provider: provider,
		Model:    resp.Header.Get(HeaderModel),
	}, nil
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("endpoint: create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("endpoint: http request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("endpoint: unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}

// ErrorBody is the JSON error document returned by the endpoint.
type ErrorBody struct {
	Error string `json:"error"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return fmt.Errorf("endpoint: status %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("endpoint: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
