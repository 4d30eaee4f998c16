package main

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/parrot/internal/audio"
	"github.com/dgnsrekt/parrot/internal/cache"
	"github.com/dgnsrekt/parrot/internal/config"
	"github.com/dgnsrekt/parrot/internal/settings"
	"github.com/dgnsrekt/parrot/internal/tts/engines"
	"github.com/dgnsrekt/parrot/internal/ttypes"
)

func openSettings() (*settings.Store, error) {
	dir := settingsDir
	if dir == "" {
		var err error
		if dir, err = settings.DefaultDir(); err != nil {
			return nil, err
		}
	}
	return settings.Open(dir, logger)
}

// newRouter registers every built-in engine behind an echo fallback.
func newRouter(cfg config.Config, l *log.Logger) *engines.Router {
	echo := engines.EchoEngine{}
	return engines.NewRouter(
		engines.RouterConfig{
			Fallback:          echo,
			RequestsPerMinute: cfg.RequestsPerMinute,
			Logger:            l,
		},
		echo,
		engines.NewOpenAIEngine(engines.OpenAIConfig{BaseURL: cfg.OpenAIBaseURL}),
		engines.NewElevenLabsEngine(engines.ElevenLabsConfig{
			BaseURL: cfg.ElevenLabsBaseURL,
			VoiceID: cfg.ElevenLabsVoiceID,
		}),
		engines.NewGeminiEngine(engines.GeminiConfig{
			BaseURL: cfg.GeminiBaseURL,
			Voice:   cfg.GeminiVoice,
		}),
	)
}

// newSynthesizer talks to a remote endpoint when one is configured and
// synthesizes in-process otherwise.
func newSynthesizer(cfg config.Config, l *log.Logger) (ttypes.Synthesizer, error) {
	if cfg.Endpoint != "" {
		l.Debug("using remote endpoint", "url", cfg.Endpoint)
		return engines.NewClient(engines.ClientConfig{
			BaseURL:           cfg.Endpoint,
			Timeout:           cfg.EndpointTimeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		})
	}
	return newRouter(cfg, l), nil
}

func newCache(ctx context.Context, cfg config.Config, l *log.Logger) (*cache.Manager, error) {
	return cache.NewManager(ctx, cfg.Cache(), l)
}

// waiter is implemented by both players.
type waiter interface {
	Wait(done <-chan struct{})
}

type player interface {
	ttypes.AudioPlayer
	waiter
}

// newPlayer opens the audio device at the engines' output rate.
func newPlayer(dryRun bool, l *log.Logger) (player, error) {
	if dryRun {
		return audio.DefaultMockPlayer(), nil
	}
	pc := audio.DefaultPlayerConfig()
	pc.SampleRate = engines.SampleRate
	return audio.NewPlayer(pc, l)
}
