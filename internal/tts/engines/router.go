package engines

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/parrot/internal/audio"
	"github.com/dgnsrekt/parrot/internal/ttypes"
)

// RouterConfig configures a Router.
type RouterConfig struct {
	// Fallback answers requests the selected engine cannot serve. Nil makes
	// those failures errors instead.
	Fallback Engine

	// RequestsPerMinute limits calls to each remote engine. Zero disables
	// limiting.
	RequestsPerMinute int

	Logger *log.Logger
}

// RouterStats counts routing outcomes.
type RouterStats struct {
	Requests  int64
	Fallbacks int64
	Failures  int64
}

// Router selects an engine by provider name. When the engine is unknown,
// lacks a key or fails, the request is answered by the fallback engine and
// the result reports the fallback's provider name. Cancellation and invalid
// input are never degraded.
type Router struct {
	mu       sync.RWMutex
	engines  map[string]Engine
	limiters map[string]*rate.Limiter

	fallback Engine
	every    time.Duration
	logger   *log.Logger

	requests  atomic.Int64
	fallbacks atomic.Int64
	failures  atomic.Int64
}

var _ ttypes.Synthesizer = (*Router)(nil)

// NewRouter builds a router over the given engines.
func NewRouter(cfg RouterConfig, engines ...Engine) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := &Router{
		engines:  make(map[string]Engine),
		limiters: make(map[string]*rate.Limiter),
		fallback: cfg.Fallback,
		logger:   logger.With("component", "router"),
	}
	if cfg.RequestsPerMinute > 0 {
		r.every = time.Minute / time.Duration(cfg.RequestsPerMinute)
	}
	for _, e := range engines {
		r.Register(e)
	}
	return r
}

// Register adds or replaces the engine for e.Name().
func (r *Router) Register(e Engine) {
	name := strings.ToLower(e.Name())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = e
	if r.every > 0 && name != ProviderEcho {
		r.limiters[name] = rate.NewLimiter(rate.Every(r.every), 1)
	}
}

// Providers lists registered provider names.
func (r *Router) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	return names
}

func (r *Router) Synthesize(ctx context.Context, req ttypes.SynthesisRequest) (ttypes.SynthesisResult, error) {
	r.requests.Add(1)

	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = ProviderEcho
	}

	r.mu.RLock()
	engine, ok := r.engines[provider]
	limiter := r.limiters[provider]
	r.mu.RUnlock()

	if !ok {
		if provider == ProviderEcho && r.fallback != nil {
			return r.run(ctx, r.fallback, req.Text, req.Model, "")
		}
		return r.degrade(ctx, req, fmt.Errorf("%w: %s", ErrUnknownProvider, provider))
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return ttypes.SynthesisResult{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	res, err := r.run(ctx, engine, req.Text, req.Model, req.APIKey)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil || errors.Is(err, ErrEmptyText) || errors.Is(err, ErrTextTooLong) {
		r.failures.Add(1)
		return ttypes.SynthesisResult{}, err
	}
	return r.degrade(ctx, req, err)
}

func (r *Router) Stats() RouterStats {
	return RouterStats{
		Requests:  r.requests.Load(),
		Fallbacks: r.fallbacks.Load(),
		Failures:  r.failures.Load(),
	}
}

func (r *Router) run(ctx context.Context, e Engine, text, model, apiKey string) (ttypes.SynthesisResult, error) {
	if model == "" {
		model = e.DefaultModel()
	}
	pcm, err := e.Synthesize(ctx, text, model, apiKey)
	if err != nil {
		return ttypes.SynthesisResult{}, err
	}
	if err := audio.ValidatePCM(pcm, 1); err != nil {
		return ttypes.SynthesisResult{}, fmt.Errorf("%s: %w", e.Name(), err)
	}
	return ttypes.SynthesisResult{Audio: pcm, Provider: e.Name(), Model: model}, nil
}

func (r *Router) degrade(ctx context.Context, req ttypes.SynthesisRequest, cause error) (ttypes.SynthesisResult, error) {
	if r.fallback == nil {
		r.failures.Add(1)
		return ttypes.SynthesisResult{}, cause
	}

	r.logger.Warn("synthesis fallback",
		"provider", req.Provider,
		"fallback", r.fallback.Name(),
		"err", cause)

	res, err := r.run(ctx, r.fallback, req.Text, "", "")
	if err != nil {
		r.failures.Add(1)
		return ttypes.SynthesisResult{}, fmt.Errorf("fallback after %v: %w", cause, err)
	}
	r.fallbacks.Add(1)
	return res, nil
}
