package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/parrot/internal/cache"
	"github.com/dgnsrekt/parrot/internal/ttypes"
)

// DefaultCacheCapacity bounds the in-memory cache used when no cache is
// supplied.
const DefaultCacheCapacity = 32 * 1024 * 1024

// Result describes a completed Speak call.
type Result struct {
	// FellBack is true when the synthesizer answered with a different
	// provider than the one requested.
	FellBack bool

	// CacheHit is true when no synthesis call was made.
	CacheHit bool

	// Provider and Model are what actually produced the audio.
	Provider string
	Model    string

	Bytes int
}

// ControllerStats tracks controller activity.
type ControllerStats struct {
	Utterances   int64
	CacheHits    int64
	Syntheses    int64
	Fallbacks    int64
	CorruptClips int64
	ErrorCount   int64
	LastActivity time.Time
}

// CacheHitRate returns hits / utterances.
func (s ControllerStats) CacheHitRate() float64 {
	if s.Utterances == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Utterances)
}

// Controller turns text into played audio. It reads the voice settings on
// every call, serves repeats from the cache, asks the synthesizer otherwise,
// and plays the result, stopping whatever was playing first.
//
// Speak calls are serialized. After Close every call fails with ErrClosed.
type Controller struct {
	settings ttypes.SettingsProvider
	synth    ttypes.Synthesizer
	player   ttypes.AudioPlayer
	cache    ttypes.AudioCache
	logger   *log.Logger

	speakMu sync.Mutex
	closed  atomic.Bool
	// playMu orders player calls against Close.
	playMu sync.Mutex

	statsMu sync.Mutex
	stats   ControllerStats
}

// Option configures a Controller.
type Option func(*Controller)

// WithCache replaces the default in-memory cache.
func WithCache(c ttypes.AudioCache) Option {
	return func(ctrl *Controller) { ctrl.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(ctrl *Controller) { ctrl.logger = l }
}

// NewController creates a Controller. Without WithCache it caches in a
// bounded in-memory LRU.
func NewController(settings ttypes.SettingsProvider, synth ttypes.Synthesizer, player ttypes.AudioPlayer, opts ...Option) (*Controller, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	if synth == nil {
		return nil, fmt.Errorf("synthesizer cannot be nil")
	}
	if player == nil {
		return nil, fmt.Errorf("player cannot be nil")
	}

	c := &Controller{
		settings: settings,
		synth:    synth,
		player:   player,
		stats:    ControllerStats{LastActivity: time.Now()},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewMemoryCache(DefaultCacheCapacity)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	c.logger = c.logger.With("component", "speech")

	return c, nil
}

// Speak plays text with the current voice settings.
//
// Blank text fails with ErrNothingToPlay and a non-echo provider without a
// key fails with a key-required error; neither reaches the synthesizer.
// Errors from the settings, synthesizer and player are returned unchanged.
func (c *Controller) Speak(ctx context.Context, text string) (Result, error) {
	if c.closed.Load() {
		return Result{}, ErrClosed
	}

	c.speakMu.Lock()
	defer c.speakMu.Unlock()

	res, err := c.speak(ctx, text)

	c.statsMu.Lock()
	c.stats.LastActivity = time.Now()
	if err != nil {
		c.stats.ErrorCount++
	} else {
		c.stats.Utterances++
		if res.CacheHit {
			c.stats.CacheHits++
		} else {
			c.stats.Syntheses++
		}
		if res.FellBack {
			c.stats.Fallbacks++
		}
	}
	c.statsMu.Unlock()

	return res, err
}

func (c *Controller) speak(ctx context.Context, text string) (Result, error) {
	if c.closed.Load() {
		return Result{}, ErrClosed
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrNothingToPlay
	}

	vs, err := c.settings.VoiceSettings(ctx)
	if err != nil {
		return Result{}, err
	}

	provider := strings.TrimSpace(vs.Provider)
	if provider == "" {
		provider = EchoProvider
	}
	if !strings.EqualFold(provider, EchoProvider) && !vs.HasKey {
		return Result{}, keyRequired(provider)
	}
	model := strings.TrimSpace(vs.Model)

	key := CacheKey(provider, model, text)
	if clip, ok := c.lookup(key); ok {
		c.logger.Debug("cache hit", "provider", clip.Provider, "model", clip.Model, "bytes", len(clip.Audio))
		if err := c.play(clip.Audio); err != nil {
			return Result{}, err
		}
		return Result{CacheHit: true, Provider: clip.Provider, Model: clip.Model, Bytes: len(clip.Audio)}, nil
	}

	out, err := c.synth.Synthesize(ctx, ttypes.SynthesisRequest{
		Text:     text,
		Provider: provider,
		Model:    model,
		APIKey:   vs.APIKey,
	})
	if err != nil {
		return Result{}, err
	}

	fellBack := !strings.EqualFold(out.Provider, provider)
	if fellBack {
		c.logger.Warn("synthesis fell back", "requested", provider, "provider", out.Provider)
	} else {
		c.store(key, Clip{Provider: out.Provider, Model: out.Model, Audio: out.Audio})
	}

	if err := c.play(out.Audio); err != nil {
		return Result{}, err
	}
	return Result{FellBack: fellBack, Provider: out.Provider, Model: out.Model, Bytes: len(out.Audio)}, nil
}

func (c *Controller) lookup(key string) (Clip, bool) {
	data, ok := c.cache.Get(key)
	if !ok {
		return Clip{}, false
	}
	var clip Clip
	if err := clip.UnmarshalBinary(data); err != nil {
		c.logger.Warn("discarding cache entry", "err", NewTTSError(ErrorCodeCacheCorrupt, "unreadable clip", err))
		c.statsMu.Lock()
		c.stats.CorruptClips++
		c.statsMu.Unlock()
		return Clip{}, false
	}
	return clip, true
}

func (c *Controller) store(key string, clip Clip) {
	data, _ := clip.MarshalBinary()
	if err := c.cache.Put(key, data); err != nil && !errors.Is(err, cache.ErrItemTooLarge) {
		c.logger.Warn("cache write failed", "err", err)
	}
}

// play stops the current clip and starts audio. It returns ErrClosed once the
// controller is closed.
func (c *Controller) play(audio []byte) error {
	c.playMu.Lock()
	defer c.playMu.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.player.Stop(); err != nil {
		return err
	}
	return c.player.Play(audio)
}

// Stop halts playback without closing the controller.
func (c *Controller) Stop() error {
	c.playMu.Lock()
	defer c.playMu.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}
	return c.player.Stop()
}

// Stats returns a snapshot of the controller counters.
func (c *Controller) Stats() ControllerStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	return c.closed.Load()
}

// Close marks the controller closed, stops playback and releases the player.
// Later calls return ErrClosed.
func (c *Controller) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	c.playMu.Lock()
	defer c.playMu.Unlock()

	stopErr := c.player.Stop()
	closeErr := c.player.Close()
	return errors.Join(stopErr, closeErr)
}
