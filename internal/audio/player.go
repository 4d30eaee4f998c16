package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// ErrPlayerClosed is returned by Play after Close.
var ErrPlayerClosed = errors.New("player is closed")

// oto permits a single context per process.
var (
	otoOnce    sync.Once
	otoCtx     *oto.Context
	otoRate    int
	otoChans   int
	otoInitErr error
)

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int           // Hz; every engine emits 24000
	Channels   int           // 1 = mono, 2 = stereo
	BufferSize time.Duration // device buffer, zero for the oto default
}

// DefaultPlayerConfig matches the PCM format produced by the engines.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 24000,
		Channels:   1,
		BufferSize: 100 * time.Millisecond,
	}
}

func validateConfig(cfg PlayerConfig) error {
	switch cfg.SampleRate {
	case 16000, 22050, 24000, 44100, 48000:
	default:
		return fmt.Errorf("unsupported sample rate %d Hz", cfg.SampleRate)
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", cfg.Channels)
	}
	if cfg.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	return nil
}

// Player plays signed 16-bit little-endian PCM through the system audio
// device. Only one clip plays at a time; Play replaces whatever is playing.
type Player struct {
	mu     sync.Mutex
	ctx    *oto.Context
	cur    *oto.Player
	data   []byte // keeps the clip alive while oto reads it
	closed bool

	cfg    PlayerConfig
	volume atomic.Uint64 // math.Float64bits
	logger *log.Logger
}

// NewPlayer opens the audio device. The first successful call fixes the
// sample format for the lifetime of the process.
func NewPlayer(cfg PlayerConfig, logger *log.Logger) (*Player, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   cfg.BufferSize,
		})
		if err != nil {
			otoInitErr = fmt.Errorf("open audio device: %w", err)
			return
		}
		<-ready
		otoCtx, otoRate, otoChans = ctx, cfg.SampleRate, cfg.Channels
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoRate != cfg.SampleRate || otoChans != cfg.Channels {
		return nil, fmt.Errorf("audio device already opened at %d Hz/%d ch", otoRate, otoChans)
	}

	p := &Player{ctx: otoCtx, cfg: cfg, logger: logger.With("component", "player")}
	p.volume.Store(math.Float64bits(1))
	return p, nil
}

// Play stops the current clip and starts audio. The slice is copied.
func (p *Player) Play(audio []byte) error {
	if err := ValidatePCM(audio, p.cfg.Channels); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPlayerClosed
	}
	p.stopLocked()

	p.data = append([]byte(nil), audio...)
	p.cur = p.ctx.NewPlayer(bytes.NewReader(p.data))
	p.cur.SetVolume(p.Volume())
	p.cur.Play()

	p.logger.Debug("playing clip", "bytes", len(p.data), "duration", Duration(len(p.data), p.cfg.SampleRate, p.cfg.Channels))
	return nil
}

// Stop halts playback. Stopping an idle or closed player is a no-op.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) stopLocked() error {
	if p.cur == nil {
		return nil
	}
	p.cur.Pause()
	err := p.cur.Close()
	p.cur = nil
	p.data = nil
	return err
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur != nil && p.cur.IsPlaying()
}

// SetVolume sets the playback volume, clamped to 0..1.
func (p *Player) SetVolume(volume float64) error {
	if math.IsNaN(volume) {
		return errors.New("volume is NaN")
	}
	volume = math.Max(0, math.Min(1, volume))
	p.volume.Store(math.Float64bits(volume))

	p.mu.Lock()
	if p.cur != nil {
		p.cur.SetVolume(volume)
	}
	p.mu.Unlock()
	return nil
}

func (p *Player) Volume() float64 {
	return math.Float64frombits(p.volume.Load())
}

// Wait blocks until the current clip finishes or done is closed.
func (p *Player) Wait(done <-chan struct{}) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for p.IsPlaying() {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// Close stops playback and releases the player. The shared device stays open.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	err := p.stopLocked()
	p.closed = true
	return err
}
