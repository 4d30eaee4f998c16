package tts

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/parrot/internal/audio"
	"github.com/dgnsrekt/parrot/internal/cache"
	"github.com/dgnsrekt/parrot/internal/ttypes"
)

type fakeSettings struct {
	mu    sync.Mutex
	vs    ttypes.VoiceSettings
	err   error
	reads int
}

func (f *fakeSettings) VoiceSettings(context.Context) (ttypes.VoiceSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.vs, f.err
}

func (f *fakeSettings) set(vs ttypes.VoiceSettings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vs = vs
}

type fakeSynth struct {
	mu       sync.Mutex
	calls    []ttypes.SynthesisRequest
	provider string // response provider; empty echoes the request
	err      error
	delay    time.Duration
}

func (f *fakeSynth) Synthesize(ctx context.Context, req ttypes.SynthesisRequest) (ttypes.SynthesisResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return ttypes.SynthesisResult{}, f.err
	}
	provider := f.provider
	if provider == "" {
		provider = req.Provider
	}
	return ttypes.SynthesisResult{
		Audio:    []byte("audio:" + req.Text),
		Provider: provider,
		Model:    req.Model,
	}, nil
}

func (f *fakeSynth) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type harness struct {
	ctrl     *Controller
	settings *fakeSettings
	synth    *fakeSynth
	player   *audio.MockPlayer
	cache    *cache.MemoryCache
}

func newHarness(t *testing.T, vs ttypes.VoiceSettings) *harness {
	t.Helper()
	h := &harness{
		settings: &fakeSettings{vs: vs},
		synth:    &fakeSynth{},
		player:   audio.DefaultMockPlayer(),
		cache:    cache.NewMemoryCache(1 << 20),
	}
	ctrl, err := NewController(h.settings, h.synth, h.player,
		WithCache(h.cache), WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

var openAISettings = ttypes.VoiceSettings{Provider: "openai", Model: "tts-1", APIKey: "sk-x", HasKey: true}

func TestSpeak_SynthesizesCachesAndPlays(t *testing.T) {
	h := newHarness(t, openAISettings)

	res, err := h.ctrl.Speak(context.Background(), "Hi")
	require.NoError(t, err)

	assert.False(t, res.FellBack)
	assert.False(t, res.CacheHit)
	require.Len(t, h.synth.calls, 1)
	assert.Equal(t, ttypes.SynthesisRequest{Text: "Hi", Provider: "openai", Model: "tts-1", APIKey: "sk-x"}, h.synth.calls[0])

	assert.True(t, h.cache.Contains("openai|tts-1|Hi"))
	assert.Equal(t, []string{"stop", "play"}, h.player.Calls())
	assert.Equal(t, []byte("audio:Hi"), h.player.LastAudio())
}

func TestSpeak_SecondCallIsServedFromCache(t *testing.T) {
	h := newHarness(t, openAISettings)
	ctx := context.Background()

	_, err := h.ctrl.Speak(ctx, "Hi")
	require.NoError(t, err)
	res, err := h.ctrl.Speak(ctx, "Hi")
	require.NoError(t, err)

	assert.Equal(t, 1, h.synth.count())
	assert.True(t, res.CacheHit)
	assert.False(t, res.FellBack)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, []string{"stop", "play", "stop", "play"}, h.player.Calls())
	assert.Equal(t, []byte("audio:Hi"), h.player.LastAudio())
}

func TestSpeak_TrimsTextBeforeKeying(t *testing.T) {
	h := newHarness(t, openAISettings)
	ctx := context.Background()

	_, err := h.ctrl.Speak(ctx, "  Hi\n")
	require.NoError(t, err)
	_, err = h.ctrl.Speak(ctx, "Hi")
	require.NoError(t, err)

	assert.Equal(t, 1, h.synth.count())
	assert.Equal(t, "Hi", h.synth.calls[0].Text)
}

func TestSpeak_TextIsCaseSensitive(t *testing.T) {
	h := newHarness(t, openAISettings)
	ctx := context.Background()

	_, err := h.ctrl.Speak(ctx, "Hello")
	require.NoError(t, err)
	_, err = h.ctrl.Speak(ctx, "hello")
	require.NoError(t, err)

	assert.Equal(t, 2, h.synth.count())
}

func TestSpeak_ProviderAndModelAreCaseInsensitive(t *testing.T) {
	h := newHarness(t, openAISettings)
	ctx := context.Background()

	_, err := h.ctrl.Speak(ctx, "Hi")
	require.NoError(t, err)

	h.settings.set(ttypes.VoiceSettings{Provider: "OpenAI", Model: "TTS-1", APIKey: "sk-x", HasKey: true})
	res, err := h.ctrl.Speak(ctx, "Hi")
	require.NoError(t, err)

	assert.True(t, res.CacheHit)
	assert.Equal(t, 1, h.synth.count())
}

func TestSpeak_FallbackIsPlayedButNotCached(t *testing.T) {
	h := newHarness(t, ttypes.VoiceSettings{Provider: "openai", APIKey: "sk-x", HasKey: true})
	h.synth.provider = "echo"
	ctx := context.Background()

	res, err := h.ctrl.Speak(ctx, "Hi")
	require.NoError(t, err)
	assert.True(t, res.FellBack)
	assert.Equal(t, "echo", res.Provider)
	assert.False(t, h.cache.Contains("openai|default|Hi"))
	assert.Zero(t, h.cache.Len())
	assert.Equal(t, []string{"stop", "play"}, h.player.Calls())

	_, err = h.ctrl.Speak(ctx, "Hi")
	require.NoError(t, err)
	assert.Equal(t, 2, h.synth.count(), "a fallback must not satisfy later requests")
}

func TestSpeak_ResponseProviderComparedCaseInsensitively(t *testing.T) {
	h := newHarness(t, openAISettings)
	h.synth.provider = "OPENAI"

	res, err := h.ctrl.Speak(context.Background(), "Hi")
	require.NoError(t, err)
	assert.False(t, res.FellBack)
	assert.True(t, h.cache.Contains("openai|tts-1|Hi"))
}

func TestSpeak_EmptyTextFails(t *testing.T) {
	h := newHarness(t, openAISettings)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := h.ctrl.Speak(context.Background(), text)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNothingToPlay)
		assert.True(t, IsInvalidInput(err))
		assert.Equal(t, "nothing to play", err.Error())
	}

	assert.Zero(t, h.synth.count())
	assert.Zero(t, h.settings.reads)
	assert.Empty(t, h.player.Calls())
}

func TestSpeak_MissingKeyFailsBeforeSynthesis(t *testing.T) {
	h := newHarness(t, ttypes.VoiceSettings{Provider: "openai", Model: "tts-1"})

	_, err := h.ctrl.Speak(context.Background(), "Hi")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrKeyRequired)
	assert.True(t, IsInvalidInput(err))
	assert.Equal(t, "key required for provider openai", err.Error())

	var terr *TTSError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "openai", terr.Provider)

	assert.Zero(t, h.synth.count())
	assert.Empty(t, h.player.Calls())
}

func TestSpeak_EchoNeedsNoKey(t *testing.T) {
	for _, provider := range []string{"", "  ", "echo", "ECHO"} {
		h := newHarness(t, ttypes.VoiceSettings{Provider: provider})

		res, err := h.ctrl.Speak(context.Background(), "Hi")
		require.NoError(t, err, "provider %q", provider)
		assert.False(t, res.FellBack)
		require.Len(t, h.synth.calls, 1)
		assert.True(t, h.cache.Contains(CacheKey(h.synth.calls[0].Provider, "", "Hi")))
	}

	h := newHarness(t, ttypes.VoiceSettings{})
	_, err := h.ctrl.Speak(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, "echo", h.synth.calls[0].Provider)
	assert.True(t, h.cache.Contains("echo|default|Hi"))
}

func TestSpeak_SettingsReadEveryCall(t *testing.T) {
	h := newHarness(t, openAISettings)
	ctx := context.Background()

	_, _ = h.ctrl.Speak(ctx, "one")
	_, _ = h.ctrl.Speak(ctx, "one")
	assert.Equal(t, 2, h.settings.reads)
}

func TestSpeak_CollaboratorErrorsPropagateUnchanged(t *testing.T) {
	ctx := context.Background()

	t.Run("settings", func(t *testing.T) {
		h := newHarness(t, openAISettings)
		boom := errors.New("prefs unavailable")
		h.settings.err = boom

		_, err := h.ctrl.Speak(ctx, "Hi")
		assert.Same(t, boom, err)
	})

	t.Run("synthesizer", func(t *testing.T) {
		h := newHarness(t, openAISettings)
		boom := errors.New("502 bad gateway")
		h.synth.err = boom

		_, err := h.ctrl.Speak(ctx, "Hi")
		assert.Same(t, boom, err)
		assert.Zero(t, h.cache.Len())
		assert.Empty(t, h.player.Calls())
	})

	t.Run("player", func(t *testing.T) {
		h := newHarness(t, openAISettings)
		boom := errors.New("device lost")
		h.player.PlayErr = boom

		_, err := h.ctrl.Speak(ctx, "Hi")
		assert.Same(t, boom, err)
		assert.Equal(t, int64(1), h.ctrl.Stats().ErrorCount)
	})
}

func TestSpeak_CorruptCacheEntryIsAMiss(t *testing.T) {
	h := newHarness(t, openAISettings)
	require.NoError(t, h.cache.Put("openai|tts-1|Hi", []byte{0xff, 0x00}))

	res, err := h.ctrl.Speak(context.Background(), "Hi")
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 1, h.synth.count())
	assert.Equal(t, int64(1), h.ctrl.Stats().CorruptClips)

	// The fresh clip replaced the unreadable one.
	res, err = h.ctrl.Speak(context.Background(), "Hi")
	require.NoError(t, err)
	assert.True(t, res.CacheHit)
	assert.Equal(t, int64(1), h.ctrl.Stats().CorruptClips)
}

func TestSpeak_Serialized(t *testing.T) {
	h := newHarness(t, openAISettings)
	h.synth.delay = 5 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.ctrl.Speak(context.Background(), "same text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.synth.count(), "serialized calls should hit the cache after the first")

	calls := h.player.Calls()
	require.Len(t, calls, 16)
	for i := 0; i < len(calls); i += 2 {
		assert.Equal(t, []string{"stop", "play"}, calls[i:i+2])
	}
}

func TestClose(t *testing.T) {
	h := newHarness(t, openAISettings)

	require.NoError(t, h.ctrl.Close())
	assert.True(t, h.ctrl.Closed())
	assert.Equal(t, audio.StateClosed, h.player.State())

	_, err := h.ctrl.Speak(context.Background(), "Hi")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, h.synth.count())

	assert.ErrorIs(t, h.ctrl.Stop(), ErrClosed)
	assert.ErrorIs(t, h.ctrl.Close(), ErrClosed)
}

func TestClose_DuringSynthesisSkipsPlayback(t *testing.T) {
	h := newHarness(t, openAISettings)
	h.synth.delay = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Speak(context.Background(), "Hi")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, h.ctrl.Close())

	err := <-done
	assert.ErrorIs(t, err, ErrClosed)
	assert.NotContains(t, h.player.Calls(), "play")
}

func TestClose_WaitsForPlaybackInProgress(t *testing.T) {
	var (
		ctrl      *Controller
		closeOnce sync.Once
		closed    = make(chan error, 1)
	)
	player := audio.NewMockPlayer(audio.MockCallbacks{
		// Close arrives between Speak's stop and play.
		OnStop: func() {
			closeOnce.Do(func() {
				go func() { closed <- ctrl.Close() }()
				time.Sleep(20 * time.Millisecond)
			})
		},
	})
	ctrl, err := NewController(&fakeSettings{vs: openAISettings}, &fakeSynth{}, player,
		WithCache(cache.NewMemoryCache(1<<20)), WithLogger(log.New(io.Discard)))
	require.NoError(t, err)

	_, err = ctrl.Speak(context.Background(), "Hi")
	require.NoError(t, err)
	require.NoError(t, <-closed)

	assert.Equal(t, []string{"stop", "play", "stop", "close"}, player.Calls())
	assert.Equal(t, audio.StateClosed, player.State())
}

func TestStats(t *testing.T) {
	h := newHarness(t, openAISettings)
	ctx := context.Background()

	_, _ = h.ctrl.Speak(ctx, "a")
	_, _ = h.ctrl.Speak(ctx, "a")
	_, _ = h.ctrl.Speak(ctx, "")

	s := h.ctrl.Stats()
	assert.Equal(t, int64(2), s.Utterances)
	assert.Equal(t, int64(1), s.CacheHits)
	assert.Equal(t, int64(1), s.Syntheses)
	assert.Equal(t, int64(1), s.ErrorCount)
	assert.InDelta(t, 0.5, s.CacheHitRate(), 0.001)
}

func TestNewController_RequiresCollaborators(t *testing.T) {
	player := audio.DefaultMockPlayer()
	settings := &fakeSettings{}
	synth := &fakeSynth{}

	_, err := NewController(nil, synth, player)
	assert.Error(t, err)
	_, err = NewController(settings, nil, player)
	assert.Error(t, err)
	_, err = NewController(settings, synth, nil)
	assert.Error(t, err)

	ctrl, err := NewController(settings, synth, player)
	require.NoError(t, err)
	assert.NotNil(t, ctrl.cache, "a default cache is installed")
}
