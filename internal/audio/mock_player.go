package audio

import (
	"sync"
	"time"
)

// PlayerState represents the state of a MockPlayer.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnPlay  func(audio []byte)
	OnStop  func()
	OnClose func()
}

// MockPlayer satisfies ttypes.AudioPlayer without an audio device. It
// records every call in order and pretends each clip lasts as long as it
// would at the configured sample rate.
type MockPlayer struct {
	mu        sync.Mutex
	state     PlayerState
	startedAt time.Time
	duration  time.Duration
	last      []byte
	volume    float64
	calls     []string

	sampleRate int
	callbacks  MockCallbacks

	// PlayErr and StopErr, when set, are returned by Play and Stop.
	PlayErr error
	StopErr error
}

// DefaultMockPlayer returns a mock that assumes 24 kHz mono PCM.
func DefaultMockPlayer() *MockPlayer {
	return &MockPlayer{volume: 1, sampleRate: 24000}
}

// NewMockPlayer creates a mock with callbacks.
func NewMockPlayer(callbacks MockCallbacks) *MockPlayer {
	mp := DefaultMockPlayer()
	mp.callbacks = callbacks
	return mp
}

func (mp *MockPlayer) Play(audio []byte) error {
	mp.mu.Lock()
	mp.calls = append(mp.calls, "play")
	if mp.state == StateClosed {
		mp.mu.Unlock()
		return ErrPlayerClosed
	}
	if mp.PlayErr != nil {
		err := mp.PlayErr
		mp.mu.Unlock()
		return err
	}

	mp.last = append([]byte(nil), audio...)
	mp.duration = Duration(len(audio), mp.sampleRate, 1)
	mp.startedAt = time.Now()
	mp.state = StatePlaying
	cb := mp.callbacks.OnPlay
	mp.mu.Unlock()

	if cb != nil {
		cb(audio)
	}
	return nil
}

func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	mp.calls = append(mp.calls, "stop")
	if mp.StopErr != nil {
		err := mp.StopErr
		mp.mu.Unlock()
		return err
	}
	if mp.state == StatePlaying {
		mp.state = StateStopped
	}
	cb := mp.callbacks.OnStop
	mp.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

func (mp *MockPlayer) IsPlaying() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.state == StatePlaying && time.Since(mp.startedAt) >= mp.duration {
		mp.state = StateStopped
	}
	return mp.state == StatePlaying
}

func (mp *MockPlayer) SetVolume(volume float64) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.volume = volume
	return nil
}

func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	mp.calls = append(mp.calls, "close")
	mp.state = StateClosed
	cb := mp.callbacks.OnClose
	mp.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// Wait blocks until the simulated clip ends or done is closed.
func (mp *MockPlayer) Wait(done <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for mp.IsPlaying() {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// Calls returns the recorded call sequence.
func (mp *MockPlayer) Calls() []string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]string(nil), mp.calls...)
}

// LastAudio returns the most recently played clip.
func (mp *MockPlayer) LastAudio() []byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.last
}

func (mp *MockPlayer) State() PlayerState {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state
}

func (mp *MockPlayer) Volume() float64 {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.volume
}

// Reset clears the recorded calls.
func (mp *MockPlayer) Reset() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.calls = nil
}
