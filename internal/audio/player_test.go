package audio

import (
	"os"
	"testing"
	"time"
)

func TestPlayerConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    PlayerConfig
		expectErr bool
	}{
		{"default", DefaultPlayerConfig(), false},
		{"44100Hz stereo", PlayerConfig{SampleRate: 44100, Channels: 2}, false},
		{"22050Hz", PlayerConfig{SampleRate: 22050, Channels: 1}, false},
		{"odd sample rate", PlayerConfig{SampleRate: 12345, Channels: 1}, true},
		{"three channels", PlayerConfig{SampleRate: 24000, Channels: 3}, true},
		{"negative buffer", PlayerConfig{SampleRate: 24000, Channels: 1, BufferSize: -time.Millisecond}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.config)
			if (err != nil) != tt.expectErr {
				t.Errorf("validateConfig() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	// One second of 24 kHz mono 16-bit audio is 48000 bytes.
	if got := Duration(48000, 24000, 1); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}
	if got := Duration(48000, 24000, 2); got != 500*time.Millisecond {
		t.Errorf("stereo Duration = %v, want 500ms", got)
	}
	if got := Duration(100, 0, 1); got != 0 {
		t.Errorf("zero rate Duration = %v, want 0", got)
	}
}

// TestPlayerDevice needs a real audio device.
func TestPlayerDevice(t *testing.T) {
	if os.Getenv("PARROT_TEST_AUDIO") == "" {
		t.Skip("PARROT_TEST_AUDIO not set")
	}

	p, err := NewPlayer(DefaultPlayerConfig(), nil)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}

	silence := make([]byte, 4800) // 100ms
	if err := p.Play(silence); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsPlaying() {
		t.Error("still playing after Stop")
	}

	if err := p.SetVolume(2); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if p.Volume() != 1 {
		t.Errorf("volume not clamped: %v", p.Volume())
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Play(silence); err != ErrPlayerClosed {
		t.Errorf("Play after Close = %v, want ErrPlayerClosed", err)
	}

	if _, err := NewPlayer(PlayerConfig{SampleRate: 48000, Channels: 2}, nil); err == nil {
		t.Error("expected error reopening the device with a different format")
	}
}
