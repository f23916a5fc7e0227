package audio

import (
	"errors"
	"testing"
	"time"
)

// TestPlayerConfig tests the player configuration validation.
func TestPlayerConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    PlayerConfig
		expectErr bool
	}{
		{"default", DefaultPlayerConfig(), false},
		{"stereo 48000Hz", PlayerConfig{SampleRate: 48000, Channels: 2, BitDepth: 16, BufferSize: 8192}, false},
		{"invalid sample rate", PlayerConfig{SampleRate: 22050, Channels: 1, BitDepth: 16, BufferSize: 4096}, true},
		{"invalid channels", PlayerConfig{SampleRate: 44100, Channels: 3, BitDepth: 16, BufferSize: 4096}, true},
		{"invalid bit depth", PlayerConfig{SampleRate: 44100, Channels: 1, BitDepth: 24, BufferSize: 4096}, true},
		{"invalid buffer", PlayerConfig{SampleRate: 44100, Channels: 1, BitDepth: 16}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.expectErr {
				t.Errorf("Validate() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestConfigDuration(t *testing.T) {
	cfg := DefaultPlayerConfig()

	// one second of 16-bit mono at 44.1kHz
	if d := cfg.Duration(make([]byte, 88200)); d != time.Second {
		t.Errorf("Duration() = %s, want 1s", d)
	}
	if d := (PlayerConfig{}).Duration(make([]byte, 100)); d != 0 {
		t.Errorf("Duration() of empty config = %s", d)
	}
}

func TestPlayerStateString(t *testing.T) {
	tests := map[PlayerState]string{
		StateStopped:    "stopped",
		StatePlaying:    "playing",
		StateClosed:     "closed",
		PlayerState(42): "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestMockPlayerPlaysToEnd(t *testing.T) {
	mp := NewMockPlayer(DefaultPlayerConfig())

	// ~10ms of audio
	if err := mp.Play(make([]byte, 882)); err != nil {
		t.Fatal(err)
	}
	if !mp.IsPlaying() {
		t.Error("should be playing")
	}
	if mp.LastDuration() != 10*time.Millisecond {
		t.Errorf("LastDuration() = %s", mp.LastDuration())
	}

	deadline := time.Now().Add(time.Second)
	for mp.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if mp.IsPlaying() {
		t.Error("playback should end by itself")
	}
	if mp.Stops() != 0 {
		t.Errorf("Stops() = %d, want 0", mp.Stops())
	}
}

func TestMockPlayerStop(t *testing.T) {
	mp := NewMockPlayer(DefaultPlayerConfig())

	if err := mp.Play(make([]byte, 88200*10)); err != nil {
		t.Fatal(err)
	}
	if err := mp.Stop(); err != nil {
		t.Fatal(err)
	}
	if mp.IsPlaying() || mp.State() != StateStopped {
		t.Errorf("state = %s", mp.State())
	}
	if mp.Stops() != 1 {
		t.Errorf("Stops() = %d, want 1", mp.Stops())
	}

	_ = mp.Stop()
	if mp.Stops() != 1 {
		t.Error("stopping a stopped player should not count")
	}
}

func TestMockPlayerErrors(t *testing.T) {
	mp := NewMockPlayer(DefaultPlayerConfig())

	if err := mp.Play(nil); err == nil {
		t.Error("expected error for empty audio")
	}

	boom := errors.New("no audio device")
	mp.FailWith(boom)
	if err := mp.Play([]byte{0, 0}); !errors.Is(err, boom) {
		t.Errorf("Play() error = %v, want %v", err, boom)
	}

	mp.FailWith(nil)
	_ = mp.Close()
	if err := mp.Play([]byte{0, 0}); !errors.Is(err, ErrPlayerClosed) {
		t.Errorf("Play() after Close error = %v", err)
	}
	if len(mp.Played()) != 0 {
		t.Errorf("Played() = %d buffers, want 0", len(mp.Played()))
	}
}
