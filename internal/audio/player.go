package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// PlayerState represents the current state of a player.
type PlayerState int32

// Player states.
const (
	StateStopped PlayerState = iota
	StatePlaying
	StateClosed
)

// String returns the string representation of the state.
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

// ErrPlayerClosed is returned when a closed player is asked to play.
var ErrPlayerClosed = errors.New("player is closed")

// Player plays PCM audio in the format given by its PlayerConfig.
type Player interface {
	Play(pcm []byte) error
	Stop() error
	IsPlaying() bool
	Close() error
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	Channels   int // 1 = mono, 2 = stereo
	BitDepth   int // 16 bits per sample
	BufferSize int // Buffer size in bytes
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1,
		BitDepth:   16,
		BufferSize: 4096,
	}
}

// Validate checks the configuration is one oto can play.
func (c PlayerConfig) Validate() error {
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}
	if c.BitDepth != 16 {
		return fmt.Errorf("bit depth must be 16, got %d", c.BitDepth)
	}
	if c.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// Duration returns how long pcm plays for.
func (c PlayerConfig) Duration(pcm []byte) time.Duration {
	frame := c.Channels * c.BitDepth / 8
	if frame <= 0 || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(pcm)/frame) * time.Second / time.Duration(c.SampleRate)
}

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func otoContext(cfg PlayerConfig) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   time.Duration(cfg.BufferSize) * time.Second / time.Duration(cfg.SampleRate*cfg.Channels*2),
		}
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(op)
		if otoErr == nil {
			<-ready
		}
	})
	if otoErr != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", otoErr)
	}
	return otoCtx, nil
}

// OtoPlayer plays audio through the system's audio device.
type OtoPlayer struct {
	cfg    PlayerConfig
	ctx    *oto.Context
	player *oto.Player

	// pcm stays referenced while oto reads from it.
	pcm []byte

	mu     sync.Mutex
	closed bool
}

// NewPlayer opens the audio device.
func NewPlayer(cfg PlayerConfig) (*OtoPlayer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ctx, err := otoContext(cfg)
	if err != nil {
		return nil, err
	}
	return &OtoPlayer{cfg: cfg, ctx: ctx}, nil
}

// Play stops anything already playing and starts pcm.
func (p *OtoPlayer) Play(pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPlayerClosed
	}
	p.stop()

	p.pcm = make([]byte, len(pcm))
	copy(p.pcm, pcm)
	p.player = p.ctx.NewPlayer(bytes.NewReader(p.pcm))
	p.player.Play()
	return nil
}

// Stop halts playback.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stop()
}

func (p *OtoPlayer) stop() error {
	if p.player == nil {
		return nil
	}
	p.player.Pause()
	if err := p.player.Err(); err != nil {
		p.player, p.pcm = nil, nil
		return fmt.Errorf("playback failed: %w", err)
	}
	p.player, p.pcm = nil, nil
	return nil
}

// IsPlaying reports whether audio is still playing. It turns false by itself
// once the audio has been played to the end.
func (p *OtoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.player != nil && p.player.IsPlaying()
}

// State returns the current player state.
func (p *OtoPlayer) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return StateClosed
	case p.player != nil && p.player.IsPlaying():
		return StatePlaying
	default:
		return StateStopped
	}
}

// Close stops playback. The oto context lives for the rest of the process.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.stop()
}
