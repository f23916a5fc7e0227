package audio

import (
	"errors"
	"sync"
	"time"
)

// MockPlayer simulates playback without producing sound. Playback ends on
// its own after the duration the PCM would take to play.
type MockPlayer struct {
	cfg PlayerConfig

	mu       sync.Mutex
	state    PlayerState
	timer    *time.Timer
	played   [][]byte
	stops    int
	playErr  error
	duration time.Duration
}

// NewMockPlayer creates a mock player for the given format.
func NewMockPlayer(cfg PlayerConfig) *MockPlayer {
	return &MockPlayer{cfg: cfg}
}

// FailWith makes every following Play return err.
func (mp *MockPlayer) FailWith(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.playErr = err
}

// Play starts simulated playback of pcm.
func (mp *MockPlayer) Play(pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.state == StateClosed {
		return ErrPlayerClosed
	}
	if mp.playErr != nil {
		return mp.playErr
	}
	mp.stop()

	data := make([]byte, len(pcm))
	copy(data, pcm)
	mp.played = append(mp.played, data)
	mp.duration = mp.cfg.Duration(pcm)
	mp.state = StatePlaying

	mp.timer = time.AfterFunc(mp.duration, func() {
		mp.mu.Lock()
		defer mp.mu.Unlock()
		if mp.state == StatePlaying {
			mp.state = StateStopped
		}
	})
	return nil
}

// Stop halts simulated playback.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.state == StatePlaying {
		mp.stops++
	}
	mp.stop()
	return nil
}

func (mp *MockPlayer) stop() {
	if mp.timer != nil {
		mp.timer.Stop()
		mp.timer = nil
	}
	if mp.state == StatePlaying {
		mp.state = StateStopped
	}
}

// IsPlaying reports whether simulated playback is running.
func (mp *MockPlayer) IsPlaying() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state == StatePlaying
}

// State returns the current player state.
func (mp *MockPlayer) State() PlayerState {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state
}

// Close stops playback; later calls to Play fail.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.stop()
	mp.state = StateClosed
	return nil
}

// Played returns every buffer passed to Play.
func (mp *MockPlayer) Played() [][]byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([][]byte(nil), mp.played...)
}

// Stops returns how many times playing audio was stopped.
func (mp *MockPlayer) Stops() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.stops
}

// LastDuration returns the simulated length of the last played buffer.
func (mp *MockPlayer) LastDuration() time.Duration {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.duration
}
