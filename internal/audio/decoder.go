package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const decodeTimeout = 30 * time.Second

// Decoder turns compressed audio into raw PCM.
type Decoder interface {
	Decode(ctx context.Context, data []byte) ([]byte, error)

	// Available reports whether Decode can run at all.
	Available() bool
}

// FFmpegDecoder decodes with the ffmpeg binary into signed 16-bit little
// endian PCM matching a PlayerConfig.
type FFmpegDecoder struct {
	Binary string
	Config PlayerConfig
}

// NewFFmpegDecoder returns a decoder for the player configuration. An empty
// binary means "ffmpeg" from PATH.
func NewFFmpegDecoder(binary string, cfg PlayerConfig) *FFmpegDecoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegDecoder{Binary: binary, Config: cfg}
}

// Available reports whether the ffmpeg binary can be found.
func (d *FFmpegDecoder) Available() bool {
	_, err := exec.LookPath(d.Binary)
	return err == nil
}

func (d *FFmpegDecoder) args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", strconv.Itoa(d.Config.SampleRate),
		"-ac", strconv.Itoa(d.Config.Channels),
		"pipe:1",
	}
}

// Decode pipes data through ffmpeg and returns the PCM it writes.
func (d *FFmpegDecoder) Decode(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("audio data is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, decodeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.Binary, d.args()...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg timed out: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("ffmpeg failed: %w", err)
	}

	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg produced no audio")
	}
	return stdout.Bytes(), nil
}
