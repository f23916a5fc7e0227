package audio

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func TestFFmpegDecoderArgs(t *testing.T) {
	d := NewFFmpegDecoder("", DefaultPlayerConfig())
	if d.Binary != "ffmpeg" {
		t.Errorf("Binary = %q", d.Binary)
	}

	args := strings.Join(d.args(), " ")
	for _, want := range []string{"-i pipe:0", "-f s16le", "-ar 44100", "-ac 1", "pipe:1"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestFFmpegDecoderErrors(t *testing.T) {
	d := NewFFmpegDecoder("knoxify-no-such-ffmpeg", DefaultPlayerConfig())

	if d.Available() {
		t.Fatal("binary should not be found")
	}
	if _, err := d.Decode(context.Background(), nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := d.Decode(context.Background(), []byte("ID3")); err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestFFmpegDecoderRejectsGarbage(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	d := NewFFmpegDecoder("ffmpeg", DefaultPlayerConfig())
	if _, err := d.Decode(context.Background(), []byte("definitely not audio")); err == nil {
		t.Error("expected ffmpeg to reject garbage input")
	}
}
