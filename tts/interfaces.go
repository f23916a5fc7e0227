package tts

import (
	"context"
	"io"

	"github.com/knoxify/knoxify/internal/client"
)

// Client is the part of the server API the controller needs.
type Client interface {
	// Upload submits the file and returns the created job id.
	Upload(ctx context.Context, filename string, r io.Reader, voice string) (string, error)

	// Status returns the current state of a job.
	Status(ctx context.Context, jobID string) (client.JobStatus, error)
}

// Status is the content of the status banner. The zero value hides it.
type Status struct {
	Message string
	Phase   Phase
}

// Audio is the content of the audio panel. The zero value hides it. A
// visible panel with no URL means the job finished without a download link.
type Audio struct {
	Visible bool
	URL     string
}

// View receives every UI update the controller makes.
type View interface {
	// RenderStatus shows the status banner, or hides it for a zero Status.
	RenderStatus(s Status)

	// RenderError shows the error banner, or hides it for "".
	RenderError(msg string)

	// RenderAudio shows the audio panel, or hides it for a zero Audio.
	RenderAudio(a Audio)

	// RenderFile sets the file picker label.
	RenderFile(label string, selected bool)

	// SetBusy enables or disables the controls.
	SetBusy(busy bool)
}

// Opener opens a selected file for upload.
type Opener func(f File) (io.ReadCloser, error)
