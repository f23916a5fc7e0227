package tts

import (
	"time"
)

// Messages for Bubble Tea communication between the controller and the UI.
// ID and Tag let the controller drop messages that belong to another
// controller or to an attempt that has since been reset.

// UploadDoneMsg carries the result of an upload.
type UploadDoneMsg struct {
	ID    int
	Tag   int
	JobID string

	// Fingerprint identifies the uploaded text and voice.
	Fingerprint string

	Err error
}

// PollTickMsg fires when it is time to check the job status again.
type PollTickMsg struct {
	ID   int
	Tag  int
	Time time.Time
}

// StatusDoneMsg carries the result of a status check.
type StatusDoneMsg struct {
	ID     int
	Tag    int
	JobID  string
	Status string
	URL    string
	Reason string // server error text for failed jobs
	Err    error
}

// DoneMsg is sent once an attempt reaches a terminal state. Err is set for
// failed attempts. A successful one may still lack a DownloadURL when the
// server did not send one.
type DoneMsg struct {
	ID          int
	JobID       string
	Filename    string
	Voice       string
	DownloadURL string

	// Fingerprint is a hash of the uploaded text and the voice. Identical
	// submissions share it, so it keys the audio cache.
	Fingerprint string

	Err *Error
}
