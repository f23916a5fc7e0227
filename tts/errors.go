package tts

import (
	"errors"
	"net/http"

	"github.com/knoxify/knoxify/internal/client"
)

// Messages shown to the user.
const (
	MsgSelectFile       = "Please select a file"
	MsgNotTextFile      = "Please select a .txt file"
	MsgFileTooLarge     = "File size exceeds 50 KB limit"
	MsgUploading        = "Uploading file..."
	MsgProcessing       = "Processing audio..."
	MsgReady            = "Audio ready!"
	MsgUploadFailed     = "Upload failed"
	MsgStatusFailed     = "Status check failed"
	MsgProcessingFailed = "Processing failed"
	MsgNoDownloadURL    = "Server did not return a download URL"
	DefaultFileLabel    = "Choose a .txt file"
)

// Client-side validation errors.
var (
	ErrNoFile       = errors.New(MsgSelectFile)
	ErrNotTextFile  = errors.New(MsgNotTextFile)
	ErrFileTooLarge = errors.New(MsgFileTooLarge)
)

// ErrNoDownloadURL is returned when a job finished without a download link.
var ErrNoDownloadURL = errors.New("server did not return a download URL")

// ErrorKind classifies where in the flow an error happened.
type ErrorKind int

const (
	// KindValidation covers problems found before any request is made.
	KindValidation ErrorKind = iota
	// KindUpload covers failures of the upload request.
	KindUpload
	// KindPolling covers failures while checking job status, including a
	// job the server reports as failed.
	KindPolling
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpload:
		return "upload"
	case KindPolling:
		return "polling"
	default:
		return "unknown"
	}
}

// Error is an error the controller surfaced to the user. Message is the text
// shown in the error banner.
type Error struct {
	Kind    ErrorKind
	Message string
	JobID   string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error, fallback string) *Error {
	return &Error{Kind: kind, Message: userMessage(err, fallback), Err: err}
}

// userMessage picks the banner text for err: the server's own message when it
// sent one, the fallback for other bad responses, and the error text for
// transport and decoding failures.
func userMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Message != "":
			return apiErr.Message
		case apiErr.StatusCode == http.StatusRequestEntityTooLarge:
			return MsgFileTooLarge
		default:
			return fallback
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
