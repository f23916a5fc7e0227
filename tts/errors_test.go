package tts

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/knoxify/knoxify/internal/client"
)

// TestErrorDefinitions tests the validation errors carry the banner text.
func TestErrorDefinitions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNoFile", ErrNoFile, "Please select a file"},
		{"ErrNotTextFile", ErrNotTextFile, "Please select a .txt file"},
		{"ErrFileTooLarge", ErrFileTooLarge, "File size exceeds 50 KB limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("%s = %q, want %q", tt.name, tt.err.Error(), tt.msg)
			}
		})
	}
}

func TestErrorKindString(t *testing.T) {
	tests := map[ErrorKind]string{
		KindValidation: "validation",
		KindUpload:     "upload",
		KindPolling:    "polling",
		ErrorKind(42):  "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := &client.APIError{StatusCode: http.StatusBadRequest, Message: "Unsupported voice"}
	err := error(newError(KindUpload, fmt.Errorf("upload: %w", cause), MsgUploadFailed))

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("expected error to unwrap to *client.APIError")
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}

	var e *Error
	if !errors.As(err, &e) || e.Kind != KindUpload {
		t.Errorf("expected upload *Error, got %#v", err)
	}

	if (&Error{Err: errors.New("boom")}).Error() != "boom" {
		t.Error("Error() should fall back to the wrapped error")
	}
	if (&Error{}).Error() != "unknown error" {
		t.Error("Error() of an empty error should be \"unknown error\"")
	}
}

// TestUserMessage tests which text ends up in the error banner.
func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback string
		want     string
	}{
		{
			name:     "server message",
			err:      &client.APIError{StatusCode: http.StatusBadRequest, Message: "Unsupported voice"},
			fallback: MsgUploadFailed,
			want:     "Unsupported voice",
		},
		{
			name:     "no server message",
			err:      &client.APIError{StatusCode: http.StatusInternalServerError},
			fallback: MsgUploadFailed,
			want:     MsgUploadFailed,
		},
		{
			name:     "status fallback",
			err:      &client.APIError{StatusCode: http.StatusNotFound},
			fallback: MsgStatusFailed,
			want:     MsgStatusFailed,
		},
		{
			name:     "payload too large",
			err:      &client.APIError{StatusCode: http.StatusRequestEntityTooLarge},
			fallback: MsgUploadFailed,
			want:     MsgFileTooLarge,
		},
		{
			name:     "transport error",
			err:      errors.New("dial tcp 127.0.0.1:5000: connect: connection refused"),
			fallback: MsgUploadFailed,
			want:     "dial tcp 127.0.0.1:5000: connect: connection refused",
		},
		{
			name:     "missing job id",
			err:      client.ErrMissingJobID,
			fallback: MsgUploadFailed,
			want:     client.ErrMissingJobID.Error(),
		},
		{
			name:     "nil",
			fallback: MsgStatusFailed,
			want:     MsgStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := userMessage(tt.err, tt.fallback); got != tt.want {
				t.Errorf("userMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
