// Package tts drives a text-to-speech conversion: it validates the selected
// file, uploads it, polls the job until the audio is ready and reports every
// step to a View.
package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/knoxify/knoxify/internal/client"
)

// DefaultPollInterval is how long to wait between status checks.
const DefaultPollInterval = time.Second

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Controller owns a single conversion flow. All methods must be called from
// the Bubble Tea update loop; network work happens in the returned commands.
type Controller struct {
	id     int
	client Client
	view   View
	open   Opener
	logger *log.Logger

	machine      *StateMachine
	pollInterval time.Duration

	file        *File
	voice       string
	jobID       string
	fingerprint string
	downloadURL string

	// uploadTag identifies the current attempt; pollTag the active poll
	// timer. Zero pollTag means no timer is running.
	uploadTag int
	pollTag   int

	ctx        context.Context
	cancel     context.CancelFunc
	attemptCtx context.Context
	attempt    context.CancelFunc
	tornDown   bool
	busy       bool
	lastError  *Error
}

// Option configures a Controller.
type Option func(*Controller)

// WithPollInterval sets the delay between status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithOpener replaces the function used to read the selected file.
func WithOpener(open Opener) Option {
	return func(c *Controller) {
		if open != nil {
			c.open = open
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a controller and puts the view in its initial state.
func NewController(cl Client, view View, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:           nextID(),
		client:       cl,
		view:         view,
		open:         openFile,
		logger:       log.Default(),
		machine:      NewStateMachine(),
		pollInterval: DefaultPollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registerHooks()

	c.view.RenderFile(DefaultFileLabel, false)
	c.view.RenderStatus(Status{})
	c.view.RenderError("")
	c.view.RenderAudio(Audio{})
	c.view.SetBusy(false)
	return c
}

// registerHooks ties the controls and the poll timer to the phase: controls
// are disabled exactly while a job is in flight, and leaving processing
// always stops the timer.
func (c *Controller) registerHooks() {
	c.machine.OnEnter(PhaseUploading, func() { c.setBusy(true) })
	for _, p := range []Phase{PhaseIdle, PhaseReady, PhaseError} {
		c.machine.OnEnter(p, func() { c.setBusy(false) })
	}
	c.machine.OnExit(PhaseProcessing, c.stopPolling)
}

func openFile(f File) (io.ReadCloser, error) {
	return os.Open(f.Path) //nolint:wrapcheck
}

// ID returns the controller's unique id.
func (c *Controller) ID() int { return c.id }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.machine.Current() }

// Busy reports whether a job is in flight.
func (c *Controller) Busy() bool { return c.busy }

// JobID returns the job being polled, if any.
func (c *Controller) JobID() string { return c.jobID }

// File returns the current selection, or nil.
func (c *Controller) File() *File { return c.file }

// DownloadURL returns the download URL of the last ready job.
func (c *Controller) DownloadURL() string { return c.downloadURL }

// LastError returns the error behind the current error banner, or nil.
func (c *Controller) LastError() *Error { return c.lastError }

// Polling reports whether a poll timer is active.
func (c *Controller) Polling() bool { return c.pollTag != 0 }

// SelectFile records f as the file to convert. A nil file clears the
// selection. Invalid files are rejected and clear the selection too.
func (c *Controller) SelectFile(f *File) {
	if c.tornDown || c.busy {
		return
	}

	if f == nil {
		c.clearFile()
		return
	}

	if err := ValidateFile(f); err != nil {
		c.logger.Debug("file rejected", "file", f.Name, "size", f.Size, "err", err)
		c.clearFile()
		c.showError(&Error{Kind: KindValidation, Message: err.Error(), Err: err})
		return
	}

	c.logger.Debug("file selected", "file", f.Name, "size", f.Size)
	c.file = f
	c.view.RenderFile(f.Name, true)
	c.hideError()
}

// Submit starts a conversion of the selected file with the given voice.
func (c *Controller) Submit(voice string) tea.Cmd {
	if c.tornDown || c.busy {
		return nil
	}
	if c.file == nil {
		c.showError(&Error{Kind: KindValidation, Message: MsgSelectFile, Err: ErrNoFile})
		return nil
	}
	if !c.machine.Transition(PhaseUploading) {
		return nil
	}

	c.hideError()
	c.view.RenderAudio(Audio{})
	c.downloadURL = ""
	c.fingerprint = ""
	c.voice = voice
	c.view.RenderStatus(Status{Message: MsgUploading, Phase: PhaseUploading})

	c.uploadTag++
	ctx, cancel := context.WithCancel(c.ctx)
	c.attemptCtx, c.attempt = ctx, cancel

	c.logger.Debug("uploading", "file", c.file.Name, "voice", voice)
	return c.upload(ctx, c.uploadTag, *c.file, voice)
}

func (c *Controller) upload(ctx context.Context, tag int, f File, voice string) tea.Cmd {
	id, cl, open := c.id, c.client, c.open
	return func() tea.Msg {
		r, err := open(f)
		if err != nil {
			return UploadDoneMsg{ID: id, Tag: tag, Err: fmt.Errorf("unable to open %s: %w", f.Name, err)}
		}
		defer r.Close() //nolint:errcheck

		h := sha256.New()
		jobID, err := cl.Upload(ctx, f.Name, io.TeeReader(r, h), voice)
		if err != nil {
			return UploadDoneMsg{ID: id, Tag: tag, Err: err}
		}
		h.Write([]byte{0})
		h.Write([]byte(voice))
		return UploadDoneMsg{
			ID:          id,
			Tag:         tag,
			JobID:       jobID,
			Fingerprint: hex.EncodeToString(h.Sum(nil)),
		}
	}
}

// Update handles the controller's own messages and ignores everything else.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	if c.tornDown {
		return nil
	}

	switch msg := msg.(type) {
	case UploadDoneMsg:
		if msg.ID != c.id || msg.Tag != c.uploadTag || c.Phase() != PhaseUploading {
			return nil
		}
		return c.handleUpload(msg)

	case PollTickMsg:
		if msg.ID != c.id || msg.Tag == 0 || msg.Tag != c.pollTag {
			return nil
		}
		if c.jobID == "" {
			c.stopPolling()
			return nil
		}
		return c.checkStatus(msg.Tag)

	case StatusDoneMsg:
		if msg.ID != c.id || msg.Tag == 0 || msg.Tag != c.pollTag || msg.JobID != c.jobID {
			return nil
		}
		return c.handleStatus(msg)
	}

	return nil
}

func (c *Controller) handleUpload(msg UploadDoneMsg) tea.Cmd {
	if msg.Err != nil {
		c.logger.Debug("upload failed", "err", msg.Err)
		return c.fail(newError(KindUpload, msg.Err, MsgUploadFailed))
	}

	c.logger.Debug("upload accepted", "job", msg.JobID)
	c.machine.Transition(PhaseProcessing)
	c.jobID = msg.JobID
	c.fingerprint = msg.Fingerprint
	c.view.RenderStatus(Status{Message: MsgProcessing, Phase: PhaseProcessing})
	return c.startPolling()
}

func (c *Controller) handleStatus(msg StatusDoneMsg) tea.Cmd {
	if msg.Err != nil {
		c.logger.Debug("status check failed", "job", msg.JobID, "err", msg.Err)
		return c.fail(newError(KindPolling, msg.Err, MsgStatusFailed))
	}

	switch msg.Status {
	case client.StatusProcessing:
		return c.tick(msg.Tag)

	case client.StatusReady:
		c.machine.Transition(PhaseReady)
		if msg.URL == "" {
			c.logger.Warn("audio ready without a download URL", "job", msg.JobID)
		} else {
			c.logger.Debug("audio ready", "job", msg.JobID, "url", msg.URL)
		}

		c.downloadURL = msg.URL
		c.view.RenderStatus(Status{Message: MsgReady, Phase: PhaseReady})
		c.view.RenderAudio(Audio{Visible: true, URL: msg.URL})

		done := DoneMsg{
			ID:          c.id,
			JobID:       msg.JobID,
			Voice:       c.voice,
			DownloadURL: msg.URL,
			Fingerprint: c.fingerprint,
		}
		c.finish()
		if c.file != nil {
			done.Filename = c.file.Name
		}
		return func() tea.Msg { return done }

	case client.StatusError:
		e := &Error{Kind: KindPolling, Message: msg.Reason, JobID: msg.JobID}
		if e.Message == "" {
			e.Message = MsgProcessingFailed
		}
		c.logger.Debug("processing failed", "job", msg.JobID, "reason", msg.Reason)
		return c.fail(e)

	default:
		c.logger.Debug("unknown job status", "job", msg.JobID, "status", msg.Status)
		return c.tick(msg.Tag)
	}
}

func (c *Controller) checkStatus(tag int) tea.Cmd {
	id, cl, ctx, jobID := c.id, c.client, c.attemptCtx, c.jobID
	if ctx == nil {
		ctx = c.ctx
	}
	return func() tea.Msg {
		st, err := cl.Status(ctx, jobID)
		if err != nil {
			return StatusDoneMsg{ID: id, Tag: tag, JobID: jobID, Err: err}
		}
		return StatusDoneMsg{
			ID:     id,
			Tag:    tag,
			JobID:  jobID,
			Status: st.Status,
			URL:    st.DownloadURL,
			Reason: st.Error,
		}
	}
}

func (c *Controller) startPolling() tea.Cmd {
	c.stopPolling()
	c.pollTag = c.uploadTag
	return c.tick(c.pollTag)
}

func (c *Controller) tick(tag int) tea.Cmd {
	id := c.id
	return tea.Tick(c.pollInterval, func(t time.Time) tea.Msg {
		return PollTickMsg{ID: id, Tag: tag, Time: t}
	})
}

func (c *Controller) stopPolling() {
	c.pollTag = 0
}

// fail ends the current attempt with e shown in the error banner.
func (c *Controller) fail(e *Error) tea.Cmd {
	c.machine.Transition(PhaseError)
	if e.JobID == "" {
		e.JobID = c.jobID
	}
	c.showError(e)
	c.view.RenderStatus(Status{})
	c.finish()

	done := DoneMsg{ID: c.id, JobID: e.JobID, Voice: c.voice, Err: e}
	if c.file != nil {
		done.Filename = c.file.Name
	}
	return func() tea.Msg { return done }
}

// finish releases the attempt once it reached a terminal state.
func (c *Controller) finish() {
	c.jobID = ""
	c.fingerprint = ""
	if c.attempt != nil {
		c.attempt()
		c.attempt, c.attemptCtx = nil, nil
	}
}

// Reset returns the controller and the view to their initial state.
func (c *Controller) Reset() {
	if c.tornDown {
		return
	}

	c.logger.Debug("reset", "phase", c.Phase())
	c.abort()
	if c.Phase() != PhaseIdle {
		c.machine.Transition(PhaseIdle)
	}

	c.clearFile()
	c.hideError()
	c.view.RenderStatus(Status{})
	c.view.RenderAudio(Audio{})
	c.downloadURL = ""
}

// Teardown stops polling and cancels in-flight requests. Any message that
// arrives afterwards is ignored.
func (c *Controller) Teardown() {
	if c.tornDown {
		return
	}
	c.abort()
	if c.Phase().InFlight() {
		c.machine.Transition(PhaseIdle)
	}
	c.cancel()
	c.tornDown = true
}

func (c *Controller) abort() {
	c.stopPolling()
	c.uploadTag++
	c.jobID = ""
	c.fingerprint = ""
	if c.attempt != nil {
		c.attempt()
		c.attempt, c.attemptCtx = nil, nil
	}
}

func (c *Controller) clearFile() {
	c.file = nil
	c.view.RenderFile(DefaultFileLabel, false)
}

func (c *Controller) showError(e *Error) {
	c.lastError = e
	c.view.RenderError(e.Message)
}

func (c *Controller) hideError() {
	c.lastError = nil
	c.view.RenderError("")
}

func (c *Controller) setBusy(busy bool) {
	c.busy = busy
	c.view.SetBusy(busy)
}
