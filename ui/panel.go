package ui

import (
	"github.com/charmbracelet/log"

	"github.com/knoxify/knoxify/tts"
)

// panel holds what the controller asked to be shown. The model renders it.
type panel struct {
	status   tts.Status
	err      string
	audio    tts.Audio
	label    string
	selected bool
	busy     bool
}

var _ tts.View = (*panel)(nil)

func (p *panel) RenderStatus(s tts.Status) { p.status = s }
func (p *panel) RenderError(msg string)    { p.err = msg }
func (p *panel) RenderAudio(a tts.Audio)   { p.audio = a }
func (p *panel) SetBusy(busy bool)         { p.busy = busy }

func (p *panel) RenderFile(label string, selected bool) {
	p.label = label
	p.selected = selected
}

// logView reports controller updates as log lines. Hidden regions and
// repeated values are not logged.
type logView struct {
	logger *log.Logger
	last   panel
}

var _ tts.View = (*logView)(nil)

func (v *logView) RenderStatus(s tts.Status) {
	if s != v.last.status && s.Message != "" {
		v.logger.Info(s.Message, "phase", s.Phase)
	}
	v.last.status = s
}

func (v *logView) RenderError(msg string) {
	if msg != "" && msg != v.last.err {
		v.logger.Error(msg)
	}
	v.last.err = msg
}

func (v *logView) RenderAudio(a tts.Audio) {
	if a.Visible && a != v.last.audio {
		if a.URL == "" {
			v.logger.Warn("Audio ready without a download link")
		} else {
			v.logger.Info("Audio available", "url", a.URL)
		}
	}
	v.last.audio = a
}

func (v *logView) RenderFile(label string, selected bool) {
	if selected && label != v.last.label {
		v.logger.Debug("File selected", "file", label)
	}
	v.last.label, v.last.selected = label, selected
}

func (v *logView) SetBusy(busy bool) { v.last.busy = busy }
