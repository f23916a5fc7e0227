package ui

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/knoxify/knoxify/tts"
)

// NoSave as HeadlessOptions.Output skips writing the audio to disk.
const NoSave = "-"

// HeadlessOptions describe a single conversion run without the TUI.
type HeadlessOptions struct {
	File  string
	Voice string

	// Where to save the audio. Empty means the configured output
	// directory, named after the file.
	Output string

	Play bool
}

// RunHeadless converts one file, reporting progress to w as log lines. It
// returns once the audio is saved and, when asked to, played.
func RunHeadless(cfg Config, opts HeadlessOptions, w io.Writer) error {
	svc, err := newServices(cfg.TTS)
	if err != nil {
		return err
	}
	defer svc.close()

	logger := log.NewWithOptions(w, log.Options{Prefix: "knoxify"})
	return runHeadless(svc, cfg, opts, logger)
}

func runHeadless(svc *services, cfg Config, opts HeadlessOptions, logger *log.Logger) error {
	if opts.Voice == "" {
		opts.Voice = cfg.TTS.Voice
	}
	if opts.Play && !cfg.TTS.Player.Enabled {
		logger.Warn("Playback is disabled in the configuration")
		opts.Play = false
	}
	if opts.Play {
		if err := svc.canPlay(); err != nil {
			logger.Warn("Playback unavailable", "error", err)
			opts.Play = false
		}
	}

	view := &logView{logger: logger}
	ctrl := tts.NewController(svc.client, view,
		tts.WithPollInterval(cfg.TTS.PollInterval.Std()),
		tts.WithLogger(log.Default()),
	)
	defer ctrl.Teardown()

	f, err := tts.StatFile(opts.File)
	if err != nil {
		return err //nolint:wrapcheck
	}
	ctrl.SelectFile(f)
	if e := ctrl.LastError(); e != nil {
		return e
	}

	m := headlessModel{
		ctrl:   ctrl,
		svc:    svc,
		opts:   opts,
		cfg:    cfg,
		logger: logger,
	}
	p := tea.NewProgram(m,
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
	)
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrInterrupted) {
			return errors.New("interrupted")
		}
		return fmt.Errorf("unable to run: %w", err)
	}
	if hm, ok := final.(headlessModel); ok && hm.err != nil {
		return hm.err
	}
	return nil
}

type headlessModel struct {
	ctrl   *tts.Controller
	svc    *services
	opts   HeadlessOptions
	cfg    Config
	logger *log.Logger

	key   string
	audio []byte
	err   error
}

func (m headlessModel) Init() tea.Cmd {
	m.logger.Info("Converting", "file", m.ctrl.File().Name, "voice", m.opts.Voice)
	return m.ctrl.Submit(m.opts.Voice)
}

func (m headlessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tts.UploadDoneMsg, tts.PollTickMsg, tts.StatusDoneMsg:
		return m, m.ctrl.Update(msg)

	case tts.DoneMsg:
		if msg.ID != m.ctrl.ID() {
			return m, nil
		}
		if msg.Err != nil {
			m.err = msg.Err
			return m, tea.Quit
		}
		if msg.DownloadURL == "" {
			m.err = tts.ErrNoDownloadURL
			return m, tea.Quit
		}
		m.key = msg.Fingerprint
		return m, download(m.svc, msg.DownloadURL, msg.Fingerprint)

	case downloadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.audio, m.key = msg.data, msg.key
		m.logger.Info("Downloaded", "size", humanize.Bytes(uint64(len(msg.data))))
		if m.opts.Output == NoSave {
			return m, m.play()
		}
		path := m.opts.Output
		if path == "" {
			path = outputPath(m.cfg.TTS.OutputDir, m.ctrl.File())
		}
		return m, saveAudio(path, m.audio)

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.logger.Info("Saved", "path", msg.path)
		return m, m.play()

	case playbackMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.logger.Info("Playing")
		return m, checkPlayback()

	case playbackCheckMsg:
		if m.svc.player != nil && m.svc.player.IsPlaying() {
			return m, checkPlayback()
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m headlessModel) play() tea.Cmd {
	if !m.opts.Play {
		return tea.Quit
	}
	return playAudio(m.svc, m.audio, m.key)
}

func (m headlessModel) View() string { return "" }
