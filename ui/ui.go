// Package ui provides the interactive and headless front ends for knoxify.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/gitcha"
	te "github.com/muesli/termenv"

	"github.com/knoxify/knoxify/tts"
	"github.com/knoxify/knoxify/utils"
)

const noticeTimeout = 3 * time.Second

// NewProgram returns a new Tea program.
func NewProgram(cfg Config) (*tea.Program, error) {
	log.Debug(
		"Starting knoxify",
		"server", cfg.TTS.Server,
		"voice", cfg.TTS.Voice,
		"path", cfg.Path,
	)

	lipgloss.SetHasDarkBackground(te.HasDarkBackground())

	svc, err := newServices(cfg.TTS)
	if err != nil {
		return nil, err
	}

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, svc), opts...), nil
}

// state is the top-level application state.
type state int

const (
	stateForm state = iota
	stateEditing
)

func (s state) String() string {
	return map[state]string{
		stateForm:    "showing form",
		stateEditing: "editing path",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	cwd    string
	width  int
	height int
}

type model struct {
	common *commonModel
	state  state

	svc   *services
	ctrl  *tts.Controller
	panel *panel

	keys     keyMap
	help     help.Model
	input    textinput.Model
	spinner  spinner.Model
	showHelp bool

	voices     []string
	voiceIndex int

	// .txt files found below the working directory, for completion
	candidates  []string
	completions []string
	completeIdx int
	fileFinder  chan gitcha.SearchResult

	// audio of the last ready job. audioURL and audioKey name the download
	// in flight or done; results for anything else are dropped.
	audioURL    string
	audioKey    string
	audio       []byte
	downloading bool
	playing     bool

	notice      string
	noticeIsErr bool
	noticeID    int

	watcher    *fsnotify.Watcher
	watchedDir string
}

func newModel(cfg Config, svc *services) model {
	cwd, _ := os.Getwd()
	common := &commonModel{cfg: cfg, cwd: cwd}

	ti := textinput.New()
	ti.Placeholder = "path/to/notes.txt"
	ti.Prompt = "› "
	ti.CharLimit = 4096
	ti.PromptStyle = keywordStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = keywordStyle

	p := &panel{}
	m := model{
		common:  common,
		state:   stateForm,
		svc:     svc,
		panel:   p,
		keys:    newKeyMap(),
		help:    help.New(),
		input:   ti,
		spinner: sp,
		voices:  tts.DefaultVoices,
	}
	m.ctrl = tts.NewController(svc.client, p,
		tts.WithPollInterval(cfg.TTS.PollInterval.Std()),
		tts.WithLogger(log.Default()),
	)
	m.voiceIndex = tts.VoiceIndex(cfg.TTS.Voice, m.voices)

	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
	}

	if cfg.Path != "" {
		m.selectPath(cfg.Path)
	} else {
		m.state = stateEditing
		m.input.Focus()
	}
	return m
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)
	cmds := []tea.Cmd{
		fetchVoices(m.svc.client),
		findTextFiles(m.common.cwd, m.common.cfg.ShowAllFiles),
	}
	if m.state == stateEditing {
		cmds = append(cmds, textinput.Blink)
	}
	if m.watcher != nil {
		cmds = append(cmds, watchFiles(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Ctrl+C always quits no matter where in the application you are.
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.state == stateEditing {
			return m.updateEditing(msg)
		}
		return m.updateForm(msg)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-12, 10)

	case errMsg:
		m.setNotice(msg.Error(), true)

	case tts.UploadDoneMsg, tts.PollTickMsg, tts.StatusDoneMsg:
		cmds = append(cmds, m.ctrl.Update(msg))

	case tts.DoneMsg:
		if msg.ID != m.ctrl.ID() {
			break
		}
		if msg.Err != nil {
			log.Debug("conversion failed", "kind", msg.Err.Kind, "error", msg.Err)
			break
		}
		log.Info("conversion finished", "file", msg.Filename, "url", msg.DownloadURL)
		if msg.DownloadURL == "" {
			cmds = append(cmds, m.setNotice(tts.MsgNoDownloadURL, true))
			break
		}
		if m.common.cfg.AutoDownload {
			url, err := m.svc.client.ResolveURL(msg.DownloadURL)
			if err != nil {
				cmds = append(cmds, m.setNotice(err.Error(), true))
				break
			}
			m.audioURL, m.audioKey = url, msg.Fingerprint
			if m.audioKey == "" {
				m.audioKey = url
			}
			m.downloading = true
			cmds = append(cmds, download(m.svc, msg.DownloadURL, m.audioKey), m.spinner.Tick)
		}

	case voicesMsg:
		if msg.err != nil || len(msg.voices) == 0 {
			log.Debug("using built-in voices", "error", msg.err)
			break
		}
		current := m.voice()
		m.voices = msg.voices
		m.voiceIndex = tts.VoiceIndex(current, m.voices)

	case downloadedMsg:
		if msg.url != m.audioURL || msg.key != m.audioKey {
			log.Debug("dropping stale download", "url", msg.url)
			break
		}
		m.downloading = false
		if msg.err != nil {
			m.setNotice(msg.err.Error(), true)
			break
		}
		m.audio = msg.data
		cmds = append(cmds, m.setNotice(fmt.Sprintf("Downloaded %s", humanize.Bytes(uint64(len(msg.data)))), false))

	case savedMsg:
		if msg.err != nil {
			m.setNotice(msg.err.Error(), true)
			break
		}
		cmds = append(cmds, m.setNotice("Saved "+msg.path, false))

	case playbackMsg:
		if msg.err != nil {
			m.playing = false
			m.setNotice(msg.err.Error(), true)
			break
		}
		m.playing = true
		cmds = append(cmds, checkPlayback())

	case playbackCheckMsg:
		if !m.playing {
			break
		}
		if m.svc.player != nil && m.svc.player.IsPlaying() {
			cmds = append(cmds, checkPlayback())
			break
		}
		m.playing = false

	case playbackFinishedMsg:
		m.playing = false

	case copiedMsg:
		cmds = append(cmds, m.setNotice("Copied "+msg.url, false))

	case noticeTimeoutMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}

	case initFileSearchMsg:
		m.fileFinder = msg.ch
		cmds = append(cmds, findNextFile(msg.ch))

	case foundFileMsg:
		m.candidates = append(m.candidates, relativePath(m.common.cwd, msg.Path))
		cmds = append(cmds, findNextFile(m.fileFinder))

	case fileSearchFinished:
		sort.Strings(m.candidates)

	case fileEventMsg:
		cmds = append(cmds, m.handleFileEvent(fsnotify.Event(msg)), watchFiles(m.watcher))

	case spinner.TickMsg:
		if m.panel.busy || m.downloading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if m.state == stateEditing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Convert):
		cmd := m.ctrl.Submit(m.voice())
		if cmd == nil {
			return m, nil
		}
		m.clearAudio()
		return m, tea.Batch(cmd, m.spinner.Tick, stopAudio(m.svc))

	case key.Matches(msg, m.keys.PrevVoice):
		if !m.panel.busy && len(m.voices) > 0 {
			m.voiceIndex = (m.voiceIndex - 1 + len(m.voices)) % len(m.voices)
		}

	case key.Matches(msg, m.keys.NextVoice):
		if !m.panel.busy && len(m.voices) > 0 {
			m.voiceIndex = (m.voiceIndex + 1) % len(m.voices)
		}

	case key.Matches(msg, m.keys.Play):
		switch {
		case m.playing:
			return m, stopAudio(m.svc)
		case m.audio == nil:
			return m, m.setNotice("No audio yet", true)
		case !m.common.cfg.TTS.Player.Enabled:
			return m, m.setNotice("Playback is disabled", true)
		}
		if err := m.svc.canPlay(); err != nil {
			return m, m.setNotice(err.Error(), true)
		}
		return m, playAudio(m.svc, m.audio, m.audioKey)

	case key.Matches(msg, m.keys.Save):
		if m.audio == nil {
			return m, m.setNotice("No audio yet", true)
		}
		return m, saveAudio(outputPath(m.common.cfg.TTS.OutputDir, m.ctrl.File()), m.audio)

	case key.Matches(msg, m.keys.Copy):
		if m.panel.audio.URL == "" {
			return m, m.setNotice("No link yet", true)
		}
		url, err := m.svc.client.ResolveURL(m.panel.audio.URL)
		if err != nil {
			return m, m.setNotice(err.Error(), true)
		}
		return m, copyLink(url)

	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()
		m.clearAudio()
		m.unwatch()
		m.notice = ""
		m.input.SetValue("")
		return m, stopAudio(m.svc)

	case key.Matches(msg, m.keys.Edit):
		if m.panel.busy {
			return m, nil
		}
		m.state = stateEditing
		if f := m.ctrl.File(); f != nil {
			m.input.SetValue(relativePath(m.common.cwd, f.Path))
			m.input.CursorEnd()
		}
		return m, m.input.Focus()
	}

	return m, nil
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		m.state = stateForm
		m.input.Blur()
		m.completions = nil
		if v := strings.TrimSpace(m.input.Value()); v != "" {
			m.selectPath(v)
		} else {
			m.ctrl.SelectFile(nil)
			m.unwatch()
		}
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.state = stateForm
		m.input.Blur()
		m.completions = nil
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		m.complete()
		return m, nil
	}

	m.completions = nil
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// complete cycles through the .txt files matching what's been typed.
func (m *model) complete() {
	if m.completions == nil {
		prefix := m.input.Value()
		for _, c := range m.candidates {
			if strings.HasPrefix(c, prefix) {
				m.completions = append(m.completions, c)
			}
		}
		m.completeIdx = -1
	}
	if len(m.completions) == 0 {
		return
	}
	m.completeIdx = (m.completeIdx + 1) % len(m.completions)
	m.input.SetValue(m.completions[m.completeIdx])
	m.input.CursorEnd()
}

// selectPath hands the file at path to the controller and watches it for
// changes.
func (m *model) selectPath(path string) {
	if m.panel.busy {
		return
	}

	f, err := tts.StatFile(path)
	if err != nil {
		log.Debug("unable to select file", "path", path, "error", err)
		m.ctrl.SelectFile(nil)
		m.unwatch()
		m.setNotice(err.Error(), true)
		return
	}

	m.notice = ""
	m.ctrl.SelectFile(f)
	if m.ctrl.File() != nil {
		m.watch(f.Path)
	} else {
		m.unwatch()
	}
}

func (m *model) watch(path string) {
	if m.watcher == nil {
		return
	}
	dir := filepath.Dir(path)
	if dir == m.watchedDir {
		return
	}
	m.unwatch()
	if err := m.watcher.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "error", err)
		return
	}
	log.Info("fsnotify watching dir", "dir", dir)
	m.watchedDir = dir
}

func (m *model) unwatch() {
	if m.watcher == nil || m.watchedDir == "" {
		return
	}
	if err := m.watcher.Remove(m.watchedDir); err != nil {
		log.Debug("fsnotify fail to unwatch dir", "dir", m.watchedDir, "error", err)
	}
	m.watchedDir = ""
}

// handleFileEvent revalidates the selected file after it changed on disk.
func (m *model) handleFileEvent(event fsnotify.Event) tea.Cmd {
	f := m.ctrl.File()
	if f == nil || m.panel.busy || filepath.Clean(event.Name) != filepath.Clean(f.Path) {
		return nil
	}

	log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		m.ctrl.SelectFile(nil)
		m.unwatch()
		return m.setNotice(f.Name+" was removed", true)

	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		m.selectPath(f.Path)
	}
	return nil
}

func (m *model) clearAudio() {
	m.audio = nil
	m.audioURL, m.audioKey = "", ""
	m.downloading = false
	m.playing = false
}

func (m *model) setNotice(s string, isErr bool) tea.Cmd {
	m.noticeID++
	m.notice = s
	m.noticeIsErr = isErr
	return waitForNoticeTimeout(m.noticeID, noticeTimeout)
}

func (m model) voice() string {
	if len(m.voices) == 0 {
		return tts.DefaultVoice
	}
	return m.voices[m.voiceIndex%len(m.voices)]
}

func (m model) quit() tea.Cmd {
	m.ctrl.Teardown()
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	m.svc.close()
	return tea.Quit
}

func (m model) View() string {
	width := m.common.width
	if width <= 0 {
		width = 80
	}
	inner := width - 4

	var b strings.Builder
	b.WriteString(titleStyle.Render("knoxify") + "\n\n")

	// file
	b.WriteString(labelStyle.Render("File"))
	if m.state == stateEditing {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.fileView(inner - 7))
	}
	b.WriteString("\n")

	// voice
	b.WriteString(labelStyle.Render("Voice"))
	b.WriteString(m.voiceView())
	b.WriteString("\n\n")

	// status banner
	if st := m.panel.status; st.Message != "" {
		line := st.Message
		if m.panel.busy {
			line = m.spinner.View() + " " + line
		}
		b.WriteString(statusStyle(st.Phase).Render(fit(line, inner)) + "\n")
	}

	// error banner
	if m.panel.err != "" {
		b.WriteString(errorStyle.Render(fit("✗ "+m.panel.err, inner)) + "\n")
	}

	// audio panel
	if m.panel.audio.Visible {
		b.WriteString(m.audioView(inner) + "\n")
	}

	if !m.panel.busy && m.ctrl.Phase().Terminal() {
		hint := fmt.Sprintf("%s to start over", m.keys.Reset.Help().Key)
		b.WriteString(subtleStyle.Render(fit(hint, inner)) + "\n")
	}

	if m.notice != "" {
		style := noticeStyle
		if m.noticeIsErr {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(fit(m.notice, inner)) + "\n")
	}

	b.WriteString("\n")
	if m.state == stateEditing {
		b.WriteString(m.help.View(editKeys{m.keys}))
	} else {
		b.WriteString(m.help.View(formKeys{m.keys}))
	}

	return fill(indent(b.String(), 2), width)
}

func (m model) fileView(width int) string {
	if !m.panel.selected {
		return subtleStyle.Render(m.panel.label)
	}
	label := m.panel.label
	if f := m.ctrl.File(); f != nil {
		label = fitPath(relativePath(m.common.cwd, f.Path), width-12)
		label = valueStyle.Render(label) + " " + subtleStyle.Render("("+humanize.Bytes(uint64(f.Size))+")") //nolint:gosec
	}
	return label
}

func (m model) voiceView() string {
	v := m.voice()
	if m.panel.busy {
		return disabledStyle.Render(v)
	}
	return subtleStyle.Render("‹ ") + valueStyle.Render(v) + subtleStyle.Render(" ›")
}

func (m model) audioView(width int) string {
	url := m.panel.audio.URL
	if url == "" {
		return "♪ " + subtleStyle.Render("audio ready, no download link")
	}
	if abs, err := m.svc.client.ResolveURL(url); err == nil {
		url = abs
	}

	var state string
	switch {
	case m.downloading:
		state = m.spinner.View() + " downloading"
	case m.playing:
		state = "▶ playing"
	case m.audio != nil:
		state = humanize.Bytes(uint64(len(m.audio)))
	}

	line := "♪ " + audioStyle.Render(fit(url, width-20))
	if state != "" {
		line += " " + subtleStyle.Render(state)
	}
	return line
}

// ETC

func relativePath(cwd, path string) string {
	if cwd == "" {
		return path
	}
	abs := utils.ExpandPath(path)
	if !filepath.IsAbs(abs) {
		return path
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
