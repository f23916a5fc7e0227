package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/knoxify/knoxify/internal/client"
	"github.com/knoxify/knoxify/tts"
)

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m model, keys ...string) (model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyPress(k))
		m = next.(model)
	}
	return m, cmd
}

// drive runs cmd and feeds every resulting message back into the model
// until done reports true.
func drive(t *testing.T, m model, cmd tea.Cmd, done func(model) bool) model {
	t.Helper()

	msgs := make(chan tea.Msg, 1024)
	run := func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() { msgs <- c() }()
	}
	run(cmd)

	timeout := time.After(5 * time.Second)
	for !done(m) {
		select {
		case msg := <-msgs:
			switch msg := msg.(type) {
			case nil:
			case tea.BatchMsg:
				for _, c := range msg {
					run(c)
				}
			default:
				next, c := m.Update(msg)
				m = next.(model)
				run(c)
			}
		case <-timeout:
			t.Fatalf("timed out; status %q, error %q", m.panel.status.Message, m.panel.err)
		}
	}
	return m
}

func newTestModel(t *testing.T, path string) model {
	t.Helper()
	m, _ := newTestModelWith(t, path, processing, ready)
	return m
}

func newTestModelWith(t *testing.T, path string, statuses ...client.JobStatus) (model, *testServer) {
	t.Helper()

	srv := newTestServer(t, statuses...)
	cfg := testConfig(t, srv.URL)
	cfg.Path = path
	cfg.AutoDownload = true
	svc, _ := testServices(t, cfg)

	m := newModel(cfg, svc)
	t.Cleanup(func() {
		m.ctrl.Teardown()
		if m.watcher != nil {
			_ = m.watcher.Close()
		}
	})
	return m, srv
}

func TestNewModelPreselectsFile(t *testing.T) {
	path := writeTextFile(t, "notes.txt", "hello")
	m := newTestModel(t, path)

	if m.state != stateForm {
		t.Errorf("state = %s, want %s", m.state, stateForm)
	}
	if f := m.ctrl.File(); f == nil || f.Name != "notes.txt" {
		t.Fatalf("expected notes.txt to be selected, got %+v", f)
	}
	if !m.panel.selected || m.panel.label != "notes.txt" {
		t.Errorf("panel file = %q (selected %t)", m.panel.label, m.panel.selected)
	}
	if m.watchedDir != filepath.Dir(path) {
		t.Errorf("watching %q, want %q", m.watchedDir, filepath.Dir(path))
	}
}

func TestNewModelWithoutFileEditsPath(t *testing.T) {
	m := newTestModel(t, "")

	if m.state != stateEditing {
		t.Errorf("state = %s, want %s", m.state, stateEditing)
	}
	if m.panel.label != tts.DefaultFileLabel || m.panel.selected {
		t.Errorf("panel file = %q (selected %t)", m.panel.label, m.panel.selected)
	}
}

func TestVoiceCycling(t *testing.T) {
	m := newTestModel(t, writeTextFile(t, "notes.txt", "hello"))
	m.voices = []string{"Joanna", "Matthew", "Amy"}
	m.voiceIndex = 0

	m, _ = press(m, "l")
	if v := m.voice(); v != "Matthew" {
		t.Errorf("voice = %q, want Matthew", v)
	}
	m, _ = press(m, "h", "h")
	if v := m.voice(); v != "Amy" {
		t.Errorf("voice = %q, want Amy", v)
	}
	m, _ = press(m, "l")
	if v := m.voice(); v != "Joanna" {
		t.Errorf("voice = %q, want Joanna", v)
	}
}

func TestVoicesFromServer(t *testing.T) {
	m := newTestModel(t, "")
	m.voices = []string{"Joanna", "Matthew"}
	m.voiceIndex = 1

	next, _ := m.Update(voicesMsg{voices: []string{"Amy", "Matthew", "Brian"}})
	m = next.(model)
	if v := m.voice(); v != "Matthew" {
		t.Errorf("voice = %q, want the selection kept", v)
	}

	next, _ = m.Update(voicesMsg{})
	m = next.(model)
	if len(m.voices) != 3 {
		t.Errorf("expected an empty list to be ignored, got %v", m.voices)
	}
}

func TestEditSelectsFile(t *testing.T) {
	m := newTestModel(t, writeTextFile(t, "first.txt", "hello"))
	second := writeTextFile(t, "second.txt", "hello again")

	m, _ = press(m, "e")
	if m.state != stateEditing {
		t.Fatalf("state = %s, want %s", m.state, stateEditing)
	}
	m.input.SetValue(second)
	m, _ = press(m, "enter")

	if m.state != stateForm {
		t.Errorf("state = %s, want %s", m.state, stateForm)
	}
	if f := m.ctrl.File(); f == nil || f.Name != "second.txt" {
		t.Fatalf("expected second.txt to be selected, got %+v", f)
	}
	if m.watchedDir != filepath.Dir(second) {
		t.Errorf("watching %q, want %q", m.watchedDir, filepath.Dir(second))
	}
}

func TestEditRejectsInvalidFile(t *testing.T) {
	m := newTestModel(t, writeTextFile(t, "notes.txt", "hello"))

	m, _ = press(m, "e")
	m.input.SetValue(writeTextFile(t, "notes.md", "# hello"))
	m, _ = press(m, "enter")

	if m.ctrl.File() != nil {
		t.Error("expected no file to be selected")
	}
	if m.panel.err != tts.MsgNotTextFile {
		t.Errorf("error = %q, want %q", m.panel.err, tts.MsgNotTextFile)
	}
	if m.panel.label != tts.DefaultFileLabel {
		t.Errorf("label = %q, want %q", m.panel.label, tts.DefaultFileLabel)
	}
}

func TestEditCancel(t *testing.T) {
	m := newTestModel(t, writeTextFile(t, "notes.txt", "hello"))

	m, _ = press(m, "e")
	m.input.SetValue("somewhere/else.txt")
	m, _ = press(m, "esc")

	if m.state != stateForm {
		t.Errorf("state = %s, want %s", m.state, stateForm)
	}
	if f := m.ctrl.File(); f == nil || f.Name != "notes.txt" {
		t.Errorf("expected the selection to be kept, got %+v", f)
	}
}

func TestCompletion(t *testing.T) {
	m := newTestModel(t, "")
	m.candidates = []string{"a/one.txt", "a/two.txt", "b.txt"}
	m.input.SetValue("a/")

	for _, want := range []string{"a/one.txt", "a/two.txt", "a/one.txt"} {
		m, _ = press(m, "tab")
		if got := m.input.Value(); got != want {
			t.Errorf("completed %q, want %q", got, want)
		}
	}
}

func TestConvert(t *testing.T) {
	m := newTestModel(t, writeTextFile(t, "notes.txt", "hello"))

	m, cmd := press(m, "c")
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if !m.panel.busy || m.panel.status.Message != tts.MsgUploading {
		t.Errorf("status = %q (busy %t)", m.panel.status.Message, m.panel.busy)
	}

	// the voice can't change mid-conversion
	voice := m.voice()
	m, _ = press(m, "l")
	if m.voice() != voice {
		t.Errorf("voice changed to %q while busy", m.voice())
	}

	m = drive(t, m, cmd, func(m model) bool { return m.audio != nil })

	if m.panel.busy {
		t.Error("expected the form to be enabled again")
	}
	if m.panel.status.Message != tts.MsgReady {
		t.Errorf("status = %q, want %q", m.panel.status.Message, tts.MsgReady)
	}
	if m.panel.audio != (tts.Audio{Visible: true, URL: "/download/job-1.mp3"}) {
		t.Errorf("audio = %+v", m.panel.audio)
	}
	if string(m.audio) != string(testAudio) {
		t.Errorf("downloaded %q", m.audio)
	}

	view := m.View()
	for _, want := range []string{"notes.txt", tts.MsgReady, "/download/job-1.mp3", "r to start over"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestConvertWithoutDownloadURL(t *testing.T) {
	m, srv := newTestModelWith(t, writeTextFile(t, "notes.txt", "hello"), readyNoURL)

	m, cmd := press(m, "c")
	m = drive(t, m, cmd, func(m model) bool { return m.notice != "" })

	if m.notice != tts.MsgNoDownloadURL || !m.noticeIsErr {
		t.Errorf("notice = %q (error %t)", m.notice, m.noticeIsErr)
	}
	if m.panel.audio != (tts.Audio{Visible: true}) {
		t.Errorf("audio = %+v, want a panel without a link", m.panel.audio)
	}
	if m.downloading || m.audio != nil || m.audioURL != "" {
		t.Errorf("downloading = %t audio = %q url = %q", m.downloading, m.audio, m.audioURL)
	}
	if srv.downloads != 0 || srv.pages != 0 {
		t.Errorf("downloads = %d pages = %d, want nothing fetched", srv.downloads, srv.pages)
	}
	if view := m.View(); !strings.Contains(view, "no download link") {
		t.Errorf("view should show the panel without a link:\n%s", view)
	}

	m, _ = press(m, "y")
	if m.notice != "No link yet" {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestStaleDownloadDropped(t *testing.T) {
	m, srv := newTestModelWith(t, writeTextFile(t, "notes.txt", "hello"), ready)

	m, cmd := press(m, "c")
	m = drive(t, m, cmd, func(m model) bool { return m.audio != nil })
	first := downloadedMsg{url: m.audioURL, key: m.audioKey, data: []byte("old audio")}
	if first.url == "" || first.key == "" {
		t.Fatalf("expected the download to be recorded, got %+v", first)
	}

	// a second conversion is in flight when the first download lands
	m, cmd = press(m, "c")
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(first)
	m = next.(model)
	if m.audio != nil {
		t.Errorf("stale download applied during a new conversion: %q", m.audio)
	}

	m = drive(t, m, cmd, func(m model) bool { return m.audio != nil })
	if !strings.HasSuffix(m.audioURL, "/download/job-2.mp3") {
		t.Errorf("audio url = %q, want job-2", m.audioURL)
	}
	if m.audioKey != first.key {
		t.Errorf("identical text and voice should share a cache key")
	}
	if srv.downloads != 1 {
		t.Errorf("downloads = %d, want the second job served from the cache", srv.downloads)
	}

	// and after a reset
	m, _ = press(m, "r")
	next, _ = m.Update(first)
	m = next.(model)
	if m.audio != nil || m.downloading {
		t.Errorf("stale download applied after reset: %q", m.audio)
	}
}

func TestRefusedConvertKeepsAudio(t *testing.T) {
	m := newTestModel(t, writeTextFile(t, "notes.txt", "hello"))

	m, cmd := press(m, "c")
	m = drive(t, m, cmd, func(m model) bool { return m.audio != nil })
	url := m.audioURL

	m.ctrl.SelectFile(nil)
	m, cmd = press(m, "c")
	if cmd != nil {
		t.Error("expected no command")
	}
	if m.audio == nil || m.audioURL != url {
		t.Errorf("audio dropped by a refused conversion: url %q", m.audioURL)
	}
	if m.panel.err != tts.MsgSelectFile {
		t.Errorf("error = %q, want %q", m.panel.err, tts.MsgSelectFile)
	}
}

func TestPlayWithoutFFmpeg(t *testing.T) {
	m := newTestModel(t, writeTextFile(t, "notes.txt", "hello"))

	m, cmd := press(m, "c")
	m = drive(t, m, cmd, func(m model) bool { return m.audio != nil })

	m.svc.decoder = fakeDecoder{missing: true}
	m, _ = press(m, "p")
	if m.notice != errNoFFmpeg.Error() || !m.noticeIsErr {
		t.Errorf("notice = %q (error %t)", m.notice, m.noticeIsErr)
	}
	if m.playing {
		t.Error("expected no playback")
	}
}

func TestConvertWithoutFile(t *testing.T) {
	m := newTestModel(t, "")
	m, _ = press(m, "esc")

	m, cmd := press(m, "c")
	if cmd != nil {
		t.Error("expected no command")
	}
	if m.panel.err != tts.MsgSelectFile {
		t.Errorf("error = %q, want %q", m.panel.err, tts.MsgSelectFile)
	}
}

func TestReset(t *testing.T) {
	m := newTestModel(t, writeTextFile(t, "notes.txt", "hello"))
	m.audio = testAudio

	m, _ = press(m, "c")
	m, _ = press(m, "r")

	if m.ctrl.File() != nil || m.panel.selected {
		t.Error("expected the file to be cleared")
	}
	if m.panel.busy || m.panel.status.Message != "" || m.panel.audio.Visible || m.panel.err != "" {
		t.Errorf("expected a clean panel, got %+v", *m.panel)
	}
	if m.audio != nil {
		t.Error("expected the audio to be dropped")
	}
	if m.watchedDir != "" {
		t.Errorf("still watching %q", m.watchedDir)
	}
	if m.ctrl.Phase() != tts.PhaseIdle {
		t.Errorf("phase = %s, want %s", m.ctrl.Phase(), tts.PhaseIdle)
	}
}

func TestFileEvents(t *testing.T) {
	t.Run("write revalidates", func(t *testing.T) {
		path := writeTextFile(t, "notes.txt", "hello")
		m := newTestModel(t, path)

		if err := os.WriteFile(path, []byte(strings.Repeat("a", tts.MaxFileSize+1)), 0o600); err != nil {
			t.Fatal(err)
		}
		m.handleFileEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

		if m.ctrl.File() != nil {
			t.Error("expected the file to be deselected")
		}
		if m.panel.err != tts.MsgFileTooLarge {
			t.Errorf("error = %q, want %q", m.panel.err, tts.MsgFileTooLarge)
		}
	})

	t.Run("write updates size", func(t *testing.T) {
		path := writeTextFile(t, "notes.txt", "hello")
		m := newTestModel(t, path)

		if err := os.WriteFile(path, []byte("hello, world"), 0o600); err != nil {
			t.Fatal(err)
		}
		m.handleFileEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

		if f := m.ctrl.File(); f == nil || f.Size != 12 {
			t.Errorf("expected the new size, got %+v", f)
		}
	})

	t.Run("remove deselects", func(t *testing.T) {
		path := writeTextFile(t, "notes.txt", "hello")
		m := newTestModel(t, path)

		m.handleFileEvent(fsnotify.Event{Name: path, Op: fsnotify.Remove})

		if m.ctrl.File() != nil {
			t.Error("expected the file to be deselected")
		}
		if !strings.Contains(m.notice, "removed") {
			t.Errorf("notice = %q", m.notice)
		}
	})

	t.Run("other files are ignored", func(t *testing.T) {
		path := writeTextFile(t, "notes.txt", "hello")
		m := newTestModel(t, path)

		m.handleFileEvent(fsnotify.Event{Name: filepath.Join(filepath.Dir(path), "other.txt"), Op: fsnotify.Remove})

		if m.ctrl.File() == nil {
			t.Error("expected the file to stay selected")
		}
	})
}

func TestNoticeTimeout(t *testing.T) {
	m := newTestModel(t, "")

	m.setNotice("first", false)
	m.setNotice("second", false)

	next, _ := m.Update(noticeTimeoutMsg{id: 1})
	m = next.(model)
	if m.notice != "second" {
		t.Errorf("stale timeout cleared the notice")
	}

	next, _ = m.Update(noticeTimeoutMsg{id: 2})
	m = next.(model)
	if m.notice != "" {
		t.Errorf("notice = %q, want it cleared", m.notice)
	}
}
