package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/gitcha"
	"github.com/muesli/termenv"

	"github.com/knoxify/knoxify/internal/audio"
	"github.com/knoxify/knoxify/internal/cache"
	"github.com/knoxify/knoxify/internal/client"
	"github.com/knoxify/knoxify/tts"
	"github.com/knoxify/knoxify/utils"
)

const playbackPollInterval = 250 * time.Millisecond

var textExtensions = []string{"*.txt"}

var errNoFFmpeg = errors.New("ffmpeg not found")

// services bundles everything the views talk to besides the controller.
type services struct {
	client  *client.Client
	cache   *cache.DiskCache
	decoder audio.Decoder

	newPlayer  func() (audio.Player, error)
	playerOnce sync.Once
	player     audio.Player
	playerErr  error
}

func newServices(cfg tts.Config) (*services, error) {
	cl, err := client.New(cfg.Server,
		client.WithTimeout(cfg.Timeout.Std()),
		client.WithRateLimit(cfg.RequestsPerSecond),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	pcfg := audio.DefaultPlayerConfig()
	svc := &services{
		client:  cl,
		decoder: audio.NewFFmpegDecoder(cfg.Player.FFmpeg, pcfg),
		newPlayer: func() (audio.Player, error) {
			p, err := audio.NewPlayer(pcfg)
			if err != nil {
				return nil, err //nolint:wrapcheck
			}
			return p, nil
		},
	}

	svc.cache, err = OpenCache(cfg)
	if err != nil {
		log.Warn("audio cache disabled", "error", err)
	}
	return svc, nil
}

// OpenCache opens the audio cache described by cfg.
func OpenCache(cfg tts.Config) (*cache.DiskCache, error) {
	dir, err := cacheDir(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	dc, err := cache.Open(cache.Options{
		Dir:      dir,
		Capacity: cfg.Cache.MaxSize << 20,
		Compress: cfg.Cache.Compression,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open cache in %s: %w", dir, err)
	}
	return dc, nil
}

func cacheDir(configured string) (string, error) {
	if configured != "" {
		return utils.ExpandPath(configured), nil
	}
	dir, err := gap.NewScope(gap.User, "knoxify").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

// audioPlayer opens the audio device on first use.
func (s *services) audioPlayer() (audio.Player, error) {
	s.playerOnce.Do(func() {
		s.player, s.playerErr = s.newPlayer()
	})
	return s.player, s.playerErr
}

// canPlay returns errNoFFmpeg when the audio cannot be decoded for playback.
func (s *services) canPlay() error {
	if !s.decoder.Available() {
		return errNoFFmpeg
	}
	return nil
}

func (s *services) close() {
	if s.player != nil {
		_ = s.player.Close()
	}
	if s.cache != nil {
		st := s.cache.Stats()
		log.Debug("audio cache",
			"entries", st.Entries,
			"size", humanize.Bytes(uint64(st.Size)),
			"hits", st.Hits,
			"misses", st.Misses,
			"evictions", st.Evictions,
		)
		_ = s.cache.Close()
	}
}

// MESSAGES

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type voicesMsg struct {
	voices []string
	err    error
}

type downloadedMsg struct {
	url  string
	key  string
	data []byte
	err  error
}

type savedMsg struct {
	path string
	size int
	err  error
}

type playbackMsg struct{ err error }

type playbackCheckMsg struct{}

type playbackFinishedMsg struct{}

type copiedMsg struct{ url string }

type (
	initFileSearchMsg struct {
		cwd string
		ch  chan gitcha.SearchResult
	}
	foundFileMsg       gitcha.SearchResult
	fileSearchFinished struct{}
)

type fileEventMsg fsnotify.Event

type noticeTimeoutMsg struct{ id int }

// COMMANDS

func fetchVoices(cl *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		voices, err := cl.Voices(ctx)
		return voicesMsg{voices: voices, err: err}
	}
}

// download fetches the audio for ref, which may be relative to the server,
// going through the disk cache.
// download fetches the audio at ref. key identifies the audio in the cache;
// without one the resolved URL is used.
func download(svc *services, ref, key string) tea.Cmd {
	return func() tea.Msg {
		if ref == "" {
			return downloadedMsg{key: key, err: tts.ErrNoDownloadURL}
		}
		url, err := svc.client.ResolveURL(ref)
		if err != nil {
			return downloadedMsg{url: ref, key: key, err: err}
		}
		if key == "" {
			key = url
		}

		if svc.cache != nil {
			if data, ok := svc.cache.Get(key); ok {
				log.Debug("audio cache hit", "key", key, "size", humanize.Bytes(uint64(len(data))))
				return downloadedMsg{url: url, key: key, data: data}
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		data, err := svc.client.Download(ctx, ref)
		if err != nil {
			return downloadedMsg{url: url, key: key, err: fmt.Errorf("download failed: %w", err)}
		}

		if svc.cache != nil {
			if err := svc.cache.Put(key, data); err != nil {
				log.Debug("unable to cache audio", "key", key, "error", err)
			}
		}
		log.Debug("audio downloaded", "url", url, "size", humanize.Bytes(uint64(len(data))))
		return downloadedMsg{url: url, key: key, data: data}
	}
}

func saveAudio(path string, data []byte) tea.Cmd {
	return func() tea.Msg {
		path = utils.ExpandPath(path)
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
				return savedMsg{path: path, err: fmt.Errorf("unable to create %s: %w", dir, err)}
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
			return savedMsg{path: path, err: fmt.Errorf("unable to save audio: %w", err)}
		}
		return savedMsg{path: path, size: len(data)}
	}
}

// outputPath is where audio for the selected file is saved by default.
func outputPath(dir string, f *tts.File) string {
	name := "audio"
	if f != nil {
		name = f.Name
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(utils.ExpandPath(dir), utils.AudioFilename(name))
}

// playAudio decodes and plays data. Audio cached under key that fails to
// decode is dropped from the cache so the next request fetches it again.
func playAudio(svc *services, data []byte, key string) tea.Cmd {
	return func() tea.Msg {
		player, err := svc.audioPlayer()
		if err != nil {
			return playbackMsg{err: fmt.Errorf("audio unavailable: %w", err)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		pcm, err := svc.decoder.Decode(ctx, data)
		if err != nil {
			if svc.cache != nil && key != "" && ctx.Err() == nil && svc.cache.Contains(key) {
				if derr := svc.cache.Delete(key); derr != nil {
					log.Debug("unable to drop cached audio", "key", key, "error", derr)
				}
			}
			return playbackMsg{err: err}
		}
		if err := player.Play(pcm); err != nil {
			return playbackMsg{err: err}
		}
		return playbackMsg{}
	}
}

func stopAudio(svc *services) tea.Cmd {
	return func() tea.Msg {
		if svc.player == nil {
			return playbackFinishedMsg{}
		}
		if err := svc.player.Stop(); err != nil {
			return playbackMsg{err: err}
		}
		return playbackFinishedMsg{}
	}
}

func checkPlayback() tea.Cmd {
	return tea.Tick(playbackPollInterval, func(time.Time) tea.Msg {
		return playbackCheckMsg{}
	})
}

func copyLink(url string) tea.Cmd {
	return func() tea.Msg {
		// OSC 52 for remote sessions, then the native clipboard
		termenv.Copy(url)
		_ = clipboard.WriteAll(url)
		return copiedMsg{url: url}
	}
}

func findTextFiles(cwd string, all bool) tea.Cmd {
	return func() tea.Msg {
		var (
			ch  chan gitcha.SearchResult
			err error
		)
		if all {
			ch, err = gitcha.FindAllFilesExcept(cwd, textExtensions, nil)
		} else {
			ch, err = gitcha.FindFilesExcept(cwd, textExtensions, nil)
		}
		if err != nil {
			log.Error("error finding text files", "error", err)
			return errMsg{err}
		}
		return initFileSearchMsg{cwd: cwd, ch: ch}
	}
}

func findNextFile(ch chan gitcha.SearchResult) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if ok {
			return foundFileMsg(res)
		}
		log.Debug("text file search finished")
		return fileSearchFinished{}
	}
}

// watchFiles waits for the next event on the watched directories.
func watchFiles(w *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return nil
				}
				return fileEventMsg(event)
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				log.Debug("fsnotify error", "error", err)
			}
		}
	}
}

func waitForNoticeTimeout(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return noticeTimeoutMsg{id: id}
	})
}
