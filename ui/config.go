package ui

import "github.com/knoxify/knoxify/tts"

// Config contains TUI-specific configuration.
type Config struct {
	// Conversion settings, loaded from the config file
	TTS tts.Config `env:"-"`

	// File to preselect, if any
	Path string `env:"-"`

	ShowAllFiles bool `env:"-"`
	EnableMouse  bool `env:"-"`

	// For debugging the UI
	AltScreen    bool `env:"KNOXIFY_ALT_SCREEN"    envDefault:"true"`
	AutoDownload bool `env:"KNOXIFY_AUTO_DOWNLOAD" envDefault:"true"`
}
