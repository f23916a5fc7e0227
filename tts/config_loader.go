package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads the configuration from the global Viper instance.
func LoadConfigFromViper() (Config, error) {
	return LoadConfig(viper.GetViper())
}

// LoadConfig reads the configuration from v on top of the defaults and
// validates it.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("server") {
		cfg.Server = v.GetString("server")
	}
	if v.IsSet("voice") {
		cfg.Voice = v.GetString("voice")
	}
	if v.IsSet("poll_interval") {
		cfg.PollInterval = Duration(v.GetDuration("poll_interval"))
	}
	if v.IsSet("timeout") {
		cfg.Timeout = Duration(v.GetDuration("timeout"))
	}
	if v.IsSet("requests_per_second") {
		cfg.RequestsPerSecond = v.GetFloat64("requests_per_second")
	}
	if v.IsSet("output_dir") {
		cfg.OutputDir = v.GetString("output_dir")
	}

	if v.IsSet("cache.dir") {
		cfg.Cache.Dir = v.GetString("cache.dir")
	}
	if v.IsSet("cache.max_size") {
		cfg.Cache.MaxSize = v.GetInt64("cache.max_size")
	}
	if v.IsSet("cache.compression") {
		cfg.Cache.Compression = v.GetBool("cache.compression")
	}

	if v.IsSet("player.enabled") {
		cfg.Player.Enabled = v.GetBool("player.enabled")
	}
	if v.IsSet("player.ffmpeg") {
		cfg.Player.FFmpeg = v.GetString("player.ffmpeg")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SetDefaults sets default values in Viper.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("server", defaults.Server)
	viper.SetDefault("voice", defaults.Voice)
	viper.SetDefault("poll_interval", defaults.PollInterval.Std().String())
	viper.SetDefault("timeout", defaults.Timeout.Std().String())
	viper.SetDefault("requests_per_second", defaults.RequestsPerSecond)
	viper.SetDefault("output_dir", defaults.OutputDir)

	viper.SetDefault("cache.max_size", defaults.Cache.MaxSize)
	viper.SetDefault("cache.compression", defaults.Cache.Compression)

	viper.SetDefault("player.enabled", defaults.Player.Enabled)
	viper.SetDefault("player.ffmpeg", defaults.Player.FFmpeg)
}
