package tts

import (
	"fmt"
	"net/url"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads and writes as "1s" in YAML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	v, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", n.Value, err)
	}
	*d = Duration(v)
	return nil
}

// Config contains all conversion settings.
type Config struct {
	// Address of the conversion server
	Server string `yaml:"server" mapstructure:"server"`

	// Voice used when none is given
	Voice string `yaml:"voice" mapstructure:"voice"`

	// Delay between status checks
	PollInterval Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// Per-request timeout
	Timeout Duration `yaml:"timeout" mapstructure:"timeout"`

	// Upper bound on requests per second, 0 disables the limit
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// Where saved audio goes when no path is given
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Player PlayerConfig `yaml:"player" mapstructure:"player"`
}

// CacheConfig holds settings for the downloaded audio cache.
type CacheConfig struct {
	// Cache directory (defaults to the user cache dir)
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Maximum cache size in MB
	MaxSize int64 `yaml:"max_size" mapstructure:"max_size"`

	// Compress entries with zstd
	Compression bool `yaml:"compression" mapstructure:"compression"`
}

// PlayerConfig holds playback settings.
type PlayerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	FFmpeg  string `yaml:"ffmpeg" mapstructure:"ffmpeg"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server:            "http://localhost:5000",
		Voice:             DefaultVoice,
		PollInterval:      Duration(DefaultPollInterval),
		Timeout:           Duration(30 * time.Second),
		RequestsPerSecond: 0,
		OutputDir:         ".",
		Cache: CacheConfig{
			MaxSize:     100,
			Compression: true,
		},
		Player: PlayerConfig{
			Enabled: true,
			FFmpeg:  "ffmpeg",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server %q: must be an http or https url", c.Server)
	}

	if c.Voice == "" {
		return fmt.Errorf("voice must not be empty")
	}

	if c.PollInterval.Std() < 100*time.Millisecond {
		return fmt.Errorf("poll interval must be at least 100ms, got %s", c.PollInterval.Std())
	}

	if c.Timeout.Std() <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout.Std())
	}

	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got %g", c.RequestsPerSecond)
	}

	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.Cache.MaxSize)
	}

	if c.Player.Enabled && c.Player.FFmpeg == "" {
		return fmt.Errorf("player.ffmpeg must be set when playback is enabled")
	}

	return nil
}

// GenerateExampleConfig generates an example configuration file.
func GenerateExampleConfig() (string, error) {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("unable to encode config: %w", err)
	}

	header := `# knoxify configuration
#
# server:         address of the text-to-speech server
# voice:          voice used when --voice is not given
# poll_interval:  delay between job status checks
# cache.dir:      leave empty to use the user cache directory

`
	return header + string(data), nil
}
