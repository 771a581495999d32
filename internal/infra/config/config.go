// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
	Playback PlaybackConfig `yaml:"playback"`
	Preview  PreviewConfig  `yaml:"preview"`
	Audio    AudioConfig    `yaml:"audio"`
	Vibe     VibeConfig     `yaml:"vibe"`
	Messages MessagesConfig `yaml:"messages"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr     string `yaml:"addr" default:":8080"`
	APIToken string `yaml:"api_token"` // Optional; required on every call when set
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"` // JSON lines to this file; console output when empty
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"US"`
}

// PlaybackConfig represents playback session configuration.
type PlaybackConfig struct {
	DefaultVolume    float64 `yaml:"default_volume" default:"0.5" validate:"gte=0,lte=1"`
	ResolveTimeoutMs int     `yaml:"resolve_timeout_ms" default:"10000" validate:"gte=0,lte=60000"`
}

// PreviewConfig represents preview resolution configuration.
type PreviewConfig struct {
	Search SearchConfig `yaml:"search"`
}

// SearchConfig represents the fallback preview search provider.
type SearchConfig struct {
	Type     string         `yaml:"type" default:"deezer" validate:"oneof=none itunes deezer spotify"`
	Settings map[string]any `yaml:"settings"`
}

// AudioConfig represents audio output configuration.
type AudioConfig struct {
	SampleRate        int `yaml:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs          int `yaml:"buffer_ms" default:"250" validate:"gte=10,lte=2000"`
	DownloadTimeoutMs int `yaml:"download_timeout_ms" default:"15000" validate:"gte=1000"`
}

// VibeConfig represents playlist vibe analysis configuration.
type VibeConfig struct {
	Enabled      bool   `yaml:"enabled"`
	APIKey       string `yaml:"api_key" validate:"required_if=Enabled true"`
	Model        string `yaml:"model" default:"gemini-2.5-flash"`
	MaxTracks    int    `yaml:"max_tracks" default:"30" validate:"gte=1,lte=100"`
	LastFmAPIKey string `yaml:"lastfm_api_key"` // Optional tag enrichment
	// Last.fm tags appended to each track description
	LastFmTagCount int `yaml:"lastfm_tag_count" default:"3" validate:"gte=1,lte=10"`
	// Tags and similar artists requested in the summary
	SummaryTagCount int `yaml:"summary_tag_count" default:"5" validate:"gte=1,lte=10"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	NoPreview      string `yaml:"no_preview" default:"No preview available for this track."`
	PlaybackFailed string `yaml:"playback_failed" default:"Playback could not be started."`
	VibeFailed     string `yaml:"vibe_failed" default:"Failed to analyze vibe."`
	SessionExpired string `yaml:"session_expired" default:"Spotify session expired. Please log in again."`
	DefaultError   string `yaml:"default_error" default:"Something went wrong."`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Vibe.APIKey = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.Vibe.LastFmAPIKey = v
	}
	if v := os.Getenv("MOODBOX_API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "no_preview":
		return c.Messages.NoPreview
	case "playback_failed":
		return c.Messages.PlaybackFailed
	case "vibe_failed":
		return c.Messages.VibeFailed
	case "session_expired":
		return c.Messages.SessionExpired
	default:
		return c.Messages.DefaultError
	}
}

// ResolveTimeout returns the per-resolution timeout. Zero means no timeout.
func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.Playback.ResolveTimeoutMs) * time.Millisecond
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
