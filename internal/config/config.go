package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all user-tunable settings. Loaded from a TOML file; any field
// left unset falls back to the defaults in Default().
type Config struct {
	// DataDir is the root for everything strollcast persists.
	DataDir string `toml:"data_dir"`

	// DownloadDir holds completed episode audio files. The directory's
	// contents are the source of truth for download state.
	DownloadDir string `toml:"download_dir"`

	// TranscriptDir caches fetched transcript documents.
	TranscriptDir string `toml:"transcript_dir"`

	// NotesDir holds per-episode annotation documents.
	NotesDir string `toml:"notes_dir"`

	// CatalogURL is the base URL of the episode catalog API.
	CatalogURL string `toml:"catalog_url"`

	// TickIntervalMS is the playback tick interval in milliseconds.
	TickIntervalMS int `toml:"tick_interval_ms"`

	// SkipSeconds is the in-session skip offset (forward and back).
	SkipSeconds int `toml:"skip_seconds"`

	// GoBackSeconds is the offset for the "go back" command.
	GoBackSeconds int `toml:"go_back_seconds"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Default returns the built-in configuration rooted under the user's home.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".local", "share", "strollcast")
	return &Config{
		DataDir:        dataDir,
		DownloadDir:    filepath.Join(dataDir, "downloads"),
		TranscriptDir:  filepath.Join(dataDir, "transcripts"),
		NotesDir:       filepath.Join(dataDir, "notes"),
		CatalogURL:     "https://api.strollcast.com",
		TickIntervalMS: 500,
		SkipSeconds:    15,
		GoBackSeconds:  30,
		LogLevel:       "info",
		LogFormat:      "",
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "strollcast", "config.toml")
}

// Load reads the TOML file at path, layered over defaults. A missing file is
// not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	def := Default()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.DownloadDir == "" {
		c.DownloadDir = filepath.Join(c.DataDir, "downloads")
	}
	if c.TranscriptDir == "" {
		c.TranscriptDir = filepath.Join(c.DataDir, "transcripts")
	}
	if c.NotesDir == "" {
		c.NotesDir = filepath.Join(c.DataDir, "notes")
	}
	if c.CatalogURL == "" {
		c.CatalogURL = def.CatalogURL
	}
	if c.TickIntervalMS <= 0 {
		c.TickIntervalMS = def.TickIntervalMS
	}
	if c.SkipSeconds <= 0 {
		c.SkipSeconds = def.SkipSeconds
	}
	if c.GoBackSeconds <= 0 {
		c.GoBackSeconds = def.GoBackSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// EnsureDirectories creates every directory the services expect to exist.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.DownloadDir, c.TranscriptDir, c.NotesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
