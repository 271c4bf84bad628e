package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load with missing file should not error: %v", err)
	}

	def := Default()
	if cfg.CatalogURL != def.CatalogURL {
		t.Errorf("Expected default catalog URL '%s', got '%s'", def.CatalogURL, cfg.CatalogURL)
	}
	if cfg.TickIntervalMS != 500 {
		t.Errorf("Expected default tick interval 500, got %d", cfg.TickIntervalMS)
	}
}

func TestLoad_OverridesAndDerivedDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
data_dir = "/tmp/strollcast-test"
catalog_url = "https://catalog.example.com"
skip_seconds = 20
log_level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.CatalogURL != "https://catalog.example.com" {
		t.Errorf("Expected overridden catalog URL, got '%s'", cfg.CatalogURL)
	}
	if cfg.SkipSeconds != 20 {
		t.Errorf("Expected skip_seconds 20, got %d", cfg.SkipSeconds)
	}

	// Unset directories derive from data_dir
	want := filepath.Join("/tmp/strollcast-test", "downloads")
	if cfg.DownloadDir != want {
		t.Errorf("Expected download dir '%s', got '%s'", want, cfg.DownloadDir)
	}
	if cfg.GoBackSeconds != 30 {
		t.Errorf("Expected default go_back_seconds 30, got %d", cfg.GoBackSeconds)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("data_dir = [broken"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid TOML")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{
		DataDir:       filepath.Join(base, "data"),
		DownloadDir:   filepath.Join(base, "data", "downloads"),
		TranscriptDir: filepath.Join(base, "data", "transcripts"),
		NotesDir:      filepath.Join(base, "data", "notes"),
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.DownloadDir, cfg.TranscriptDir, cfg.NotesDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("Expected directory %s to exist", dir)
		}
	}
}
