package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("Default().TimeoutSeconds = %d, expected %d", cfg.TimeoutSeconds, DefaultTimeoutSeconds)
	}
	if cfg.Headful {
		t.Error("Default().Headful should be false")
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("Default().FFmpegPath = %s, expected ffmpeg", cfg.FFmpegPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults ok", func(c *Config) {}, false},
		{"timeout too small", func(c *Config) { c.TimeoutSeconds = 1 }, true},
		{"timeout too large", func(c *Config) { c.TimeoutSeconds = 601 }, true},
		{"timeout at lower bound", func(c *Config) { c.TimeoutSeconds = MinTimeoutSeconds }, false},
		{"timeout at upper bound", func(c *Config) { c.TimeoutSeconds = MaxTimeoutSeconds }, false},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, true},
		{"empty ffmpeg path", func(c *Config) { c.FFmpegPath = "" }, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("Load() TimeoutSeconds = %d, expected default %d", cfg.TimeoutSeconds, DefaultTimeoutSeconds)
	}
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configFile := filepath.Join(dir, "tvd", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		t.Fatal(err)
	}
	content := "timeout_seconds = 60\nheadful = true\n"
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("Load() TimeoutSeconds = %d, expected 60", cfg.TimeoutSeconds)
	}
	if !cfg.Headful {
		t.Error("Load() should pick up headful = true")
	}
	// Untouched keys keep their defaults
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("Load() FFmpegPath = %s, expected default ffmpeg", cfg.FFmpegPath)
	}
}

func TestLoad_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configFile := filepath.Join(dir, "tvd", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configFile, []byte("timeout_seconds = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() should reject out-of-range timeout from file")
	}
}

func TestExpandOutputDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	cfg := Default()
	cfg.OutputDir = "~/Downloads"

	dir, err := cfg.ExpandOutputDir()
	if err != nil {
		t.Fatalf("ExpandOutputDir() error = %v", err)
	}
	if dir != filepath.Join(home, "Downloads") {
		t.Errorf("ExpandOutputDir() = %s, expected %s", dir, filepath.Join(home, "Downloads"))
	}
}
