package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Browser.ScrollDeltaY != 75 {
		t.Errorf("Expected default scroll delta to be 75, got %v", config.Browser.ScrollDeltaY)
	}

	if config.Browser.StabilityWindow != 200 {
		t.Errorf("Expected default stability window to be 200, got %d", config.Browser.StabilityWindow)
	}

	if config.Comments.PageSize != 50 || config.Comments.ReplyPageSize != 20 {
		t.Errorf("Expected page sizes 50/20, got %d/%d", config.Comments.PageSize, config.Comments.ReplyPageSize)
	}

	if config.Output.BaseDirectory != "downloaded_videos" {
		t.Errorf("Expected default output directory to be downloaded_videos, got %s", config.Output.BaseDirectory)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TTSCRAPER_USER_AGENT", "test-agent")
	t.Setenv("TTSCRAPER_HEADLESS", "false")
	t.Setenv("TTSCRAPER_STABILITY_WINDOW", "300")
	t.Setenv("TTSCRAPER_MAX_SCROLL_ITERATIONS", "5000")
	t.Setenv("TTSCRAPER_OUTPUT_DIR", "/tmp/test-downloads")
	t.Setenv("TTSCRAPER_CONCURRENT_DOWNLOADS", "5")
	t.Setenv("TTSCRAPER_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Client.UserAgent != "test-agent" {
		t.Errorf("Expected user agent to be test-agent, got %s", config.Client.UserAgent)
	}
	if config.Browser.Headless {
		t.Error("Expected headless to be disabled")
	}
	if config.Browser.StabilityWindow != 300 {
		t.Errorf("Expected stability window to be 300, got %d", config.Browser.StabilityWindow)
	}
	if config.Browser.MaxScrollIterations != 5000 {
		t.Errorf("Expected max scroll iterations to be 5000, got %d", config.Browser.MaxScrollIterations)
	}
	if config.Output.BaseDirectory != "/tmp/test-downloads" {
		t.Errorf("Expected output directory to be /tmp/test-downloads, got %s", config.Output.BaseDirectory)
	}
	if config.Download.ConcurrentDownloads != 5 {
		t.Errorf("Expected concurrent downloads to be 5, got %d", config.Download.ConcurrentDownloads)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("TTSCRAPER_STABILITY_WINDOW", "lots")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected an error for a non-numeric stability window")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "window too small",
			mutate:    func(c *Config) { c.Browser.StabilityWindow = 1 },
			wantError: true,
		},
		{
			name:      "negative scroll cap",
			mutate:    func(c *Config) { c.Browser.MaxScrollIterations = -1 },
			wantError: true,
		},
		{
			name:      "zero page size",
			mutate:    func(c *Config) { c.Comments.PageSize = 0 },
			wantError: true,
		},
		{
			name:      "invalid concurrent downloads",
			mutate:    func(c *Config) { c.Download.ConcurrentDownloads = 64 },
			wantError: true,
		},
		{
			name:      "missing output directory",
			mutate:    func(c *Config) { c.Output.BaseDirectory = "" },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"output":           "/flag/output",
		"concurrent":       7,
		"log-level":        "error",
		"headless":         false,
		"stability-window": 250,
		"max-scrolls":      100,
		"lang":             "en",
	}

	config.MergeCommandLineFlags(flags)

	if config.Output.BaseDirectory != "/flag/output" {
		t.Errorf("Expected output directory to be /flag/output, got %s", config.Output.BaseDirectory)
	}
	if config.Download.ConcurrentDownloads != 7 {
		t.Errorf("Expected concurrent downloads to be 7, got %d", config.Download.ConcurrentDownloads)
	}
	if config.Logging.Level != "error" {
		t.Errorf("Expected log level to be error, got %s", config.Logging.Level)
	}
	if config.Browser.Headless {
		t.Error("Expected headless to be false")
	}
	if config.Browser.StabilityWindow != 250 {
		t.Errorf("Expected stability window to be 250, got %d", config.Browser.StabilityWindow)
	}
	if config.Browser.MaxScrollIterations != 100 {
		t.Errorf("Expected max scrolls to be 100, got %d", config.Browser.MaxScrollIterations)
	}
	if config.Browser.ProfileLanguage != "en" {
		t.Errorf("Expected profile language to be en, got %s", config.Browser.ProfileLanguage)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	config := DefaultConfig()
	config.Client.Region = "DE"
	config.Download.ConcurrentDownloads = 8
	config.Download.DownloadTimeout = 90 * time.Second

	if err := config.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedConfig := DefaultConfig()
	if err := loadedConfig.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.Client.Region != "DE" {
		t.Errorf("Expected loaded region to be DE, got %s", loadedConfig.Client.Region)
	}
	if loadedConfig.Download.ConcurrentDownloads != 8 {
		t.Errorf("Expected loaded concurrent downloads to be 8, got %d", loadedConfig.Download.ConcurrentDownloads)
	}
	if loadedConfig.Download.DownloadTimeout != 90*time.Second {
		t.Errorf("Expected loaded download timeout to be 90s, got %v", loadedConfig.Download.DownloadTimeout)
	}
}

func TestLoadFromFileParsesDurations(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ttscraper.yaml")
	content := `
comments:
  page_size: 30
  request_timeout: 10s
browser:
  stability_window: 250
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Comments.PageSize != 30 {
		t.Errorf("Expected page size 30, got %d", config.Comments.PageSize)
	}
	if config.Comments.RequestTimeout != 10*time.Second {
		t.Errorf("Expected request timeout 10s, got %v", config.Comments.RequestTimeout)
	}
	if config.Comments.ReplyPageSize != 20 {
		t.Errorf("Expected untouched reply page size to stay 20, got %d", config.Comments.ReplyPageSize)
	}
	if config.Browser.StabilityWindow != 250 {
		t.Errorf("Expected stability window 250, got %d", config.Browser.StabilityWindow)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}
