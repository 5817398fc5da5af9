package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the TikTok harvester
type Config struct {
	// Client identity sent to the comment API
	Client ClientConfig `yaml:"client" json:"client"`

	// Browser driving and interception settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Comment pagination settings
	Comments CommentsConfig `yaml:"comments" json:"comments"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ClientConfig describes the client identity presented to the upstream service
type ClientConfig struct {
	UserAgent       string `yaml:"user_agent" json:"user_agent"`
	Referer         string `yaml:"referer" json:"referer"`
	AcceptLanguage  string `yaml:"accept_language" json:"accept_language"`
	AppLanguage     string `yaml:"app_language" json:"app_language"`
	BrowserLanguage string `yaml:"browser_language" json:"browser_language"`
	Region          string `yaml:"region" json:"region"`
	CurrentRegion   string `yaml:"current_region" json:"current_region"`
	TimeZone        string `yaml:"tz_name" json:"tz_name"`
	ScreenWidth     int    `yaml:"screen_width" json:"screen_width"`
	ScreenHeight    int    `yaml:"screen_height" json:"screen_height"`
}

// BrowserConfig holds settings for the headless browser session
type BrowserConfig struct {
	Headless            bool     `yaml:"headless" json:"headless"`
	ExecPath            string   `yaml:"exec_path" json:"exec_path"`
	Locale              string   `yaml:"locale" json:"locale"`
	WindowWidth         int      `yaml:"window_width" json:"window_width"`
	WindowHeight        int      `yaml:"window_height" json:"window_height"`
	ProfileLanguage     string   `yaml:"profile_language" json:"profile_language"`
	ScrollDeltaY        float64  `yaml:"scroll_delta_y" json:"scroll_delta_y"`
	StabilityWindow     int      `yaml:"stability_window" json:"stability_window"`
	MaxScrollIterations int      `yaml:"max_scroll_iterations" json:"max_scroll_iterations"`
	ExcludedTypes       []string `yaml:"excluded_resource_types" json:"excluded_resource_types"`
	BlockedURLs         []string `yaml:"blocked_urls" json:"blocked_urls"`
}

// CommentsConfig holds comment pagination settings
type CommentsConfig struct {
	PageSize       int           `yaml:"page_size" json:"page_size"`
	ReplyPageSize  int           `yaml:"reply_page_size" json:"reply_page_size"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			UserAgent:       "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:100.0) Gecko/20100101 Firefox/100.0",
			Referer:         "https://www.tiktok.com/",
			AcceptLanguage:  "fr,fr-FR;q=0.8,en-US;q=0.5,en;q=0.3",
			AppLanguage:     "ja-JP",
			BrowserLanguage: "fr",
			Region:          "FR",
			CurrentRegion:   "JP",
			TimeZone:        "Europe/Paris",
			ScreenWidth:     1920,
			ScreenHeight:    1080,
		},
		Browser: BrowserConfig{
			Headless:            true,
			Locale:              "fr-FR",
			WindowWidth:         1920,
			WindowHeight:        1080,
			ProfileLanguage:     "fr",
			ScrollDeltaY:        75,
			StabilityWindow:     200,
			MaxScrollIterations: 0, // 0 means no limit
			ExcludedTypes:       []string{"stylesheet", "image", "media", "font"},
			BlockedURLs:         []string{"https://mon-va.byteoversea.com/monitor_browser/collect/batch/"},
		},
		Comments: CommentsConfig{
			PageSize:       50,
			ReplyPageSize:  20,
			RequestTimeout: 30 * time.Second,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 4,
			DownloadTimeout:     5 * time.Minute,
		},
		Output: OutputConfig{
			BaseDirectory: "downloaded_videos",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if userAgent := os.Getenv("TTSCRAPER_USER_AGENT"); userAgent != "" {
		c.Client.UserAgent = userAgent
	}
	if region := os.Getenv("TTSCRAPER_REGION"); region != "" {
		c.Client.Region = region
	}

	// Browser
	if headless := os.Getenv("TTSCRAPER_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if execPath := os.Getenv("TTSCRAPER_BROWSER_PATH"); execPath != "" {
		c.Browser.ExecPath = execPath
	}
	if window := os.Getenv("TTSCRAPER_STABILITY_WINDOW"); window != "" {
		val, err := strconv.Atoi(window)
		if err != nil {
			return fmt.Errorf("invalid TTSCRAPER_STABILITY_WINDOW: %w", err)
		}
		c.Browser.StabilityWindow = val
	}
	if maxIter := os.Getenv("TTSCRAPER_MAX_SCROLL_ITERATIONS"); maxIter != "" {
		val, err := strconv.Atoi(maxIter)
		if err != nil {
			return fmt.Errorf("invalid TTSCRAPER_MAX_SCROLL_ITERATIONS: %w", err)
		}
		c.Browser.MaxScrollIterations = val
	}

	// Output directory
	if outputDir := os.Getenv("TTSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	// Concurrent downloads
	if concurrent := os.Getenv("TTSCRAPER_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	// Logging
	if logLevel := os.Getenv("TTSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("TTSCRAPER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		"ttscraper.yaml",
		"ttscraper.yml",
		".ttscraper.yaml",
		".ttscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "ttscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".ttscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Client.UserAgent == "" {
		errs = append(errs, errors.New("client user agent is required"))
	}

	// Browser
	if c.Browser.ScrollDeltaY <= 0 {
		errs = append(errs, errors.New("scroll delta must be positive"))
	}
	if c.Browser.StabilityWindow < 2 {
		errs = append(errs, errors.New("stability window must be at least 2"))
	}
	if c.Browser.MaxScrollIterations < 0 {
		errs = append(errs, errors.New("max scroll iterations cannot be negative"))
	}

	// Comments
	if c.Comments.PageSize <= 0 {
		errs = append(errs, errors.New("comment page size must be positive"))
	}
	if c.Comments.ReplyPageSize <= 0 {
		errs = append(errs, errors.New("reply page size must be positive"))
	}
	if c.Comments.RequestTimeout <= 0 {
		errs = append(errs, errors.New("comment request timeout must be positive"))
	}

	// Download settings
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 32 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 32"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if window, ok := flags["stability-window"].(int); ok && window > 0 {
		c.Browser.StabilityWindow = window
	}
	if maxIter, ok := flags["max-scrolls"].(int); ok && maxIter >= 0 {
		c.Browser.MaxScrollIterations = maxIter
	}
	if lang, ok := flags["lang"].(string); ok && lang != "" {
		c.Browser.ProfileLanguage = lang
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ttscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
