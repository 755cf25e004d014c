// Package config supplies the settings consumed by the fetch pipeline and
// the persisted user profile. Defaults live in code; an optional YAML
// settings file overlays them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the scraped site.
const DefaultBaseURL = "https://www.vlr.gg"

// DefaultUserAgent mimics a desktop browser; vlr.gg serves bot user
// agents a reduced page.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config carries every knob the fetch pipeline consumes. The pipeline
// itself never reads files or flags; the CLI builds one of these and
// passes it down.
type Config struct {
	BaseURL   string
	UserAgent string

	RequestTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RateLimitDelay time.Duration

	CacheTTL        time.Duration
	CacheDir        string
	CacheEnabled    bool
	MemoryCacheSize int

	MaxConcurrency int

	LogLevel string
	LogFile  string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		UserAgent:       DefaultUserAgent,
		RequestTimeout:  10 * time.Second,
		MaxRetries:      3,
		RetryBaseDelay:  time.Second,
		RateLimitDelay:  500 * time.Millisecond,
		CacheTTL:        time.Hour,
		CacheDir:        "~/.vlr-matches/cache",
		CacheEnabled:    true,
		MemoryCacheSize: 100,
		MaxConcurrency:  10,
		LogLevel:        "info",
		LogFile:         "",
	}
}

// fileConfig is the YAML shape of the settings file. Durations are plain
// seconds so the file reads naturally ("rate_limit_delay: 0.5").
type fileConfig struct {
	BaseURL         *string  `yaml:"base_url"`
	UserAgent       *string  `yaml:"user_agent"`
	RequestTimeout  *float64 `yaml:"request_timeout"`
	MaxRetries      *int     `yaml:"max_retries"`
	RetryDelay      *float64 `yaml:"retry_delay"`
	RateLimitDelay  *float64 `yaml:"rate_limit_delay"`
	CacheTTLSeconds *float64 `yaml:"cache_ttl_seconds"`
	CacheDir        *string  `yaml:"cache_dir"`
	CacheEnabled    *bool    `yaml:"cache_enabled"`
	MemoryCacheSize *int     `yaml:"memory_cache_size"`
	MaxConcurrency  *int     `yaml:"max_concurrency"`
	LogLevel        *string  `yaml:"log_level"`
	LogFile         *string  `yaml:"log_file"`
}

// Load reads an optional settings file over the defaults. A missing file
// is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	fc.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating settings %s: %w", path, err)
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.BaseURL != nil {
		cfg.BaseURL = *fc.BaseURL
	}
	if fc.UserAgent != nil {
		cfg.UserAgent = *fc.UserAgent
	}
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = seconds(*fc.RequestTimeout)
	}
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}
	if fc.RetryDelay != nil {
		cfg.RetryBaseDelay = seconds(*fc.RetryDelay)
	}
	if fc.RateLimitDelay != nil {
		cfg.RateLimitDelay = seconds(*fc.RateLimitDelay)
	}
	if fc.CacheTTLSeconds != nil {
		cfg.CacheTTL = seconds(*fc.CacheTTLSeconds)
	}
	if fc.CacheDir != nil {
		cfg.CacheDir = *fc.CacheDir
	}
	if fc.CacheEnabled != nil {
		cfg.CacheEnabled = *fc.CacheEnabled
	}
	if fc.MemoryCacheSize != nil {
		cfg.MemoryCacheSize = *fc.MemoryCacheSize
	}
	if fc.MaxConcurrency != nil {
		cfg.MaxConcurrency = *fc.MaxConcurrency
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFile != nil {
		cfg.LogFile = *fc.LogFile
	}
}

// Validate checks ranges and fills anything a sparse file left at zero.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}
	if c.MaxRetries < 1 {
		return errors.New("max_retries must be >= 1")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.RetryBaseDelay <= 0 {
		return errors.New("retry_delay must be positive")
	}
	if c.RateLimitDelay < 0 {
		return errors.New("rate_limit_delay must not be negative")
	}
	if c.CacheTTL <= 0 {
		return errors.New("cache_ttl_seconds must be positive")
	}
	if c.MemoryCacheSize < 1 {
		return errors.New("memory_cache_size must be >= 1")
	}
	if c.MaxConcurrency < 1 {
		return errors.New("max_concurrency must be >= 1")
	}
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// ExpandPath expands a leading ~/ to the user home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
