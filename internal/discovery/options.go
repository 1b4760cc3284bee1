package discovery

import (
	"fmt"
	"os"
	"time"

	"github.com/ramkansal/tagscout/internal/extractor"
	"github.com/ramkansal/tagscout/pkg/plugin"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the discovery engine.
type Config struct {
	// Request options
	Timeout          time.Duration `yaml:"timeout"`
	UserAgent        string        `yaml:"user_agent"`
	MaxResponseSize  int           `yaml:"max_response_size"`
	Proxy            string        `yaml:"proxy"`
	CustomHeaders    []string      `yaml:"headers"`
	DisableRedirects bool          `yaml:"disable_redirects"`

	// Fetcher selection
	FetcherMode FetcherMode   `yaml:"fetcher"`
	SettleDelay time.Duration `yaml:"settle_delay"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// FetcherMode controls which fetcher to use.
type FetcherMode string

const (
	FetcherHTTP    FetcherMode = "http"
	FetcherBrowser FetcherMode = "browser"
)

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:         15 * time.Second,
		MaxResponseSize: 5 << 20, // 5MB
		FetcherMode:     FetcherHTTP,
		SettleDelay:     2 * time.Second,
		LogLevel:        "info",
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxResponseSize < 0 {
		return fmt.Errorf("max_response_size must not be negative, got %d", c.MaxResponseSize)
	}
	switch c.FetcherMode {
	case FetcherHTTP, FetcherBrowser:
	default:
		return fmt.Errorf("unknown fetcher %q (want http or browser)", c.FetcherMode)
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	return nil
}

// Option customizes an Engine.
type Option func(*Engine)

// WithFetcher replaces the fetcher Init would build from the config.
func WithFetcher(f plugin.Fetcher) Option {
	return func(e *Engine) { e.fetcher = f }
}

// WithRegistry replaces the built-in vendor registry.
func WithRegistry(r *extractor.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides the wall clock used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how TrackingScript IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}
