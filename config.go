// Package llmpipeline defines the host-facing conversation schema,
// generation parameters, configuration, and error taxonomy shared by
// pipeline implementations.
//
// The package itself carries no provider logic: the conversion of turns
// into a provider wire format and the HTTP/SSE handling live in the
// provider subpackages (see providers/anthropic).
package llmpipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in configuration defaults.
const (
	DefaultBaseURL    = "https://api.anthropic.com/v1/messages"
	DefaultAPIVersion = "2023-06-01"

	defaultMaxImages      = 5
	defaultMaxImageSizeMB = 100
	defaultMaxTokens      = 4096
	defaultTemperature    = 0.8
	defaultTopK           = 40
	defaultTopP           = 0.9
	defaultTimeout        = 120 * time.Second
)

// Config holds the adapter's static configuration: the API credential,
// per-call image limits, and the generation defaults used when a caller
// omits a parameter. A Config is read-only for the duration of a call;
// it may be replaced between calls (last writer wins) but updates are
// not synchronized against in-flight calls.
type Config struct {
	// APIKey is the upstream API credential. Required for any live call;
	// construction without one is allowed (the startup hook warns).
	APIKey string `yaml:"api_key"`

	// BaseURL is the messages endpoint URL
	BaseURL string `yaml:"base_url"`

	// APIVersion is sent as the anthropic-version header
	APIVersion string `yaml:"api_version"`

	// MaxImages is the maximum number of image blocks per call
	MaxImages int `yaml:"max_images"`

	// MaxImageSizeMB caps the cumulative decoded size of all base64
	// images in one call, in megabytes
	MaxImageSizeMB int `yaml:"max_image_size_mb"`

	// DefaultMaxTokens is used when the caller omits max_tokens
	DefaultMaxTokens int `yaml:"default_max_tokens"`

	// DefaultTemperature is used when the caller omits temperature
	DefaultTemperature float64 `yaml:"default_temperature"`

	// DefaultTopK is used when the caller omits top_k
	DefaultTopK int `yaml:"default_top_k"`

	// DefaultTopP is used when the caller omits top_p
	DefaultTopP float64 `yaml:"default_top_p"`

	// Timeout bounds non-streaming HTTP calls
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with every field at its default and no
// API key.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of the config with zero-valued fields
// replaced by the built-in defaults.
func (c Config) WithDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.MaxImages == 0 {
		c.MaxImages = defaultMaxImages
	}
	if c.MaxImageSizeMB == 0 {
		c.MaxImageSizeMB = defaultMaxImageSizeMB
	}
	if c.DefaultMaxTokens == 0 {
		c.DefaultMaxTokens = defaultMaxTokens
	}
	if c.DefaultTemperature == 0 {
		c.DefaultTemperature = defaultTemperature
	}
	if c.DefaultTopK == 0 {
		c.DefaultTopK = defaultTopK
	}
	if c.DefaultTopP == 0 {
		c.DefaultTopP = defaultTopP
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// ConfigFromEnv builds a default config with the API key taken from the
// ANTHROPIC_API_KEY environment variable. Examples additionally load a
// .env file first (see examples/helpers).
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	return cfg
}

// LoadConfig reads a YAML config file and applies defaults to any field
// the file leaves unset.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg.WithDefaults(), nil
}
