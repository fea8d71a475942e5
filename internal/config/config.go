// Package config loads and validates BrandOS configuration from YAML,
// with environment-variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all BrandOS configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the Gemini client.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`

	// Sampling for conversational calls. Routing always runs at
	// temperature 0 regardless of these.
	Temperature float64 `yaml:"temperature"`
	TopK        int     `yaml:"top_k"`
	TopP        float64 `yaml:"top_p"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "BrandOS",
		Version: "0.3.0",
		LLM: LLMConfig{
			Model:       "gemini-3-flash-preview",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Timeout:     "2m",
			Temperature: 0.7,
			TopK:        40,
			TopP:        0.95,
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(".brandos", "brandos.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given path, falling back to defaults
// when the file does not exist. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("BRANDOS_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if dbPath := os.Getenv("BRANDOS_DB_PATH"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
}

// RequestTimeout parses the LLM timeout, defaulting to two minutes.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}
	return nil
}
