// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or must be
// provided via CLI flags or the environment.
type Config struct {
	// Server
	Port        int    `json:"port,omitempty"`         // HTTP listen port
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty runs the in-memory store
	JWTSecret   string `json:"jwt_secret,omitempty"`   // HMAC secret for bearer tokens; empty disables ownership checks

	// Generation backend
	APIKey string `json:"api_key,omitempty"` // Gemini API key

	// Pipeline
	WordLimit    int `json:"word_limit,omitempty"`    // Essay word budget
	MaxRetries   int `json:"max_retries,omitempty"`   // Bounded retry count per stage call
	StageTimeout int `json:"stage_timeout,omitempty"` // Per-call timeout in seconds

	// Behavior
	LogJSON bool `json:"log_json,omitempty"` // Emit JSON logs instead of console
	Verbose bool `json:"verbose,omitempty"`  // Debug-level logging
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Port:         8080,
		WordLimit:    650,
		MaxRetries:   2,
		StageTimeout: 90,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if c.WordLimit < 0 {
		return fmt.Errorf("config error: 'word_limit' must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config error: 'max_retries' must be non-negative")
	}
	if c.StageTimeout < 0 {
		return fmt.Errorf("config error: 'stage_timeout' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.WordLimit == 0 {
		result.WordLimit = defaults.WordLimit
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.StageTimeout == 0 {
		result.StageTimeout = defaults.StageTimeout
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overlays well-known environment variables onto the config.
// Environment values win over file values, matching how the server is
// deployed.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
}
