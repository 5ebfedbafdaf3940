// Package config loads section-j settings from a YAML file with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/section-j/internal/diagram"
)

// Config holds all runtime settings.
type Config struct {
	DBPath     string       `yaml:"db_path" env:"SECTION_J_DB"`
	LibraryDir string       `yaml:"library_dir" env:"SECTION_J_LIBRARY_DIR"` // empty uses the embedded library
	Grid       diagram.Grid `yaml:"grid"`
	LLM        LLMConfig    `yaml:"llm"`
	Log        LogConfig    `yaml:"log"`
	HTTPAddr   string       `yaml:"http_addr" env:"SECTION_J_HTTP_ADDR"`
}

// LLMConfig selects the chat completion backend.
type LLMConfig struct {
	Provider string        `yaml:"provider" env:"SECTION_J_LLM_PROVIDER"` // openai, ollama or none
	Model    string        `yaml:"model" env:"SECTION_J_LLM_MODEL"`
	BaseURL  string        `yaml:"base_url" env:"SECTION_J_LLM_BASE_URL"`
	APIKey   string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	Timeout  time.Duration `yaml:"timeout" env:"SECTION_J_LLM_TIMEOUT"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"SECTION_J_LOG_LEVEL"`
	Format string `yaml:"format" env:"SECTION_J_LOG_FORMAT"` // json or console
}

// Dir returns the per-user settings directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".section-j")
}

// DefaultPath returns the config file path, honouring $SECTION_J_CONFIG.
func DefaultPath() string {
	if p := os.Getenv("SECTION_J_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		DBPath: filepath.Join(Dir(), "section-j.db"),
		Grid:   diagram.DefaultGrid(),
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTPAddr: "127.0.0.1:8080",
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail later.
func (c *Config) Validate() error {
	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("grid cell size must be positive, got %v", c.Grid.CellSize)
	}
	switch c.LLM.Provider {
	case "openai", "ollama", "none", "":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Log.Format {
	case "json", "console", "":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
