// Package config provides unified configuration loading for InsightGen.
// Supports YAML files, environment variables, and development defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for InsightGen.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Completion    CompletionConfig    `yaml:"completion"`
	Render        RenderConfig        `yaml:"render"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Generators    GeneratorsConfig    `yaml:"generators"`
	Jobs          JobsConfig          `yaml:"jobs"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

// CompletionConfig holds completion service settings.
type CompletionConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	DefaultModel      string        `yaml:"default_model"`
	CallTimeout       time.Duration `yaml:"call_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// RenderConfig holds page rasterization settings.
type RenderConfig struct {
	DPI         int `yaml:"dpi"`
	JPEGQuality int `yaml:"jpeg_quality"`
}

// PipelineConfig holds process-wide generation defaults. Generator workflow
// blocks and per-request overrides take precedence over these values.
type PipelineConfig struct {
	BatchSize         int `yaml:"batch_size"`
	Parallelism       int `yaml:"parallelism"`
	ContextWindowSize int `yaml:"context_window_size"`
}

// GeneratorsConfig holds generator source settings.
type GeneratorsConfig struct {
	Source     string `yaml:"source"` // dir or sqlite
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	Retention time.Duration `yaml:"retention"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment
// overrides. An empty path yields defaults plus environment overrides.
func Load(path string) (*Config, error) {
	// .env is optional; ignore a missing file
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   200 * 1024 * 1024,
		},
		Completion: CompletionConfig{
			DefaultModel:      "gpt-4o",
			CallTimeout:       120 * time.Second,
			RequestsPerSecond: 5,
		},
		Render: RenderConfig{
			DPI:         200,
			JPEGQuality: 85,
		},
		Pipeline: PipelineConfig{
			BatchSize:         10,
			Parallelism:       5,
			ContextWindowSize: 20,
		},
		Generators: GeneratorsConfig{
			Source: "dir",
			Dir:    "generators",
		},
		Jobs: JobsConfig{
			Retention: 24 * time.Hour,
			Timeout:   30 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Generators.Source != "dir" && c.Generators.Source != "sqlite" {
		return fmt.Errorf("invalid generators source: %s", c.Generators.Source)
	}

	if c.Pipeline.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1")
	}

	if c.Pipeline.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1")
	}

	if c.Render.DPI < 72 || c.Render.DPI > 600 {
		return fmt.Errorf("dpi must be between 72 and 600")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API"); v != "" {
		cfg.Completion.APIKey = v
	}

	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Completion.BaseURL = v
	}

	if v := os.Getenv("INSIGHTGEN_MODEL"); v != "" {
		cfg.Completion.DefaultModel = v
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("INSIGHTGEN_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.Parallelism = n
		}
	}

	if v := os.Getenv("INSIGHTGEN_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.BatchSize = n
		}
	}

	if v := os.Getenv("GENERATORS_DIR"); v != "" {
		cfg.Generators.Source = "dir"
		cfg.Generators.Dir = v
	}

	if v := os.Getenv("GENERATORS_DB"); v != "" {
		cfg.Generators.Source = "sqlite"
		cfg.Generators.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
