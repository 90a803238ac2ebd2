package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.Completion.DefaultModel)
	assert.Equal(t, 10, cfg.Pipeline.BatchSize)
	assert.Equal(t, 5, cfg.Pipeline.Parallelism)
	assert.Equal(t, 20, cfg.Pipeline.ContextWindowSize)
	assert.Equal(t, "dir", cfg.Generators.Source)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
pipeline:
  batch_size: 4
render:
  dpi: 150
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Pipeline.BatchSize)
	assert.Equal(t, 150, cfg.Render.DPI)
	// Untouched sections keep defaults.
	assert.Equal(t, 5, cfg.Pipeline.Parallelism)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INSIGHTGEN_PARALLELISM", "9")
	t.Setenv("INSIGHTGEN_MODEL", "gpt-4o-mini")
	t.Setenv("GENERATORS_DB", "/tmp/generators.db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Pipeline.Parallelism)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.DefaultModel)
	assert.Equal(t, "sqlite", cfg.Generators.Source)
	assert.Equal(t, "/tmp/generators.db", cfg.Generators.SQLitePath)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad source", func(c *Config) { c.Generators.Source = "s3" }},
		{"bad batch size", func(c *Config) { c.Pipeline.BatchSize = 0 }},
		{"bad parallelism", func(c *Config) { c.Pipeline.Parallelism = 0 }},
		{"dpi too low", func(c *Config) { c.Render.DPI = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
