package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gemini-3-flash-preview", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.NotEmpty(t, cfg.Storage.DatabasePath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-3-flash-preview", cfg.LLM.Model)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("llm:\n  model: gemini-custom\n  timeout: 30s\nstorage:\n  database_path: /tmp/b.db\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-custom", cfg.LLM.Model)
	assert.Equal(t, "/tmp/b.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY sets api key", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "test-key", cfg.LLM.APIKey)
	})

	t.Run("BRANDOS_MODEL overrides model", func(t *testing.T) {
		t.Setenv("BRANDOS_MODEL", "gemini-other")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gemini-other", cfg.LLM.Model)
	})
}

func TestRequestTimeout_BadValueFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "not-a-duration"
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout())
}
