package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db47h/isb/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, 1000, cfg.REPL.HistorySize)
	assert.True(t, cfg.REPL.ColorOutput)
	assert.Equal(t, "] ", cfg.REPL.Prompt)
	assert.Equal(t, "> ", cfg.REPL.ContPrompt)
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isb.toml")
	cfg := config.DefaultConfig()
	cfg.REPL.HistorySize = 42
	cfg.REPL.ColorOutput = false

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.REPL.HistorySize)
	assert.False(t, loaded.REPL.ColorOutput)
}
