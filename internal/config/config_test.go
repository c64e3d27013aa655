package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, 50, cfg.HistoryCapacity)
	assert.Equal(t, 5.0, cfg.SnapThreshold)
	assert.Equal(t, 20.0, cfg.DuplicateOffset)
	assert.Equal(t, 30*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Origins())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("HISTORY_CAPACITY", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, 10, cfg.HistoryCapacity)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SNAP_THRESHOLD=8\nTOKENS_FILE=tokens.yaml\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("SNAP_THRESHOLD")
		os.Unsetenv("TOKENS_FILE")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.SnapThreshold)
	assert.Equal(t, "tokens.yaml", cfg.TokensFile)
}

func TestLoadRejectsBadCapacity(t *testing.T) {
	t.Setenv("HISTORY_CAPACITY", "0")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
