package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SURREALDB_URL", "SURREALCRUD_SURREALDB_URL", "SURREALCRUD_LISTEN", "SURREALCRUD_STORE"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "surrealcrud.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_defaults(t *testing.T) {
	clearEnv(t)
	var configFile string
	cfg, err := loadConfig(newServeCmd(&configFile), "")
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8000", cfg.URL)
	assert.Equal(t, "surrealcrud", cfg.Namespace)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, storeSurrealDB, cfg.Store)
	assert.Equal(t, "X-User-Id", cfg.UserHeader)
	assert.Empty(t, cfg.Schema)
	assert.False(t, cfg.ReadOnly)
}

func TestLoadConfig_layers(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
store: memory
listen: ":9000"
read_only: true
surrealdb:
  namespace: books
  url: ws://db:8000
`)
	var configFile string
	cmd := newServeCmd(&configFile)

	cfg, err := loadConfig(cmd, path)
	require.NoError(t, err)
	assert.Equal(t, storeMemory, cfg.Store)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "books", cfg.Namespace)
	assert.Equal(t, "ws://db:8000", cfg.URL)
	assert.True(t, cfg.ReadOnly)

	t.Setenv("SURREALCRUD_LISTEN", ":7000")
	t.Setenv("SURREALDB_URL", "ws://env:8000")
	cfg, err = loadConfig(cmd, path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, "ws://env:8000", cfg.URL)

	require.NoError(t, cmd.Flags().Set("listen", ":6000"))
	require.NoError(t, cmd.Flags().Set("log-level", "debug"))
	cfg, err = loadConfig(cmd, path)
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_errors(t *testing.T) {
	clearEnv(t)
	var configFile string

	_, err := loadConfig(newServeCmd(&configFile), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, "store: postgres\n")
	_, err = loadConfig(newServeCmd(&configFile), path)
	assert.ErrorContains(t, err, `unknown store "postgres"`)
}
