package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "awstore.db", cfg.Storage.Path)
	assert.NotEmpty(t, cfg.Metrics.Addr)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awstore.yaml")
	content := `
storage:
  backend: postgres
  dsn: postgres://aw:aw@localhost:5432/aw
metrics:
  addr: 127.0.0.1:9200
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "postgres://aw:aw@localhost:5432/aw", cfg.Storage.DSN)
	assert.Equal(t, "127.0.0.1:9200", cfg.Metrics.Addr)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_AW_DSN", "postgres://expanded")
	path := filepath.Join(t.TempDir(), "awstore.yaml")
	content := `
storage:
  backend: postgres
  dsn: ${TEST_AW_DSN}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://expanded", cfg.Storage.DSN)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AW_STORAGE_BACKEND", "memory")
	t.Setenv("AW_METRICS_ADDR", "0.0.0.0:9999")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "0.0.0.0:9999", cfg.Metrics.Addr)
}

func TestUnknownBackendRejected(t *testing.T) {
	t.Setenv("AW_STORAGE_BACKEND", "cassandra")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
