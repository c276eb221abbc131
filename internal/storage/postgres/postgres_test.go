package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algous-Studio/aw-core/internal/awerr"
	"github.com/Algous-Studio/aw-core/internal/storage"
	"github.com/Algous-Studio/aw-core/internal/storage/storagetest"
)

// Integration tests need a reachable server; point this variable at a
// scratch database to enable them.
const testDSNEnv = "AWSTORE_TEST_POSTGRES_DSN"

func TestPostgresStorageConformance(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping postgres integration tests", testDSNEnv)
	}
	storagetest.RunSuite(t, func(t *testing.T) storage.Storage {
		s, err := New(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMissingDSNIsConfigError(t *testing.T) {
	t.Setenv(EnvDSN, "")

	_, err := New(context.Background(), "")
	require.Error(t, err)
	assert.True(t, awerr.IsCategory(err, awerr.CategoryConfig))
}
