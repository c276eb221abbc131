package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algous-Studio/aw-core/internal/models"
	"github.com/Algous-Studio/aw-core/internal/storage"
	"github.com/Algous-Studio/aw-core/internal/storage/storagetest"
)

func TestSQLiteStorageConformance(t *testing.T) {
	storagetest.RunSuite(t, func(t *testing.T) storage.Storage {
		s, err := New(context.Background(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "awstore.db")
	ctx := context.Background()

	s, err := New(ctx, dbPath)
	require.NoError(t, err)

	_, err = s.CreateBucket(ctx, "b1", "test", "client", "host", "2024-01-01T00:00:00Z", nil, nil)
	require.NoError(t, err)
	inserted, err := s.InsertOne(ctx, "b1", models.Event{
		Timestamp: time.UnixMicro(1000).UTC(),
		Duration:  500 * time.Microsecond,
		Data:      map[string]any{"app": "editor"},
	})
	require.NoError(t, err)
	s.Flush(ctx)
	require.NoError(t, s.Close())

	// A fresh instance warms its bucket directory from disk on open.
	s2, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	got, err := s2.GetEvent(ctx, "b1", *inserted.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1000), got.Timestamp.UnixMicro())
	assert.Equal(t, map[string]any{"app": "editor"}, got.Data)

	count, err := s2.GetEventCount(ctx, "b1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMalformedBucketDataDecodesEmpty(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.CreateBucket(ctx, "b1", "test", "client", "host", "", nil, nil)
	require.NoError(t, err)

	// Corrupt the stored blob behind the store's back.
	_, err = s.db.ExecContext(ctx, "UPDATE buckets SET datastr = 'not-json' WHERE id = 'b1'")
	require.NoError(t, err)

	meta, err := s.GetMetadata(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, meta.Data)
}
