package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algous-Studio/aw-core/internal/storage"
	"github.com/Algous-Studio/aw-core/internal/storage/storagetest"
)

func TestMemoryStorageConformance(t *testing.T) {
	storagetest.RunSuite(t, func(t *testing.T) storage.Storage {
		return New()
	})
}

func TestReturnedMetadataIsIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateBucket(ctx, "b1", "test", "client", "host", "2024-01-01T00:00:00Z", nil, map[string]any{"k": "v"})
	require.NoError(t, err)

	meta, err := s.GetMetadata(ctx, "b1")
	require.NoError(t, err)
	meta.Data["k"] = "mutated"

	fresh, err := s.GetMetadata(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "v", fresh.Data["k"], "callers must not reach the stored map")
}

func TestRowReferencesNotReused(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateBucket(ctx, "b1", "test", "client", "host", "", nil, nil)
	require.NoError(t, err)
	first := s.buckets["b1"].rowRef

	require.NoError(t, s.DeleteBucket(ctx, "b1"))

	_, err = s.CreateBucket(ctx, "b1", "test", "client", "host", "", nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, s.buckets["b1"].rowRef)
}
