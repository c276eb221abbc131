package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algous-Studio/aw-core/internal/awerr"
)

type fakeTable struct {
	rows    map[string]int64
	lookups int
	loads   int
}

func (f *fakeTable) lookup(_ context.Context, bucketID string) (int64, bool, error) {
	f.lookups++
	rowRef, ok := f.rows[bucketID]
	return rowRef, ok, nil
}

func (f *fakeTable) loadAll(_ context.Context) (map[string]int64, error) {
	f.loads++
	out := make(map[string]int64, len(f.rows))
	for k, v := range f.rows {
		out[k] = v
	}
	return out, nil
}

func TestResolveCachesAfterMiss(t *testing.T) {
	table := &fakeTable{rows: map[string]int64{"b1": 7}}
	dir := NewBucketDirectory(table.lookup, table.loadAll)

	ctx := context.Background()
	rowRef, err := dir.Resolve(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rowRef)
	assert.Equal(t, 1, table.lookups)

	// Second resolve is served from the cache.
	rowRef, err = dir.Resolve(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rowRef)
	assert.Equal(t, 1, table.lookups)
}

func TestResolveNotFound(t *testing.T) {
	table := &fakeTable{rows: map[string]int64{}}
	dir := NewBucketDirectory(table.lookup, table.loadAll)

	_, err := dir.Resolve(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, awerr.IsNotFound(err))

	// A miss is not cached; the next resolve hits storage again.
	_, _ = dir.Resolve(context.Background(), "missing")
	assert.Equal(t, 2, table.lookups)
}

func TestInvalidateForcesFreshRead(t *testing.T) {
	table := &fakeTable{rows: map[string]int64{"b1": 7}}
	dir := NewBucketDirectory(table.lookup, table.loadAll)

	ctx := context.Background()
	_, err := dir.Resolve(ctx, "b1")
	require.NoError(t, err)

	// Simulate delete-and-recreate behind the cache.
	table.rows["b1"] = 8
	dir.Invalidate("b1")

	rowRef, err := dir.Resolve(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), rowRef)
	assert.Equal(t, 2, table.lookups)
}

func TestRebuildReplacesCache(t *testing.T) {
	table := &fakeTable{rows: map[string]int64{"b1": 1, "b2": 2}}
	dir := NewBucketDirectory(table.lookup, table.loadAll)

	require.NoError(t, dir.Rebuild(context.Background()))
	assert.Equal(t, 1, table.loads)

	// Warm entries resolve without a lookup round trip.
	rowRef, err := dir.Resolve(context.Background(), "b2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rowRef)
	assert.Equal(t, 0, table.lookups)
}

func TestResolveWrapsStorageErrors(t *testing.T) {
	failing := NewBucketDirectory(
		func(context.Context, string) (int64, bool, error) {
			return 0, false, errors.New("connection reset")
		},
		nil,
	)

	_, err := failing.Resolve(context.Background(), "b1")
	require.Error(t, err)
	assert.Equal(t, awerr.CategoryStorage, awerr.GetCategory(err))
}
