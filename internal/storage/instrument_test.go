package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algous-Studio/aw-core/internal/metrics"
	"github.com/Algous-Studio/aw-core/internal/models"
	"github.com/Algous-Studio/aw-core/internal/storage"
	"github.com/Algous-Studio/aw-core/internal/storage/memory"
)

type testRecorder struct {
	durations map[string]int
	results   map[string]map[metrics.ResultLabel]int
	buckets   map[string]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		durations: map[string]int{},
		results:   map[string]map[metrics.ResultLabel]int{},
		buckets:   map[string]int{},
	}
}

func (r *testRecorder) ObserveOpDuration(_, operation string, _ time.Duration) {
	r.durations[operation]++
}

func (r *testRecorder) IncOpResult(_, operation string, result metrics.ResultLabel) {
	m, ok := r.results[operation]
	if !ok {
		m = map[metrics.ResultLabel]int{}
		r.results[operation] = m
	}
	m[result]++
}

func (r *testRecorder) SetBucketCount(backend string, n int) {
	r.buckets[backend] = n
}

func TestInstrumentRecordsOutcomes(t *testing.T) {
	rec := newTestRecorder()
	store := storage.Instrument(memory.New(), "memory", rec)
	ctx := context.Background()

	_, err := store.CreateBucket(ctx, "b1", "test", "client", "host", "", nil, nil)
	require.NoError(t, err)

	_, err = store.InsertOne(ctx, "b1", models.Event{Timestamp: time.UnixMicro(0).UTC()})
	require.NoError(t, err)

	_, err = store.GetMetadata(ctx, "missing")
	require.Error(t, err)

	_, err = store.UpdateBucket(ctx, "b1", storage.BucketUpdate{})
	require.Error(t, err)

	buckets, err := store.Buckets(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 1)

	assert.Equal(t, 1, rec.results["create_bucket"][metrics.ResultSuccess])
	assert.Equal(t, 1, rec.results["insert_one"][metrics.ResultSuccess])
	assert.Equal(t, 1, rec.results["get_metadata"][metrics.ResultNotFound])
	assert.Equal(t, 1, rec.results["update_bucket"][metrics.ResultInvalidArgument])
	assert.Equal(t, 1, rec.buckets["memory"])
	assert.Equal(t, 1, rec.durations["insert_one"])
}

func TestInstrumentNilRecorderDefaultsToNoop(t *testing.T) {
	store := storage.Instrument(memory.New(), "memory", nil)

	_, err := store.CreateBucket(context.Background(), "b1", "test", "client", "host", "", nil, nil)
	require.NoError(t, err)
}
