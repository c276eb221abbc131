// Package storagetest provides a conformance suite that every Storage
// backend must pass. Backends run it from their own test files; behavior
// differences between implementations are bugs by definition.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Algous-Studio/aw-core/internal/awerr"
	"github.com/Algous-Studio/aw-core/internal/models"
	"github.com/Algous-Studio/aw-core/internal/storage"
)

// Factory returns a ready store. Backends sharing state across opens (a
// real server) are handled by unique bucket ids and per-test cleanup.
type Factory func(t *testing.T) storage.Storage

// RunSuite exercises the full Storage contract against the factory.
func RunSuite(t *testing.T, open Factory) {
	t.Run("IdempotentCreate", func(t *testing.T) { testIdempotentCreate(t, open) })
	t.Run("MetadataNotFound", func(t *testing.T) { testMetadataNotFound(t, open) })
	t.Run("UpdateBucket", func(t *testing.T) { testUpdateBucket(t, open) })
	t.Run("EmptyUpdateInvalid", func(t *testing.T) { testEmptyUpdateInvalid(t, open) })
	t.Run("DeleteBucketCascades", func(t *testing.T) { testDeleteBucketCascades(t, open) })
	t.Run("InsertOneRoundTrip", func(t *testing.T) { testInsertOneRoundTrip(t, open) })
	t.Run("InsertManyMixed", func(t *testing.T) { testInsertManyMixed(t, open) })
	t.Run("DeleteEvent", func(t *testing.T) { testDeleteEvent(t, open) })
	t.Run("Replace", func(t *testing.T) { testReplace(t, open) })
	t.Run("ReplaceLast", func(t *testing.T) { testReplaceLast(t, open) })
	t.Run("GetEventsOrderingAndLimit", func(t *testing.T) { testOrderingAndLimit(t, open) })
	t.Run("LimitZero", func(t *testing.T) { testLimitZero(t, open) })
	t.Run("ClippingLaw", func(t *testing.T) { testClippingLaw(t, open) })
	t.Run("UnboundedQueryUnclipped", func(t *testing.T) { testUnboundedUnclipped(t, open) })
	t.Run("EventCount", func(t *testing.T) { testEventCount(t, open) })
	t.Run("FlushNeverFails", func(t *testing.T) { testFlush(t, open) })
}

func newBucket(t *testing.T, s storage.Storage, typeID string) string {
	t.Helper()
	bucketID := "test-" + uuid.NewString()
	_, err := s.CreateBucket(context.Background(), bucketID, typeID, "test-client", "test-host",
		time.Now().UTC().Format(time.RFC3339), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.DeleteBucket(context.Background(), bucketID)
	})
	return bucketID
}

// eventAt builds an event spanning [startUS, startUS+durUS) microseconds.
func eventAt(startUS, durUS int64, data map[string]any) models.Event {
	return models.Event{
		Timestamp: time.UnixMicro(startUS).UTC(),
		Duration:  time.Duration(durUS) * time.Microsecond,
		Data:      data,
	}
}

func testIdempotentCreate(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := "test-" + uuid.NewString()
	name := "first"

	created, err := s.CreateBucket(ctx, bucketID, "test", "client-a", "host-a", "2024-01-01T00:00:00Z", &name, map[string]any{"k": "v"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.DeleteBucket(context.Background(), bucketID) })

	// The second creation must not error and must preserve the winner's
	// fields.
	again, err := s.CreateBucket(ctx, bucketID, "other", "client-b", "host-b", "2025-01-01T00:00:00Z", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, created, again)
	assert.Equal(t, "test", again.Type)
	require.NotNil(t, again.Name)
	assert.Equal(t, "first", *again.Name)
	assert.Equal(t, map[string]any{"k": "v"}, again.Data)
}

func testMetadataNotFound(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()

	_, err := s.GetMetadata(ctx, "no-such-bucket-"+uuid.NewString())
	require.Error(t, err)
	assert.True(t, awerr.IsNotFound(err))

	_, err = s.InsertOne(ctx, "no-such-bucket-"+uuid.NewString(), eventAt(0, 10, nil))
	require.Error(t, err)
	assert.True(t, awerr.IsNotFound(err))
}

func testUpdateBucket(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	newType := "window"
	meta, err := s.UpdateBucket(ctx, bucketID, storage.BucketUpdate{Type: &newType})
	require.NoError(t, err)
	assert.Equal(t, "window", meta.Type)
	// Unspecified fields stay untouched.
	assert.Equal(t, "test-client", meta.Client)
	assert.Equal(t, "test-host", meta.Hostname)

	meta, err = s.UpdateBucket(ctx, bucketID, storage.BucketUpdate{Data: map[string]any{"n": float64(1)}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(1)}, meta.Data)
	assert.Equal(t, "window", meta.Type)
}

func testEmptyUpdateInvalid(t *testing.T, open Factory) {
	s := open(t)
	bucketID := newBucket(t, s, "test")

	_, err := s.UpdateBucket(context.Background(), bucketID, storage.BucketUpdate{})
	require.Error(t, err)
	assert.True(t, awerr.IsInvalidArgument(err))
}

func testDeleteBucketCascades(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	for i := int64(0); i < 3; i++ {
		_, err := s.InsertOne(ctx, bucketID, eventAt(i*10, 10, nil))
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteBucket(ctx, bucketID))

	// The bucket reference is gone: counting must fail with not_found,
	// not report zero.
	_, err := s.GetEventCount(ctx, bucketID, nil, nil)
	require.Error(t, err)
	assert.True(t, awerr.IsNotFound(err))

	err = s.DeleteBucket(ctx, bucketID)
	require.Error(t, err)
	assert.True(t, awerr.IsNotFound(err))
}

func testInsertOneRoundTrip(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	// Nanosecond precision must truncate to microseconds on the way in.
	ts := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	dur := 1500*time.Millisecond + 999*time.Nanosecond
	inserted, err := s.InsertOne(ctx, bucketID, models.Event{Timestamp: ts, Duration: dur, Data: map[string]any{"app": "editor"}})
	require.NoError(t, err)
	require.NotNil(t, inserted.ID)

	got, err := s.GetEvent(ctx, bucketID, *inserted.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ts.Truncate(time.Microsecond).UnixMicro(), got.Timestamp.UnixMicro())
	assert.Equal(t, dur.Truncate(time.Microsecond), got.Duration)
	assert.Equal(t, map[string]any{"app": "editor"}, got.Data)
	assert.Equal(t, time.UTC, got.Timestamp.Location())
}

func testInsertManyMixed(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	first, err := s.InsertOne(ctx, bucketID, eventAt(0, 10, map[string]any{"v": "old"}))
	require.NoError(t, err)

	// One identified event (update in place) and two new ones.
	batch := []models.Event{
		eventAt(100, 10, map[string]any{"v": "updated"}).WithID(*first.ID),
		eventAt(200, 10, map[string]any{"v": "b"}),
		eventAt(300, 10, map[string]any{"v": "c"}),
	}
	require.NoError(t, s.InsertMany(ctx, bucketID, batch))

	count, err := s.GetEventCount(ctx, bucketID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "count grows only by the unidentified events")

	got, err := s.GetEvent(ctx, bucketID, *first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, map[string]any{"v": "updated"}, got.Data)
	assert.Equal(t, int64(100), got.Timestamp.UnixMicro())

	require.NoError(t, s.InsertMany(ctx, bucketID, nil), "empty batch is a no-op")
}

func testDeleteEvent(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	inserted, err := s.InsertOne(ctx, bucketID, eventAt(0, 10, nil))
	require.NoError(t, err)

	n, err := s.DeleteEvent(ctx, bucketID, *inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A second delete is not an error, just zero rows.
	n, err = s.DeleteEvent(ctx, bucketID, *inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := s.GetEvent(ctx, bucketID, *inserted.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testReplace(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	inserted, err := s.InsertOne(ctx, bucketID, eventAt(0, 10, map[string]any{"v": "a"}))
	require.NoError(t, err)

	replaced, err := s.Replace(ctx, bucketID, *inserted.ID, eventAt(50, 5, map[string]any{"v": "b"}))
	require.NoError(t, err)
	require.NotNil(t, replaced.ID)
	assert.Equal(t, *inserted.ID, *replaced.ID)

	got, err := s.GetEvent(ctx, bucketID, *inserted.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(50), got.Timestamp.UnixMicro())
	assert.Equal(t, map[string]any{"v": "b"}, got.Data)

	// No existence check: replacing a missing id succeeds and the
	// returned event still carries it.
	missing := *inserted.ID + 1000
	replaced, err = s.Replace(ctx, bucketID, missing, eventAt(60, 5, nil))
	require.NoError(t, err)
	require.NotNil(t, replaced.ID)
	assert.Equal(t, missing, *replaced.ID)
}

func testReplaceLast(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	// Empty bucket: nothing changes, identifier stays unset.
	out, err := s.ReplaceLast(ctx, bucketID, eventAt(0, 10, nil))
	require.NoError(t, err)
	assert.Nil(t, out.ID)

	_, err = s.InsertOne(ctx, bucketID, eventAt(0, 10, map[string]any{"v": "old"}))
	require.NoError(t, err)
	last, err := s.InsertOne(ctx, bucketID, eventAt(100, 10, map[string]any{"v": "last"}))
	require.NoError(t, err)

	out, err = s.ReplaceLast(ctx, bucketID, eventAt(100, 50, map[string]any{"v": "new"}))
	require.NoError(t, err)
	require.NotNil(t, out.ID)
	assert.Equal(t, *last.ID, *out.ID)

	got, err := s.GetEvent(ctx, bucketID, *last.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, map[string]any{"v": "new"}, got.Data)
	assert.Equal(t, 50*time.Microsecond, got.Duration)

	count, err := s.GetEventCount(ctx, bucketID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func testOrderingAndLimit(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	// Three contiguous intervals: [0,10), [10,20), [20,30).
	for i := int64(0); i < 3; i++ {
		_, err := s.InsertOne(ctx, bucketID, eventAt(i*10, 10, map[string]any{"i": fmt.Sprint(i)}))
		require.NoError(t, err)
	}

	events, err := s.GetEvents(ctx, bucketID, 2, nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(20), events[0].Timestamp.UnixMicro())
	assert.Equal(t, int64(10), events[1].Timestamp.UnixMicro())

	all, err := s.GetEvents(ctx, bucketID, -1, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testLimitZero(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	_, err := s.InsertOne(ctx, bucketID, eventAt(0, 10, nil))
	require.NoError(t, err)

	events, err := s.GetEvents(ctx, bucketID, 0, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func testClippingLaw(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	// Event spans [t0, t3]; query window [t1, t2] with t0 < t1 < t2 < t3.
	t0, t1, t2, t3 := int64(1000), int64(2000), int64(3000), int64(4000)
	_, err := s.InsertOne(ctx, bucketID, eventAt(t0, t3-t0, nil))
	require.NoError(t, err)

	start := time.UnixMicro(t1).UTC()
	end := time.UnixMicro(t2).UTC()
	events, err := s.GetEvents(ctx, bucketID, -1, &start, &end)
	require.NoError(t, err)
	require.Len(t, events, 1)

	gotStart, gotEnd := events[0].Interval()
	assert.Equal(t, t1, gotStart)
	assert.Equal(t, t2, gotEnd)

	count, err := s.GetEventCount(ctx, bucketID, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testUnboundedUnclipped(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	_, err := s.InsertOne(ctx, bucketID, eventAt(1000, 3000, nil))
	require.NoError(t, err)

	events, err := s.GetEvents(ctx, bucketID, -1, nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	gotStart, gotEnd := events[0].Interval()
	assert.Equal(t, int64(1000), gotStart)
	assert.Equal(t, int64(4000), gotEnd)
}

func testEventCount(t *testing.T, open Factory) {
	s := open(t)
	ctx := context.Background()
	bucketID := newBucket(t, s, "test")

	for i := int64(0); i < 5; i++ {
		_, err := s.InsertOne(ctx, bucketID, eventAt(i*10, 10, nil))
		require.NoError(t, err)
	}

	count, err := s.GetEventCount(ctx, bucketID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	// Overlap query: [15, 25] touches the [10,20) and [20,30) intervals.
	start := time.UnixMicro(15).UTC()
	end := time.UnixMicro(25).UTC()
	count, err = s.GetEventCount(ctx, bucketID, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func testFlush(t *testing.T, open Factory) {
	s := open(t)
	// Advisory: must never panic or fail, with or without pending work.
	s.Flush(context.Background())
}
