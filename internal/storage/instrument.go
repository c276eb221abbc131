package storage

import (
	"context"
	"time"

	"github.com/Algous-Studio/aw-core/internal/metrics"
	"github.com/Algous-Studio/aw-core/internal/models"
)

// Instrument wraps a backend so every operation reports duration and
// outcome to the recorder. The backend label distinguishes implementations
// when several stores run in one process.
func Instrument(next Storage, backend string, rec metrics.Recorder) Storage {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &instrumentedStorage{next: next, backend: backend, rec: rec}
}

type instrumentedStorage struct {
	next    Storage
	backend string
	rec     metrics.Recorder
}

func (s *instrumentedStorage) done(op string, start time.Time, err error) {
	s.rec.ObserveOpDuration(s.backend, op, time.Since(start))
	s.rec.IncOpResult(s.backend, op, metrics.ResultFor(err))
}

func (s *instrumentedStorage) Buckets(ctx context.Context) (map[string]models.BucketMetadata, error) {
	start := time.Now()
	buckets, err := s.next.Buckets(ctx)
	s.done("buckets", start, err)
	if err == nil {
		s.rec.SetBucketCount(s.backend, len(buckets))
	}
	return buckets, err
}

func (s *instrumentedStorage) CreateBucket(ctx context.Context, bucketID, typeID, client, hostname, created string, name *string, data map[string]any) (models.BucketMetadata, error) {
	start := time.Now()
	meta, err := s.next.CreateBucket(ctx, bucketID, typeID, client, hostname, created, name, data)
	s.done("create_bucket", start, err)
	return meta, err
}

func (s *instrumentedStorage) UpdateBucket(ctx context.Context, bucketID string, update BucketUpdate) (models.BucketMetadata, error) {
	start := time.Now()
	meta, err := s.next.UpdateBucket(ctx, bucketID, update)
	s.done("update_bucket", start, err)
	return meta, err
}

func (s *instrumentedStorage) DeleteBucket(ctx context.Context, bucketID string) error {
	start := time.Now()
	err := s.next.DeleteBucket(ctx, bucketID)
	s.done("delete_bucket", start, err)
	return err
}

func (s *instrumentedStorage) GetMetadata(ctx context.Context, bucketID string) (models.BucketMetadata, error) {
	start := time.Now()
	meta, err := s.next.GetMetadata(ctx, bucketID)
	s.done("get_metadata", start, err)
	return meta, err
}

func (s *instrumentedStorage) InsertOne(ctx context.Context, bucketID string, event models.Event) (models.Event, error) {
	start := time.Now()
	ev, err := s.next.InsertOne(ctx, bucketID, event)
	s.done("insert_one", start, err)
	return ev, err
}

func (s *instrumentedStorage) InsertMany(ctx context.Context, bucketID string, events []models.Event) error {
	start := time.Now()
	err := s.next.InsertMany(ctx, bucketID, events)
	s.done("insert_many", start, err)
	return err
}

func (s *instrumentedStorage) DeleteEvent(ctx context.Context, bucketID string, eventID int64) (int, error) {
	start := time.Now()
	n, err := s.next.DeleteEvent(ctx, bucketID, eventID)
	s.done("delete_event", start, err)
	return n, err
}

func (s *instrumentedStorage) Replace(ctx context.Context, bucketID string, eventID int64, event models.Event) (models.Event, error) {
	start := time.Now()
	ev, err := s.next.Replace(ctx, bucketID, eventID, event)
	s.done("replace", start, err)
	return ev, err
}

func (s *instrumentedStorage) ReplaceLast(ctx context.Context, bucketID string, event models.Event) (models.Event, error) {
	start := time.Now()
	ev, err := s.next.ReplaceLast(ctx, bucketID, event)
	s.done("replace_last", start, err)
	return ev, err
}

func (s *instrumentedStorage) GetEvent(ctx context.Context, bucketID string, eventID int64) (*models.Event, error) {
	start := time.Now()
	ev, err := s.next.GetEvent(ctx, bucketID, eventID)
	s.done("get_event", start, err)
	return ev, err
}

func (s *instrumentedStorage) GetEvents(ctx context.Context, bucketID string, limit int, startTime, endTime *time.Time) ([]models.Event, error) {
	start := time.Now()
	events, err := s.next.GetEvents(ctx, bucketID, limit, startTime, endTime)
	s.done("get_events", start, err)
	return events, err
}

func (s *instrumentedStorage) GetEventCount(ctx context.Context, bucketID string, startTime, endTime *time.Time) (int, error) {
	start := time.Now()
	n, err := s.next.GetEventCount(ctx, bucketID, startTime, endTime)
	s.done("get_eventcount", start, err)
	return n, err
}

func (s *instrumentedStorage) Flush(ctx context.Context) {
	start := time.Now()
	s.next.Flush(ctx)
	s.done("flush", start, nil)
}

func (s *instrumentedStorage) Close() error {
	return s.next.Close()
}
