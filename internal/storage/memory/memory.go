// Package memory provides an in-memory Storage backend. It exists for
// tests and ephemeral sessions and must behave identically to the
// persistent backends from the caller's perspective.
package memory

import (
	"context"
	"maps"
	"sort"
	"time"

	"github.com/Algous-Studio/aw-core/internal/awerr"
	"github.com/Algous-Studio/aw-core/internal/models"
	"github.com/Algous-Studio/aw-core/internal/storage"
)

type memBucket struct {
	meta   models.BucketMetadata
	rowRef int64
	events []models.Event
}

// Store keeps everything in process-local maps. Like the persistent
// backends it is single-writer: concurrent use requires external
// serialization or one instance per goroutine.
type Store struct {
	buckets    map[string]*memBucket
	nextRowRef int64
	nextID     int64
}

var _ storage.Storage = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{buckets: make(map[string]*memBucket)}
}

func (s *Store) bucket(bucketID string) (*memBucket, error) {
	b, ok := s.buckets[bucketID]
	if !ok {
		return nil, awerr.NotFoundf("bucket %q does not exist", bucketID)
	}
	return b, nil
}

// normalize snaps an event to its stored form: microsecond-truncated UTC
// interval and a non-nil payload, matching what a round trip through a
// persistent backend produces.
func normalize(ev models.Event) models.Event {
	start, end := ev.Interval()
	ev.Timestamp = time.UnixMicro(start).UTC()
	ev.Duration = time.Duration(end-start) * time.Microsecond
	if ev.Data == nil {
		ev.Data = map[string]any{}
	}
	return ev
}

func cloneEvent(ev models.Event) models.Event {
	if ev.ID != nil {
		id := *ev.ID
		ev.ID = &id
	}
	ev.Data = maps.Clone(ev.Data)
	return ev
}

func cloneMeta(meta models.BucketMetadata) models.BucketMetadata {
	if meta.Name != nil {
		name := *meta.Name
		meta.Name = &name
	}
	meta.Data = maps.Clone(meta.Data)
	return meta
}

func (s *Store) Buckets(_ context.Context) (map[string]models.BucketMetadata, error) {
	out := make(map[string]models.BucketMetadata, len(s.buckets))
	for id, b := range s.buckets {
		out[id] = cloneMeta(b.meta)
	}
	return out, nil
}

func (s *Store) CreateBucket(_ context.Context, bucketID, typeID, client, hostname, created string, name *string, data map[string]any) (models.BucketMetadata, error) {
	if b, ok := s.buckets[bucketID]; ok {
		// Duplicate creation is absorbed; the caller reads back the
		// winner's row.
		return cloneMeta(b.meta), nil
	}
	if data == nil {
		data = map[string]any{}
	}
	s.nextRowRef++
	b := &memBucket{
		meta: models.BucketMetadata{
			ID:       bucketID,
			Name:     name,
			Type:     typeID,
			Client:   client,
			Hostname: hostname,
			Created:  created,
			Data:     maps.Clone(data),
		},
		rowRef: s.nextRowRef,
	}
	s.buckets[bucketID] = b
	return cloneMeta(b.meta), nil
}

func (s *Store) UpdateBucket(_ context.Context, bucketID string, update storage.BucketUpdate) (models.BucketMetadata, error) {
	if update.Empty() {
		return models.BucketMetadata{}, awerr.InvalidArgument("at least one field must be updated")
	}
	b, err := s.bucket(bucketID)
	if err != nil {
		return models.BucketMetadata{}, err
	}
	if update.Type != nil {
		b.meta.Type = *update.Type
	}
	if update.Client != nil {
		b.meta.Client = *update.Client
	}
	if update.Hostname != nil {
		b.meta.Hostname = *update.Hostname
	}
	if update.Name != nil {
		b.meta.Name = update.Name
	}
	if update.Data != nil {
		b.meta.Data = maps.Clone(update.Data)
	}
	return cloneMeta(b.meta), nil
}

func (s *Store) DeleteBucket(_ context.Context, bucketID string) error {
	if _, ok := s.buckets[bucketID]; !ok {
		return awerr.NotFoundf("bucket %q did not exist, could not delete", bucketID)
	}
	// Dropping the bucket drops its events with it; row references are
	// never reused within this store's lifetime.
	delete(s.buckets, bucketID)
	return nil
}

func (s *Store) GetMetadata(_ context.Context, bucketID string) (models.BucketMetadata, error) {
	b, err := s.bucket(bucketID)
	if err != nil {
		return models.BucketMetadata{}, err
	}
	return cloneMeta(b.meta), nil
}

func (s *Store) InsertOne(_ context.Context, bucketID string, event models.Event) (models.Event, error) {
	b, err := s.bucket(bucketID)
	if err != nil {
		return models.Event{}, err
	}
	s.nextID++
	b.events = append(b.events, cloneEvent(normalize(event).WithID(s.nextID)))
	// Stored rows are normalized; the returned event only gains its id,
	// matching what the persistent backends hand back.
	return event.WithID(s.nextID), nil
}

func (s *Store) InsertMany(_ context.Context, bucketID string, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	b, err := s.bucket(bucketID)
	if err != nil {
		return err
	}
	// Two passes: identified events update in place, the rest append.
	for _, ev := range events {
		if ev.ID == nil {
			continue
		}
		norm := normalize(ev)
		for i := range b.events {
			if *b.events[i].ID == *ev.ID {
				b.events[i] = cloneEvent(norm)
				break
			}
		}
	}
	for _, ev := range events {
		if ev.ID != nil {
			continue
		}
		norm := normalize(ev)
		s.nextID++
		b.events = append(b.events, cloneEvent(norm.WithID(s.nextID)))
	}
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, bucketID string, eventID int64) (int, error) {
	b, err := s.bucket(bucketID)
	if err != nil {
		return 0, err
	}
	for i := range b.events {
		if *b.events[i].ID == eventID {
			b.events = append(b.events[:i], b.events[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) Replace(_ context.Context, bucketID string, eventID int64, event models.Event) (models.Event, error) {
	b, err := s.bucket(bucketID)
	if err != nil {
		return models.Event{}, err
	}
	// Unconditional overwrite: a missing row is not an error and the
	// returned event still carries the given identifier.
	for i := range b.events {
		if *b.events[i].ID == eventID {
			b.events[i] = cloneEvent(normalize(event).WithID(eventID))
			break
		}
	}
	return event.WithID(eventID), nil
}

func (s *Store) ReplaceLast(_ context.Context, bucketID string, event models.Event) (models.Event, error) {
	b, err := s.bucket(bucketID)
	if err != nil {
		return models.Event{}, err
	}
	last := -1
	var lastEnd int64
	for i := range b.events {
		_, end := b.events[i].Interval()
		if last < 0 || end > lastEnd {
			last = i
			lastEnd = end
		}
	}
	if last < 0 {
		// Empty bucket: nothing changes and the identifier stays unset.
		return event, nil
	}
	lastID := *b.events[last].ID
	b.events[last] = cloneEvent(normalize(event).WithID(lastID))
	return event.WithID(lastID), nil
}

func (s *Store) GetEvent(_ context.Context, bucketID string, eventID int64) (*models.Event, error) {
	b, err := s.bucket(bucketID)
	if err != nil {
		return nil, err
	}
	for i := range b.events {
		if *b.events[i].ID == eventID {
			ev := cloneEvent(b.events[i])
			return &ev, nil
		}
	}
	return nil, nil
}

func (s *Store) GetEvents(_ context.Context, bucketID string, limit int, start, end *time.Time) ([]models.Event, error) {
	b, err := s.bucket(bucketID)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return []models.Event{}, nil
	}
	startUS, endUS := storage.QueryBounds(start, end)
	matched := make([]models.Event, 0, len(b.events))
	for i := range b.events {
		s0, e0 := b.events[i].Interval()
		if e0 >= startUS && s0 <= endUS {
			matched = append(matched, cloneEvent(b.events[i]))
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		_, ei := matched[i].Interval()
		_, ej := matched[j].Interval()
		return ei > ej
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return storage.ClipEvents(matched, start, end), nil
}

func (s *Store) GetEventCount(_ context.Context, bucketID string, start, end *time.Time) (int, error) {
	b, err := s.bucket(bucketID)
	if err != nil {
		return 0, err
	}
	startUS, endUS := storage.QueryBounds(start, end)
	count := 0
	for i := range b.events {
		s0, e0 := b.events[i].Interval()
		if e0 >= startUS && s0 <= endUS {
			count++
		}
	}
	return count, nil
}

// Flush is a no-op: there is nothing to synchronize.
func (s *Store) Flush(context.Context) {}

// Close is a no-op.
func (s *Store) Close() error { return nil }
