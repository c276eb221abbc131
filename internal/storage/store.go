// Package storage defines the Storage interface implemented by every
// backend, plus the pieces the backends share: the bucket directory cache,
// query-window clipping, and the metrics decorator.
package storage

import (
	"context"
	"time"

	"github.com/Algous-Studio/aw-core/internal/models"
)

// BucketUpdate carries the fields of a partial bucket update. Nil fields
// are left untouched; an update with no fields set is rejected.
type BucketUpdate struct {
	Type     *string
	Client   *string
	Hostname *string
	Name     *string
	Data     map[string]any
}

// Empty reports whether no field was supplied.
func (u BucketUpdate) Empty() bool {
	return u.Type == nil && u.Client == nil && u.Hostname == nil && u.Name == nil && u.Data == nil
}

// Storage is the persistence contract for bucket-scoped event records.
// Every method the application needs is captured here so callers depend on
// the interface, not on a concrete backend. All implementations must
// behave identically from the caller's perspective.
//
// Callers address buckets by their public string identifier; backends
// resolve it to an internal row reference before touching event rows and
// return a not_found error when resolution fails.
type Storage interface {
	// Buckets returns metadata for every bucket, keyed by identifier.
	Buckets(ctx context.Context) (map[string]models.BucketMetadata, error)

	// CreateBucket creates a bucket if absent. Duplicate creation is not
	// an error: the call reads back and returns the existing row.
	CreateBucket(ctx context.Context, bucketID, typeID, client, hostname, created string, name *string, data map[string]any) (models.BucketMetadata, error)

	// UpdateBucket applies a partial update and returns the new metadata.
	// At least one field must be supplied.
	UpdateBucket(ctx context.Context, bucketID string, update BucketUpdate) (models.BucketMetadata, error)

	// DeleteBucket removes the bucket and, by cascade, all of its events.
	DeleteBucket(ctx context.Context, bucketID string) error

	// GetMetadata returns a single bucket's metadata.
	GetMetadata(ctx context.Context, bucketID string) (models.BucketMetadata, error)

	// InsertOne inserts a single event and returns it with the
	// storage-assigned identifier set.
	InsertOne(ctx context.Context, bucketID string, event models.Event) (models.Event, error)

	// InsertMany upserts a batch: events carrying an identifier replace
	// that row in place; events without one are bulk-inserted. No-op on
	// an empty slice.
	InsertMany(ctx context.Context, bucketID string, events []models.Event) error

	// DeleteEvent removes one event by identifier, scoped to the bucket.
	// Returns the number of rows removed (0 or 1); 0 is not an error.
	DeleteEvent(ctx context.Context, bucketID string, eventID int64) (int, error)

	// Replace unconditionally overwrites the row with the given identifier
	// and returns the event with that identifier set. No existence check
	// is performed.
	Replace(ctx context.Context, bucketID string, eventID int64, event models.Event) (models.Event, error)

	// ReplaceLast overwrites the event with the greatest end time in the
	// bucket and propagates that row's identifier onto the returned
	// event. On an empty bucket nothing changes and the identifier stays
	// unset.
	ReplaceLast(ctx context.Context, bucketID string, event models.Event) (models.Event, error)

	// GetEvent returns one event by identifier, or nil when absent.
	GetEvent(ctx context.Context, bucketID string, eventID int64) (*models.Event, error)

	// GetEvents returns events whose interval overlaps [start, end],
	// most recent end time first. limit == 0 returns an empty slice
	// without querying; limit < 0 means unlimited. Returned events are
	// clipped to the window only when a bound was explicitly supplied.
	GetEvents(ctx context.Context, bucketID string, limit int, start, end *time.Time) ([]models.Event, error)

	// GetEventCount counts events overlapping the same interval, without
	// clipping or limit.
	GetEventCount(ctx context.Context, bucketID string, start, end *time.Time) (int, error)

	// Flush is a best-effort synchronization call. It never fails.
	Flush(ctx context.Context)

	// Close releases the backend's connection.
	Close() error
}
