package storage

import (
	"context"

	"github.com/Algous-Studio/aw-core/internal/awerr"
)

// LookupFunc resolves one bucket identifier to its internal row reference.
// It returns ok == false when no such bucket exists.
type LookupFunc func(ctx context.Context, bucketID string) (rowRef int64, ok bool, err error)

// LoadAllFunc loads the full identifier-to-row-reference mapping.
type LoadAllFunc func(ctx context.Context) (map[string]int64, error)

// BucketDirectory is a read-through cache translating public bucket
// identifiers to internal row references. It is a derived, rebuildable view
// over the bucket table: all methods mutate only the in-process map, never
// the table itself.
//
// The directory is not safe for concurrent mutation; callers needing
// multi-goroutine access must serialize use of the owning store instance.
type BucketDirectory struct {
	cache   map[string]int64
	lookup  LookupFunc
	loadAll LoadAllFunc
}

// NewBucketDirectory creates an empty directory backed by the given
// resolution functions. Call Rebuild once at startup to warm the cache.
func NewBucketDirectory(lookup LookupFunc, loadAll LoadAllFunc) *BucketDirectory {
	return &BucketDirectory{
		cache:   make(map[string]int64),
		lookup:  lookup,
		loadAll: loadAll,
	}
}

// Resolve returns the row reference for a bucket identifier. A cache miss
// queries storage once and populates the cache. A missing bucket is a
// not_found error; callers must treat it as a hard precondition failure,
// not a retryable condition.
func (d *BucketDirectory) Resolve(ctx context.Context, bucketID string) (int64, error) {
	if rowRef, ok := d.cache[bucketID]; ok {
		return rowRef, nil
	}
	rowRef, ok, err := d.lookup(ctx, bucketID)
	if err != nil {
		return 0, awerr.Storage(err, "resolve bucket row reference")
	}
	if !ok {
		return 0, awerr.NotFoundf("bucket %q does not exist", bucketID)
	}
	d.cache[bucketID] = rowRef
	return rowRef, nil
}

// Invalidate drops a cache entry. Called after bucket creation to force a
// fresh read-after-write and after deletion to prevent stale hits; metadata
// updates never change the row reference and need no invalidation.
func (d *BucketDirectory) Invalidate(bucketID string) {
	delete(d.cache, bucketID)
}

// Rebuild reloads the entire mapping from storage.
func (d *BucketDirectory) Rebuild(ctx context.Context) error {
	mapping, err := d.loadAll(ctx)
	if err != nil {
		return awerr.Storage(err, "rebuild bucket directory")
	}
	d.cache = mapping
	return nil
}
