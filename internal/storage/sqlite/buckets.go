package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Algous-Studio/aw-core/internal/awerr"
	"github.com/Algous-Studio/aw-core/internal/models"
	"github.com/Algous-Studio/aw-core/internal/storage"
)

const bucketColumns = "id, name, type, client, hostname, created, datastr"

func scanBucket(row interface{ Scan(...any) error }) (models.BucketMetadata, error) {
	var meta models.BucketMetadata
	var name sql.NullString
	var datastr []byte
	if err := row.Scan(&meta.ID, &name, &meta.Type, &meta.Client, &meta.Hostname, &meta.Created, &datastr); err != nil {
		return models.BucketMetadata{}, err
	}
	if name.Valid {
		meta.Name = &name.String
	}
	meta.Data = models.DecodeBucketData(datastr)
	return meta, nil
}

func (s *Store) Buckets(ctx context.Context) (map[string]models.BucketMetadata, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+bucketColumns+" FROM buckets")
	if err != nil {
		return nil, awerr.Storage(err, "list buckets")
	}
	defer rows.Close()

	buckets := make(map[string]models.BucketMetadata)
	for rows.Next() {
		meta, err := scanBucket(rows)
		if err != nil {
			return nil, awerr.Storage(err, "scan bucket row")
		}
		buckets[meta.ID] = meta
	}
	if err := rows.Err(); err != nil {
		return nil, awerr.Storage(err, "iterate bucket rows")
	}
	return buckets, nil
}

func (s *Store) CreateBucket(ctx context.Context, bucketID, typeID, client, hostname, created string, name *string, data map[string]any) (models.BucketMetadata, error) {
	datastr, err := models.MarshalData(data)
	if err != nil {
		return models.BucketMetadata{}, awerr.Storage(err, "encode bucket metadata")
	}
	// INSERT OR IGNORE absorbs duplicate creation; racing creators read
	// back the winner's row.
	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO buckets (id, name, type, client, hostname, created, datastr) VALUES (?, ?, ?, ?, ?, ?, ?)",
		bucketID, name, typeID, client, hostname, created, datastr)
	if err != nil {
		return models.BucketMetadata{}, awerr.Storage(err, "create bucket")
	}
	s.dir.Invalidate(bucketID)
	return s.GetMetadata(ctx, bucketID)
}

func (s *Store) UpdateBucket(ctx context.Context, bucketID string, update storage.BucketUpdate) (models.BucketMetadata, error) {
	var sets []string
	var args []any
	if update.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, *update.Type)
	}
	if update.Client != nil {
		sets = append(sets, "client = ?")
		args = append(args, *update.Client)
	}
	if update.Hostname != nil {
		sets = append(sets, "hostname = ?")
		args = append(args, *update.Hostname)
	}
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Data != nil {
		datastr, err := models.MarshalData(update.Data)
		if err != nil {
			return models.BucketMetadata{}, awerr.Storage(err, "encode bucket metadata")
		}
		sets = append(sets, "datastr = ?")
		args = append(args, datastr)
	}
	if len(sets) == 0 {
		return models.BucketMetadata{}, awerr.InvalidArgument("at least one field must be updated")
	}
	args = append(args, bucketID)
	if _, err := s.db.ExecContext(ctx, "UPDATE buckets SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return models.BucketMetadata{}, awerr.Storage(err, "update bucket")
	}
	return s.GetMetadata(ctx, bucketID)
}

func (s *Store) DeleteBucket(ctx context.Context, bucketID string) error {
	// ON DELETE CASCADE drops the bucket's events with the row.
	res, err := s.db.ExecContext(ctx, "DELETE FROM buckets WHERE id = ?", bucketID)
	if err != nil {
		return awerr.Storage(err, "delete bucket")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return awerr.Storage(err, "delete bucket")
	}
	s.dir.Invalidate(bucketID)
	if n != 1 {
		return awerr.NotFoundf("bucket %q did not exist, could not delete", bucketID)
	}
	return nil
}

func (s *Store) GetMetadata(ctx context.Context, bucketID string) (models.BucketMetadata, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+bucketColumns+" FROM buckets WHERE id = ?", bucketID)
	meta, err := scanBucket(row)
	if err == sql.ErrNoRows {
		return models.BucketMetadata{}, awerr.NotFoundf("bucket %q did not exist, could not get metadata", bucketID)
	}
	if err != nil {
		return models.BucketMetadata{}, awerr.Storage(err, "get bucket metadata")
	}
	return meta, nil
}
