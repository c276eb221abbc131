package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Algous-Studio/aw-core/internal/awerr"
	"github.com/Algous-Studio/aw-core/internal/models"
	"github.com/Algous-Studio/aw-core/internal/storage"
)

const bucketColumns = "id, name, type, client, hostname, created, datastr"

func scanBucket(row pgx.Row) (models.BucketMetadata, error) {
	var meta models.BucketMetadata
	var datastr []byte
	if err := row.Scan(&meta.ID, &meta.Name, &meta.Type, &meta.Client, &meta.Hostname, &meta.Created, &datastr); err != nil {
		return models.BucketMetadata{}, err
	}
	meta.Data = models.DecodeBucketData(datastr)
	return meta, nil
}

func (s *Store) Buckets(ctx context.Context) (map[string]models.BucketMetadata, error) {
	rows, err := s.conn.Query(ctx, "SELECT "+bucketColumns+" FROM buckets")
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
	// ON CONFLICT DO NOTHING absorbs duplicate creation; racing creators
	// read back the winner's row.
	_, err = s.conn.Exec(ctx,
		`INSERT INTO buckets (id, name, type, client, hostname, created, datastr)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
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
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Type != nil {
		add("type", *update.Type)
	}
	if update.Client != nil {
		add("client", *update.Client)
	}
	if update.Hostname != nil {
		add("hostname", *update.Hostname)
	}
	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Data != nil {
		datastr, err := models.MarshalData(update.Data)
		if err != nil {
			return models.BucketMetadata{}, awerr.Storage(err, "encode bucket metadata")
		}
		add("datastr", datastr)
	}
	if len(sets) == 0 {
		return models.BucketMetadata{}, awerr.InvalidArgument("at least one field must be updated")
	}
	args = append(args, bucketID)
	query := fmt.Sprintf("UPDATE buckets SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := s.conn.Exec(ctx, query, args...); err != nil {
		return models.BucketMetadata{}, awerr.Storage(err, "update bucket")
	}
	return s.GetMetadata(ctx, bucketID)
}

func (s *Store) DeleteBucket(ctx context.Context, bucketID string) error {
	// ON DELETE CASCADE drops the bucket's events with the row.
	tag, err := s.conn.Exec(ctx, "DELETE FROM buckets WHERE id = $1", bucketID)
	if err != nil {
		return awerr.Storage(err, "delete bucket")
	}
	s.dir.Invalidate(bucketID)
	if tag.RowsAffected() != 1 {
		return awerr.NotFoundf("bucket %q did not exist, could not delete", bucketID)
	}
	return nil
}

func (s *Store) GetMetadata(ctx context.Context, bucketID string) (models.BucketMetadata, error) {
	row := s.conn.QueryRow(ctx, "SELECT "+bucketColumns+" FROM buckets WHERE id = $1", bucketID)
	meta, err := scanBucket(row)
	if err == pgx.ErrNoRows {
		return models.BucketMetadata{}, awerr.NotFoundf("bucket %q did not exist, could not get metadata", bucketID)
	}
	if err != nil {
		return models.BucketMetadata{}, awerr.Storage(err, "get bucket metadata")
	}
	return meta, nil
}
