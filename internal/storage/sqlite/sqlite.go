// Package sqlite provides the embedded-file Storage backend on top of
// modernc.org/sqlite. Use ":memory:" for an in-memory database, or a file
// path for persistent storage.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/Algous-Studio/aw-core/internal/awerr"
	"github.com/Algous-Studio/aw-core/internal/observability"
	"github.com/Algous-Studio/aw-core/internal/storage"
)

// Statements are safe to re-run on an existing schema. The key column
// aliases SQLite's rowid and serves as the join reference for events; the
// descending index serves the default most-recent-first read order.
const schema = `
CREATE TABLE IF NOT EXISTS buckets (
	key      INTEGER PRIMARY KEY AUTOINCREMENT,
	id       TEXT UNIQUE NOT NULL,
	name     TEXT,
	type     TEXT NOT NULL,
	client   TEXT NOT NULL,
	hostname TEXT NOT NULL,
	created  TEXT NOT NULL,
	datastr  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	bucketrow INTEGER NOT NULL REFERENCES buckets(key) ON DELETE CASCADE,
	starttime INTEGER NOT NULL,
	endtime   INTEGER NOT NULL,
	datastr   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS event_index_starttime ON events(bucketrow, starttime);
CREATE INDEX IF NOT EXISTS event_index_endtime ON events(bucketrow, endtime);
CREATE INDEX IF NOT EXISTS event_index_endtime_desc ON events(bucketrow, endtime DESC);
`

// Store implements storage.Storage using a single SQLite connection.
type Store struct {
	db  *sql.DB
	dir *storage.BucketDirectory
}

var _ storage.Storage = (*Store)(nil)

// New opens the database, ensures the schema exists, and warms the bucket
// directory. The pool is capped at one connection: the design is one
// store, one connection, no concurrent in-flight query from this instance.
func New(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dsnFor(dbPath))
	if err != nil {
		return nil, awerr.Storage(err, "open sqlite database")
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	s.dir = storage.NewBucketDirectory(s.lookupRowRef, s.loadRowRefs)

	if err := s.initialize(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.dir.Rebuild(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	observability.DebugContext(observability.WithBackend(ctx, "sqlite"),
		"storage initialized", slog.String("path", dbPath))
	return s, nil
}

func dsnFor(dbPath string) string {
	if dbPath == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
}

func (s *Store) initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return awerr.Storage(err, "initialize schema")
	}
	return nil
}

func (s *Store) lookupRowRef(ctx context.Context, bucketID string) (int64, bool, error) {
	var rowRef int64
	err := s.db.QueryRowContext(ctx, "SELECT key FROM buckets WHERE id = ?", bucketID).Scan(&rowRef)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rowRef, true, nil
}

func (s *Store) loadRowRefs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, key FROM buckets")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mapping := make(map[string]int64)
	for rows.Next() {
		var id string
		var rowRef int64
		if err := rows.Scan(&id, &rowRef); err != nil {
			return nil, err
		}
		mapping[id] = rowRef
	}
	return mapping, rows.Err()
}

// Flush forces a best-effort WAL checkpoint. Advisory only: failures are
// swallowed.
func (s *Store) Flush(ctx context.Context) {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
		observability.DebugContext(ctx, "flush checkpoint skipped", slog.Any("error", err))
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
