// Package postgres provides the DSN-configured Storage backend on top of
// a PostgreSQL server via pgx.
package postgres

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/Algous-Studio/aw-core/internal/awerr"
	"github.com/Algous-Studio/aw-core/internal/observability"
	"github.com/Algous-Studio/aw-core/internal/storage"
)

// EnvDSN is the environment variable consulted when no DSN is passed
// explicitly.
const EnvDSN = "POSTGRES_DSN"

// Statements are safe to re-run on an existing schema. rowid is the
// internal join reference for events; the descending index serves the
// default most-recent-first read order.
const schema = `
CREATE TABLE IF NOT EXISTS buckets (
	rowid    BIGSERIAL PRIMARY KEY,
	id       TEXT UNIQUE NOT NULL,
	name     TEXT,
	type     TEXT NOT NULL,
	client   TEXT NOT NULL,
	hostname TEXT NOT NULL,
	created  TEXT NOT NULL,
	datastr  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	id        BIGSERIAL PRIMARY KEY,
	bucketrow BIGINT NOT NULL REFERENCES buckets(rowid) ON DELETE CASCADE,
	starttime BIGINT NOT NULL,
	endtime   BIGINT NOT NULL,
	datastr   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS event_index_starttime ON events(bucketrow, starttime);
CREATE INDEX IF NOT EXISTS event_index_endtime ON events(bucketrow, endtime);
CREATE INDEX IF NOT EXISTS event_index_endtime_desc ON events(bucketrow, endtime DESC);
`

// Store implements storage.Storage over a single pgx connection. One store,
// one connection: concurrent access goes through separate instances, each
// with its own connection, relying on the server's transactional
// guarantees.
type Store struct {
	conn *pgx.Conn
	dir  *storage.BucketDirectory
}

var _ storage.Storage = (*Store)(nil)

// New connects, ensures the schema exists, and warms the bucket directory.
// An empty dsn falls back to the POSTGRES_DSN environment variable;
// absence of both is a fatal configuration error.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = os.Getenv(EnvDSN)
	}
	if dsn == "" {
		return nil, awerr.Config("postgres DSN must be provided explicitly or via " + EnvDSN)
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, awerr.Storage(err, "connect postgres")
	}

	s := &Store{conn: conn}
	s.dir = storage.NewBucketDirectory(s.lookupRowRef, s.loadRowRefs)

	if err := s.initialize(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	if err := s.dir.Rebuild(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	observability.DebugContext(observability.WithBackend(ctx, "postgres"),
		"storage initialized", slog.String("database", conn.Config().Database))
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, schema); err != nil {
		return awerr.Storage(err, "initialize schema")
	}
	return nil
}

func (s *Store) lookupRowRef(ctx context.Context, bucketID string) (int64, bool, error) {
	var rowRef int64
	err := s.conn.QueryRow(ctx, "SELECT rowid FROM buckets WHERE id = $1", bucketID).Scan(&rowRef)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rowRef, true, nil
}

func (s *Store) loadRowRefs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.conn.Query(ctx, "SELECT id, rowid FROM buckets")
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

// Flush is advisory. The connection runs in auto-commit mode, so there is
// no open transaction to synchronize; a failed ping is swallowed.
func (s *Store) Flush(ctx context.Context) {
	if err := s.conn.Ping(ctx); err != nil {
		observability.DebugContext(ctx, "flush ping skipped", slog.Any("error", err))
	}
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close(context.Background())
}
