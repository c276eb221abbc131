package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Algous-Studio/aw-core/internal/awerr"
	"github.com/Algous-Studio/aw-core/internal/models"
	"github.com/Algous-Studio/aw-core/internal/storage"
)

func (s *Store) InsertOne(ctx context.Context, bucketID string, event models.Event) (models.Event, error) {
	rowRef, err := s.dir.Resolve(ctx, bucketID)
	if err != nil {
		return models.Event{}, err
	}
	start, end := event.Interval()
	datastr, err := models.MarshalData(event.Data)
	if err != nil {
		return models.Event{}, awerr.Storage(err, "encode event payload")
	}
	var id int64
	err = s.conn.QueryRow(ctx,
		"INSERT INTO events (bucketrow, starttime, endtime, datastr) VALUES ($1, $2, $3, $4) RETURNING id",
		rowRef, start, end, datastr).Scan(&id)
	if err != nil {
		return models.Event{}, awerr.Storage(err, "insert event")
	}
	return event.WithID(id), nil
}

func (s *Store) InsertMany(ctx context.Context, bucketID string, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	rowRef, err := s.dir.Resolve(ctx, bucketID)
	if err != nil {
		return err
	}

	// Two passes by identifier presence: identified events replace their
	// rows, the rest go out in one COPY.
	var inserts [][]any
	for _, ev := range events {
		if ev.ID != nil {
			if err := s.replaceRow(ctx, rowRef, *ev.ID, ev); err != nil {
				return err
			}
			continue
		}
		start, end := ev.Interval()
		datastr, err := models.MarshalData(ev.Data)
		if err != nil {
			return awerr.Storage(err, "encode event payload")
		}
		inserts = append(inserts, []any{rowRef, start, end, datastr})
	}
	if len(inserts) == 0 {
		return nil
	}
	_, err = s.conn.CopyFrom(ctx,
		pgx.Identifier{"events"},
		[]string{"bucketrow", "starttime", "endtime", "datastr"},
		pgx.CopyFromRows(inserts))
	if err != nil {
		return awerr.Storage(err, "insert events")
	}
	return nil
}

func (s *Store) replaceRow(ctx context.Context, rowRef, eventID int64, event models.Event) error {
	start, end := event.Interval()
	datastr, err := models.MarshalData(event.Data)
	if err != nil {
		return awerr.Storage(err, "encode event payload")
	}
	_, err = s.conn.Exec(ctx,
		"UPDATE events SET bucketrow = $1, starttime = $2, endtime = $3, datastr = $4 WHERE id = $5",
		rowRef, start, end, datastr, eventID)
	if err != nil {
		return awerr.Storage(err, "replace event")
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, bucketID string, eventID int64) (int, error) {
	rowRef, err := s.dir.Resolve(ctx, bucketID)
	if err != nil {
		return 0, err
	}
	tag, err := s.conn.Exec(ctx, "DELETE FROM events WHERE id = $1 AND bucketrow = $2", eventID, rowRef)
	if err != nil {
		return 0, awerr.Storage(err, "delete event")
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) Replace(ctx context.Context, bucketID string, eventID int64, event models.Event) (models.Event, error) {
	rowRef, err := s.dir.Resolve(ctx, bucketID)
	if err != nil {
		return models.Event{}, err
	}
	if err := s.replaceRow(ctx, rowRef, eventID, event); err != nil {
		return models.Event{}, err
	}
	return event.WithID(eventID), nil
}

func (s *Store) ReplaceLast(ctx context.Context, bucketID string, event models.Event) (models.Event, error) {
	rowRef, err := s.dir.Resolve(ctx, bucketID)
	if err != nil {
		return models.Event{}, err
	}
	start, end := event.Interval()
	datastr, err := models.MarshalData(event.Data)
	if err != nil {
		return models.Event{}, awerr.Storage(err, "encode event payload")
	}
	var lastID int64
	err = s.conn.QueryRow(ctx,
		`UPDATE events SET starttime = $1, endtime = $2, datastr = $3
		 WHERE id = (SELECT id FROM events WHERE bucketrow = $4 ORDER BY endtime DESC LIMIT 1)
		 RETURNING id`,
		start, end, datastr, rowRef).Scan(&lastID)
	if err == pgx.ErrNoRows {
		// Empty bucket: nothing changes and the identifier stays unset.
		return event, nil
	}
	if err != nil {
		return models.Event{}, awerr.Storage(err, "replace most recent event")
	}
	return event.WithID(lastID), nil
}

func (s *Store) GetEvent(ctx context.Context, bucketID string, eventID int64) (*models.Event, error) {
	rowRef, err := s.dir.Resolve(ctx, bucketID)
	if err != nil {
		return nil, err
	}
	var id, start, end int64
	var datastr []byte
	err = s.conn.QueryRow(ctx,
		"SELECT id, starttime, endtime, datastr FROM events WHERE bucketrow = $1 AND id = $2",
		rowRef, eventID).Scan(&id, &start, &end, &datastr)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, awerr.Storage(err, "get event")
	}
	data, err := models.UnmarshalEventData(datastr)
	if err != nil {
		return nil, awerr.Storage(err, "decode event payload")
	}
	ev := models.EventFromInterval(id, start, end, data)
	return &ev, nil
}

func (s *Store) GetEvents(ctx context.Context, bucketID string, limit int, start, end *time.Time) ([]models.Event, error) {
	rowRef, err := s.dir.Resolve(ctx, bucketID)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return []models.Event{}, nil
	}
	startUS, endUS := storage.QueryBounds(start, end)

	query := "SELECT id, starttime, endtime, datastr FROM events WHERE bucketrow = $1 AND endtime >= $2 AND starttime <= $3 ORDER BY endtime DESC"
	args := []any{rowRef, startUS, endUS}
	if limit > 0 {
		query += " LIMIT $4"
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, awerr.Storage(err, "query events")
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var id, s0, e0 int64
		var datastr []byte
		if err := rows.Scan(&id, &s0, &e0, &datastr); err != nil {
			return nil, awerr.Storage(err, "scan event row")
		}
		data, err := models.UnmarshalEventData(datastr)
		if err != nil {
			return nil, awerr.Storage(err, "decode event payload")
		}
		events = append(events, models.EventFromInterval(id, s0, e0, data))
	}
	if err := rows.Err(); err != nil {
		return nil, awerr.Storage(err, "iterate event rows")
	}
	return storage.ClipEvents(events, start, end), nil
}

func (s *Store) GetEventCount(ctx context.Context, bucketID string, start, end *time.Time) (int, error) {
	rowRef, err := s.dir.Resolve(ctx, bucketID)
	if err != nil {
		return 0, err
	}
	startUS, endUS := storage.QueryBounds(start, end)
	var count int
	err = s.conn.QueryRow(ctx,
		"SELECT COUNT(1) FROM events WHERE bucketrow = $1 AND endtime >= $2 AND starttime <= $3",
		rowRef, startUS, endUS).Scan(&count)
	if err != nil {
		return 0, awerr.Storage(err, "count events")
	}
	return count, nil
}
