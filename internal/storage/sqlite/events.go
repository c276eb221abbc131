package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

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
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO events (bucketrow, starttime, endtime, datastr) VALUES (?, ?, ?, ?)",
		rowRef, start, end, datastr)
	if err != nil {
		return models.Event{}, awerr.Storage(err, "insert event")
	}
	id, err := res.LastInsertId()
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
	// rows, the rest go out in one batched insert.
	var inserts []models.Event
	for _, ev := range events {
		if ev.ID == nil {
			inserts = append(inserts, ev)
			continue
		}
		if err := s.replaceRow(ctx, rowRef, *ev.ID, ev); err != nil {
			return err
		}
	}
	if len(inserts) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO events (bucketrow, starttime, endtime, datastr) VALUES ")
	args := make([]any, 0, len(inserts)*4)
	for i, ev := range inserts {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?)")
		start, end := ev.Interval()
		datastr, err := models.MarshalData(ev.Data)
		if err != nil {
			return awerr.Storage(err, "encode event payload")
		}
		args = append(args, rowRef, start, end, datastr)
	}
	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
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
	_, err = s.db.ExecContext(ctx,
		"UPDATE events SET bucketrow = ?, starttime = ?, endtime = ?, datastr = ? WHERE id = ?",
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
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ? AND bucketrow = ?", eventID, rowRef)
	if err != nil {
		return 0, awerr.Storage(err, "delete event")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, awerr.Storage(err, "delete event")
	}
	return int(n), nil
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
	var lastID int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM events WHERE bucketrow = ? ORDER BY endtime DESC LIMIT 1", rowRef).Scan(&lastID)
	if err == sql.ErrNoRows {
		return event, nil
	}
	if err != nil {
		return models.Event{}, awerr.Storage(err, "find most recent event")
	}
	if err := s.replaceRow(ctx, rowRef, lastID, event); err != nil {
		return models.Event{}, err
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
	err = s.db.QueryRowContext(ctx,
		"SELECT id, starttime, endtime, datastr FROM events WHERE bucketrow = ? AND id = ?",
		rowRef, eventID).Scan(&id, &start, &end, &datastr)
	if err == sql.ErrNoRows {
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

	query := "SELECT id, starttime, endtime, datastr FROM events WHERE bucketrow = ? AND endtime >= ? AND starttime <= ? ORDER BY endtime DESC"
	args := []any{rowRef, startUS, endUS}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM events WHERE bucketrow = ? AND endtime >= ? AND starttime <= ?",
		rowRef, startUS, endUS).Scan(&count)
	if err != nil {
		return 0, awerr.Storage(err, "count events")
	}
	return count, nil
}
