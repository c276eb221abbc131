package storage

import (
	"time"

	"github.com/Algous-Studio/aw-core/internal/models"
)

// QueryBounds converts optional time bounds to their stored microsecond
// form, defaulting to [0, MaxTimestamp] when a bound is absent.
func QueryBounds(start, end *time.Time) (startUS, endUS int64) {
	startUS = 0
	endUS = models.MaxTimestamp
	if start != nil {
		startUS = start.UnixMicro()
	}
	if end != nil {
		endUS = end.UnixMicro()
	}
	return startUS, endUS
}

// ClipEvents truncates each event's reported interval to the query window.
// An event starting before the window start is moved forward to it,
// shrinking the duration while preserving the end; an event ending past
// the window end is shortened to end at it. The stored rows are untouched.
//
// Clipping applies per explicitly supplied bound; with neither bound set
// the slice is returned as-is, full and unclipped.
func ClipEvents(events []models.Event, start, end *time.Time) []models.Event {
	if start == nil && end == nil {
		return events
	}
	startUS, endUS := QueryBounds(start, end)
	for i, ev := range events {
		s, e := ev.Interval()
		if start != nil && s < startUS {
			s = startUS
		}
		if end != nil && e > endUS {
			e = endUS
		}
		events[i].Timestamp = time.UnixMicro(s).UTC()
		events[i].Duration = time.Duration(e-s) * time.Microsecond
	}
	return events
}
