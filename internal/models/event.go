// Package models defines the value types shared by all storage backends:
// events, bucket metadata, and the microsecond time representation used
// on the wire and in storage.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MaxTimestamp is the open upper bound for range queries, in microseconds
// since the Unix epoch.
const MaxTimestamp int64 = math.MaxInt64

// Event is a single time-stamped occurrence owned by a bucket.
// ID is nil until storage assigns one on insert.
type Event struct {
	ID        *int64         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration"`
	Data      map[string]any `json:"data"`
}

// Interval returns the event's stored form: start and end in integer
// microseconds. End is derived as start plus duration; timestamps of
// higher precision truncate to microsecond granularity.
func (e Event) Interval() (start, end int64) {
	start = e.Timestamp.UnixMicro()
	end = start + e.Duration.Microseconds()
	return start, end
}

// WithID returns a copy of the event carrying the given storage identifier.
func (e Event) WithID(id int64) Event {
	e.ID = &id
	return e
}

// EventFromInterval reconstructs an event from its stored columns.
// Timestamps come back UTC-normalized at microsecond resolution.
func EventFromInterval(id, start, end int64, data map[string]any) Event {
	return Event{
		ID:        &id,
		Timestamp: time.UnixMicro(start).UTC(),
		Duration:  time.Duration(end-start) * time.Microsecond,
		Data:      data,
	}
}

// MarshalData serializes a payload map to its stored JSON text form.
// A nil map serializes to an empty object so the column stays NOT NULL.
func MarshalData(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(raw), nil
}

// UnmarshalEventData parses a stored event payload. Events are written by
// this layer only, so a malformed payload is a real storage error.
func UnmarshalEventData(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return data, nil
}
