package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Algous-Studio/aw-core/internal/models"
)

func eventSpan(startUS, endUS int64) models.Event {
	return models.Event{
		Timestamp: time.UnixMicro(startUS).UTC(),
		Duration:  time.Duration(endUS-startUS) * time.Microsecond,
	}
}

func interval(ev models.Event) [2]int64 {
	s, e := ev.Interval()
	return [2]int64{s, e}
}

func TestQueryBoundsDefaults(t *testing.T) {
	startUS, endUS := QueryBounds(nil, nil)
	assert.Equal(t, int64(0), startUS)
	assert.Equal(t, models.MaxTimestamp, endUS)

	at := time.UnixMicro(500).UTC()
	startUS, endUS = QueryBounds(&at, nil)
	assert.Equal(t, int64(500), startUS)
	assert.Equal(t, models.MaxTimestamp, endUS)
}

func TestClipEvents(t *testing.T) {
	t1 := time.UnixMicro(2000).UTC()
	t2 := time.UnixMicro(3000).UTC()

	tests := []struct {
		name  string
		event models.Event
		start *time.Time
		end   *time.Time
		want  [2]int64
	}{
		{"both bounds clip", eventSpan(1000, 4000), &t1, &t2, [2]int64{2000, 3000}},
		{"start only", eventSpan(1000, 2500), &t1, nil, [2]int64{2000, 2500}},
		{"end only", eventSpan(2500, 4000), nil, &t2, [2]int64{2500, 3000}},
		{"inside window untouched", eventSpan(2100, 2900), &t1, &t2, [2]int64{2100, 2900}},
		{"no bounds means no clipping", eventSpan(1000, 4000), nil, nil, [2]int64{1000, 4000}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClipEvents([]models.Event{tc.event}, tc.start, tc.end)
			assert.Equal(t, tc.want, interval(got[0]))
		})
	}
}

func TestClipPreservesEndWhenStartMoves(t *testing.T) {
	t1 := time.UnixMicro(2000).UTC()
	got := ClipEvents([]models.Event{eventSpan(1000, 5000)}, &t1, nil)

	s, e := got[0].Interval()
	assert.Equal(t, int64(2000), s)
	assert.Equal(t, int64(5000), e, "duration shrinks, end is preserved")
	assert.Equal(t, 3000*time.Microsecond, got[0].Duration)
}
