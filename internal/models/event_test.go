package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalTruncatesToMicroseconds(t *testing.T) {
	ev := Event{
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC),
		Duration:  1500*time.Millisecond + 999*time.Nanosecond,
	}

	start, end := ev.Interval()
	assert.Equal(t, int64(123456), start%1_000_000)
	assert.Equal(t, start+1_500_000, end)
}

func TestEventFromIntervalRoundTrip(t *testing.T) {
	ev := EventFromInterval(42, 1000, 4000, map[string]any{"k": "v"})

	require.NotNil(t, ev.ID)
	assert.Equal(t, int64(42), *ev.ID)
	assert.Equal(t, int64(1000), ev.Timestamp.UnixMicro())
	assert.Equal(t, 3000*time.Microsecond, ev.Duration)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())

	start, end := ev.Interval()
	assert.Equal(t, int64(1000), start)
	assert.Equal(t, int64(4000), end)
}

func TestMarshalDataNilIsEmptyObject(t *testing.T) {
	raw, err := MarshalData(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", raw)
}

func TestUnmarshalEventData(t *testing.T) {
	data, err := UnmarshalEventData([]byte(`{"app":"editor"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"app": "editor"}, data)

	data, err = UnmarshalEventData(nil)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = UnmarshalEventData([]byte("not-json"))
	assert.Error(t, err)
}

func TestDecodeBucketDataLenient(t *testing.T) {
	assert.Equal(t, map[string]any{}, DecodeBucketData(nil))
	assert.Equal(t, map[string]any{}, DecodeBucketData([]byte("")))
	assert.Equal(t, map[string]any{}, DecodeBucketData([]byte("garbage")))
	assert.Equal(t, map[string]any{}, DecodeBucketData([]byte("null")))
	assert.Equal(t, map[string]any{"k": "v"}, DecodeBucketData([]byte(`{"k":"v"}`)))
}
