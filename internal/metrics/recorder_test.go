package metrics

import (
	"errors"
	"testing"

	"github.com/Algous-Studio/aw-core/internal/awerr"
)

func TestResultFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ResultLabel
	}{
		{"nil is success", nil, ResultSuccess},
		{"not found", awerr.NotFound("bucket missing"), ResultNotFound},
		{"invalid argument", awerr.InvalidArgument("no fields"), ResultInvalidArgument},
		{"storage error", awerr.Storage(errors.New("reset"), "query"), ResultFailure},
		{"plain error", errors.New("boom"), ResultFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResultFor(tc.err); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNoopRecorderIsSafe(t *testing.T) {
	var rec Recorder = NoopRecorder{}
	rec.ObserveOpDuration("memory", "insert_one", 0)
	rec.IncOpResult("memory", "insert_one", ResultSuccess)
	rec.SetBucketCount("memory", 3)
}
