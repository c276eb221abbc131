package metrics

import (
	"time"

	"github.com/Algous-Studio/aw-core/internal/awerr"
)

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess         ResultLabel = "success"
	ResultNotFound        ResultLabel = "not_found"
	ResultInvalidArgument ResultLabel = "invalid_argument"
	ResultFailure         ResultLabel = "failure"
)

// ResultFor maps an operation error to its counter label.
func ResultFor(err error) ResultLabel {
	if err == nil {
		return ResultSuccess
	}
	switch awerr.GetCategory(err) {
	case awerr.CategoryNotFound:
		return ResultNotFound
	case awerr.CategoryInvalidArgument:
		return ResultInvalidArgument
	default:
		return ResultFailure
	}
}

// Recorder defines observability hooks for storage operations.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All
// methods must be safe for nil receivers when using the NoopRecorder
// (allowing optional injection).
type Recorder interface {
	ObserveOpDuration(backend, operation string, d time.Duration)
	IncOpResult(backend, operation string, result ResultLabel)
	SetBucketCount(backend string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveOpDuration(string, string, time.Duration) {}
func (NoopRecorder) IncOpResult(string, string, ResultLabel)        {}
func (NoopRecorder) SetBucketCount(string, int)                     {}
