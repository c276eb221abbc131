package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveOpDuration("sqlite", "insert_one", 150*time.Millisecond)
	pr.IncOpResult("sqlite", "insert_one", ResultSuccess)
	pr.IncOpResult("sqlite", "get_metadata", ResultNotFound)
	pr.SetBucketCount("sqlite", 4)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestPrometheusRecorderNilReceiverSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveOpDuration("sqlite", "insert_one", time.Second)
	pr.IncOpResult("sqlite", "insert_one", ResultSuccess)
	pr.SetBucketCount("sqlite", 0)
}
