package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once        sync.Once
	opDuration  *prom.HistogramVec
	opResults   *prom.CounterVec
	bucketCount *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.opDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "awstore",
			Name:      "op_duration_seconds",
			Help:      "Duration of storage operations",
			Buckets:   prom.DefBuckets,
		}, []string{"backend", "operation"})
		pr.opResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "awstore",
			Name:      "op_results_total",
			Help:      "Storage operation counts by outcome",
		}, []string{"backend", "operation", "result"})
		pr.bucketCount = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "awstore",
			Name:      "buckets",
			Help:      "Bucket count observed by the last full listing",
		}, []string{"backend"})
		reg.MustRegister(pr.opDuration, pr.opResults, pr.bucketCount)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveOpDuration(backend, operation string, d time.Duration) {
	if p == nil || p.opDuration == nil {
		return
	}
	p.opDuration.WithLabelValues(backend, operation).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncOpResult(backend, operation string, result ResultLabel) {
	if p == nil || p.opResults == nil {
		return
	}
	p.opResults.WithLabelValues(backend, operation, string(result)).Inc()
}

func (p *PrometheusRecorder) SetBucketCount(backend string, n int) {
	if p == nil || p.bucketCount == nil {
		return
	}
	p.bucketCount.WithLabelValues(backend).Set(float64(n))
}
