package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LatencyMetrics exposes report and upstream latencies on the Prometheus scrape endpoint.
type LatencyMetrics struct {
	reportDuration   *prometheus.HistogramVec
	upstreamDuration *prometheus.HistogramVec
}

var (
	latencyOnce    sync.Once
	latencyMetrics *LatencyMetrics
)

// Latency returns the process-wide latency metrics registered on the default registerer.
func Latency() *LatencyMetrics {
	latencyOnce.Do(func() {
		latencyMetrics = NewLatencyMetrics(prometheus.DefaultRegisterer)
	})
	return latencyMetrics
}

func NewLatencyMetrics(reg prometheus.Registerer) *LatencyMetrics {
	m := &LatencyMetrics{
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roi_report_duration_seconds",
			Help:    "End-to-end ROI report computation latency by outcome.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roi_upstream_request_duration_seconds",
			Help:    "Invoicing platform request latency by endpoint and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "status_code"}),
	}
	if reg != nil {
		reg.MustRegister(m.reportDuration, m.upstreamDuration)
	}
	return m
}

func (m *LatencyMetrics) ObserveReport(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *LatencyMetrics) ObserveUpstream(endpoint, statusCode string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(endpoint, statusCode).Observe(d.Seconds())
}
