// Package metrics holds per-endpoint analysis instrumentation.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalyticsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zenith",
			Subsystem: "analysis",
			Name:      "latency_seconds",
			Help:      "Latency of analysis endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AnalyticsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zenith",
			Subsystem: "analysis",
			Name:      "errors_total",
			Help:      "Errors by analysis endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalyticsLatency, AnalyticsErrors)
	})
}

// Track starts a latency observation for endpoint. The returned func records
// it and counts err when non-nil.
func Track(endpoint string) func(err error) {
	start := time.Now()
	return func(err error) {
		AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			AnalyticsErrors.WithLabelValues(endpoint).Inc()
		}
	}
}
