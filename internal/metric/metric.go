// Package metric holds the Prometheus collectors of the service.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusCached  = "cached"
)

var (
	compileCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nanosearch",
			Name:      "compile_count_total",
			Help:      "expressions compiled, by outcome",
		},
		[]string{"status"},
	)

	compileSecondHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nanosearch",
			Name:      "compile_seconds",
			Help:      "expression compile seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
	)

	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nanosearch",
			Name:      "request_count_total",
			Help:      "http requests handled",
		},
		[]string{"path", "code"},
	)

	documentsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nanosearch",
			Name:      "documents",
			Help:      "documents held in memory",
		},
	)

	// Registry is what /metrics serves.
	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(
		compileCount,
		compileSecondHistogram,
		requestCount,
		documentsGauge,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// CompileInc counts one compile with the given status.
func CompileInc(status string) {
	compileCount.WithLabelValues(status).Inc()
}

// CompileObserve records how long a compile took.
func CompileObserve(d time.Duration) {
	compileSecondHistogram.Observe(d.Seconds())
}

func RequestInc(path, code string) {
	requestCount.WithLabelValues(path, code).Inc()
}

func DocumentsSet(n int) {
	documentsGauge.Set(float64(n))
}
