package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a load run.
type Metrics struct {
	StationsProcessed *prometheus.CounterVec // labels: provider, outcome={stored,no_data,invalid_station,upstream_error}
	RowsWritten       prometheus.Counter
	ValuesRejected    *prometheus.CounterVec // labels: reason={stalled,jump,outlier}
	FetchWindows      *prometheus.CounterVec // labels: provider
	FetchDuration     *prometheus.HistogramVec
	RunActive         prometheus.Gauge
}

// NewMetrics creates and registers all loader metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.StationsProcessed,
		m.RowsWritten,
		m.ValuesRejected,
		m.FetchWindows,
		m.FetchDuration,
		m.RunActive,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glslr_levels",
			Name:      "stations_processed_total",
			Help:      "Stations processed per run by provider and outcome.",
		}, []string{"provider", "outcome"}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glslr_levels",
			Name:      "rows_written_total",
			Help:      "Water-level rows appended to the store.",
		}),
		ValuesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glslr_levels",
			Name:      "values_rejected_total",
			Help:      "Observations nulled by the quality filter, by rule.",
		}, []string{"reason"}),
		FetchWindows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glslr_levels",
			Name:      "fetch_windows_total",
			Help:      "Date-range windows requested from upstream services.",
		}, []string{"provider"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "glslr_levels",
			Name:      "station_fetch_duration_seconds",
			Help:      "Duration of one station's complete windowed fetch.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider"}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "glslr_levels",
			Name:      "run_active",
			Help:      "1 while a load run is in progress, 0 otherwise.",
		}),
	}
}
