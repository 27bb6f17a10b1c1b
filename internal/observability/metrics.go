package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// reconciliation pipeline.
type Metrics struct {
	RecordsProcessed *prometheus.CounterVec // labels: source
	RecordsInserted  *prometheus.CounterVec // labels: source
	RecordsSkipped   *prometheus.CounterVec // labels: source
	RecordsFailed    *prometheus.CounterVec // labels: source

	DimensionInserts  *prometheus.CounterVec   // labels: source, dimension
	SentinelFallbacks *prometheus.CounterVec   // labels: source, dimension
	ParseFallbacks    *prometheus.CounterVec   // labels: source, field
	RunDuration       *prometheus.HistogramVec // labels: source
	RunsActive        prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsProcessed,
		m.RecordsInserted,
		m.RecordsSkipped,
		m.RecordsFailed,
		m.DimensionInserts,
		m.SentinelFallbacks,
		m.ParseFallbacks,
		m.RunDuration,
		m.RunsActive,
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
		RecordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accident_etl",
			Name:      "records_processed_total",
			Help:      "Staged records read per source.",
		}, []string{"source"}),
		RecordsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accident_etl",
			Name:      "records_inserted_total",
			Help:      "Fact rows inserted per source.",
		}, []string{"source"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accident_etl",
			Name:      "records_skipped_total",
			Help:      "Records skipped because their fact natural key already existed.",
		}, []string{"source"}),
		RecordsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accident_etl",
			Name:      "records_failed_total",
			Help:      "Records dropped because the payload was not the expected shape.",
		}, []string{"source"}),
		DimensionInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accident_etl",
			Name:      "dimension_inserts_total",
			Help:      "New dimension rows created per source and dimension.",
		}, []string{"source", "dimension"}),
		SentinelFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accident_etl",
			Name:      "sentinel_fallbacks_total",
			Help:      "Fact foreign keys substituted with the UNKNOWN sentinel.",
		}, []string{"source", "dimension"}),
		ParseFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accident_etl",
			Name:      "parse_fallbacks_total",
			Help:      "Field values that defaulted during normalization.",
		}, []string{"source", "field"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "accident_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete per-source reconciliation run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"source"}),
		RunsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "accident_etl",
			Name:      "runs_active",
			Help:      "Number of per-source runs currently executing.",
		}),
	}
}
