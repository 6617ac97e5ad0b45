package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// aggregation service.
type Metrics struct {
	RequestsTotal   prometheus.Counter
	RequestDuration prometheus.Histogram

	// Per-source fan-out metrics.
	SourceFetches  *prometheus.CounterVec   // labels: source, outcome={success,partial,error,timeout}
	SourceDuration *prometheus.HistogramVec // labels: source
	SourcesEnabled prometheus.Gauge

	// Attribute table metrics.
	TableLoads *prometheus.CounterVec // labels: product, outcome={loaded,fallback,refreshed,refresh_failed}

	// Timeliness of the merged responses.
	TimelinessScore prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "envdata",
			Name:      "collect_requests_total",
			Help:      "Total aggregation requests received.",
		}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "envdata",
			Name:      "collect_duration_seconds",
			Help:      "Duration of a complete fan-out and merge cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "envdata",
			Name:      "source_fetches_total",
			Help:      "Source fetches by adapter and outcome.",
		}, []string{"source", "outcome"}),
		SourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "envdata",
			Name:      "source_fetch_duration_seconds",
			Help:      "Per-source fetch duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"source"}),
		SourcesEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "envdata",
			Name:      "sources_enabled",
			Help:      "Number of enabled source adapters.",
		}),
		TableLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "envdata",
			Name:      "attribute_table_loads_total",
			Help:      "Attribute table loads by product and outcome.",
		}, []string{"product", "outcome"}),
		TimelinessScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "envdata",
			Name:      "timeliness_score",
			Help:      "Timeliness score of merged responses.",
			Buckets:   []float64{0, 10, 25, 40, 55, 70, 85, 100},
		}),
	}

	prometheus.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.SourceFetches,
		m.SourceDuration,
		m.SourcesEnabled,
		m.TableLoads,
		m.TimelinessScore,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RequestsTotal:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "envdata", Name: "collect_requests_total"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "envdata", Name: "collect_duration_seconds"}),
		SourceFetches:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "envdata", Name: "source_fetches_total"}, []string{"source", "outcome"}),
		SourceDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "envdata", Name: "source_fetch_duration_seconds"}, []string{"source"}),
		SourcesEnabled:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "envdata", Name: "sources_enabled"}),
		TableLoads:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "envdata", Name: "attribute_table_loads_total"}, []string{"product", "outcome"}),
		TimelinessScore: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "envdata", Name: "timeliness_score"}),
	}
}
