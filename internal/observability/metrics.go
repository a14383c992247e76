package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nitrogen_dashboard"

// Metrics holds the Prometheus counters and histograms for dashboard builds.
type Metrics struct {
	// Build metrics.
	Builds        *prometheus.CounterVec   // labels: scenario, outcome={success,error}
	BuildDuration *prometheus.HistogramVec // labels: scenario
	RecordsLoaded *prometheus.CounterVec   // labels: table

	// Cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss}
	CacheEnabled prometheus.Gauge

	// Publishing metrics.
	PublishErrors prometheus.Counter
	Published     prometheus.Counter

	// Scheduled warm-up.
	WarmRuns *prometheus.CounterVec // labels: outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Dashboard builds by scenario and outcome.",
		}, []string{"scenario", "outcome"}),
		BuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete load, derive and assemble cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"scenario"}),
		RecordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Source table records loaded, by table.",
		}, []string{"table"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Dashboard cache lookups by result.",
		}, []string{"result"}),
		CacheEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_enabled",
			Help:      "1 when the dashboard cache is enabled, 0 otherwise.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Dashboards that could not be written to Kafka.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "Dashboards written to Kafka.",
		}),
		WarmRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warm_runs_total",
			Help:      "Cache warm-up runs by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Builds,
		m.BuildDuration,
		m.RecordsLoaded,
		m.CacheLookups,
		m.CacheEnabled,
		m.PublishErrors,
		m.Published,
		m.WarmRuns,
	}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates and registers all dashboard metrics with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}
