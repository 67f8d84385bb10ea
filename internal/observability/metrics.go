package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "risk_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dashboard session and the risk API.
type Metrics struct {
	// Dashboard session metrics.
	ViewportEvents     *prometheus.CounterVec // labels: kind={move,move_end}
	RiskLookups        *prometheus.CounterVec // labels: outcome={success,network,protocol,malformed,no_coverage,unknown,superseded}
	RiskLookupDuration prometheus.Histogram
	RiskClientRetries  prometheus.Counter
	DashboardVisible   prometheus.Gauge

	// Place search metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Risk API metrics.
	APIRequests      *prometheus.CounterVec // labels: code
	UpstreamRequests *prometheus.CounterVec // labels: outcome
	UpstreamDuration prometheus.Histogram
	RiskCache        *prometheus.CounterVec // labels: result={hit,miss}
	LookupsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ViewportEvents,
		m.RiskLookups,
		m.RiskLookupDuration,
		m.RiskClientRetries,
		m.DashboardVisible,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.APIRequests,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.RiskCache,
		m.LookupsPublished,
		m.PublishErrors,
	)

	return m
}

// NewUnregisteredMetrics creates Metrics that are never exported. Short-lived
// commands such as riskctl use it where nothing scrapes the process.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ViewportEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewport_events_total",
			Help:      "Viewport change events received from the map view, by kind.",
		}, []string{"kind"}),
		RiskLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_lookups_total",
			Help:      "Completed risk lookups by outcome.",
		}, []string{"outcome"}),
		RiskLookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_lookup_duration_seconds",
			Help:      "Duration of a risk lookup against the risk API, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		RiskClientRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_client_retries_total",
			Help:      "Risk API requests retried after a network or server failure.",
		}),
		DashboardVisible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dashboard_visible",
			Help:      "1 when the risk summary overlay is shown, 0 when hidden.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Mapbox place searches by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Place search cache lookups by result.",
		}, []string{"result"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Risk API requests by HTTP status code.",
		}, []string{"code"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "LightBox risk-index requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "LightBox risk-index request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RiskCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_cache_total",
			Help:      "Risk profile cache lookups by result.",
		}, []string{"result"}),
		LookupsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_published_total",
			Help:      "Risk lookups published to the event topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Risk lookups that failed to publish.",
		}),
	}
}
