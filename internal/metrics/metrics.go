package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newscheck"

// Metrics holds the service collectors on a private registry so tests and
// multiple servers never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	classifications *prometheus.CounterVec
	analyses        *prometheus.CounterVec
	fetchErrors     prometheus.Counter
	analyzeDuration *prometheus.HistogramVec
	modelState      prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifications by label and decision source.",
		}, []string{"label", "source"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analysis requests by input kind and outcome.",
		}, []string{"kind", "outcome"}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Article downloads that failed.",
		}),
		analyzeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyze_duration_seconds",
			Help:      "End-to-end analysis latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		modelState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_state",
			Help:      "Scorer state: 0 loading, 1 ready, 2 degraded.",
		}),
	}

	m.registry.MustRegister(
		m.classifications,
		m.analyses,
		m.fetchErrors,
		m.analyzeDuration,
		m.modelState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveClassification counts one verdict.
func (m *Metrics) ObserveClassification(label, source string) {
	m.classifications.WithLabelValues(label, source).Inc()
}

// ObserveAnalysis records the outcome and latency of one analysis.
func (m *Metrics) ObserveAnalysis(kind, outcome string, elapsed time.Duration) {
	m.analyses.WithLabelValues(kind, outcome).Inc()
	m.analyzeDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// IncFetchErrors counts one failed download.
func (m *Metrics) IncFetchErrors() {
	m.fetchErrors.Inc()
}

// SetModelState publishes the scorer state.
func (m *Metrics) SetModelState(state int) {
	m.modelState.Set(float64(state))
}
