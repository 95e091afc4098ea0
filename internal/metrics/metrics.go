package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one running instance. Each instance
// owns its registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	EmailsProcessed  *prometheus.CounterVec
	AnalyzerDuration *prometheus.HistogramVec
	AnalyzerFallback prometheus.Counter
	HTTPDuration     *prometheus.HistogramVec
	PollRuns         *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		EmailsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_emails_processed_total",
				Help: "Emails run through the pipeline, by outcome and category.",
			},
			[]string{"outcome", "category"},
		),
		AnalyzerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_analyzer_duration_seconds",
				Help:    "Time spent analyzing a single email.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
			},
			[]string{"analyzer", "status"},
		),
		AnalyzerFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triage_analyzer_fallback_total",
			Help: "Analyses answered by the rule-based fallback.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "path", "status"},
		),
		PollRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_poll_runs_total",
				Help: "IMAP poll cycles, by result.",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.EmailsProcessed,
		m.AnalyzerDuration,
		m.AnalyzerFallback,
		m.HTTPDuration,
		m.PollRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordProcessed counts one pipeline outcome ("success", "duplicate", "error").
func (m *Metrics) RecordProcessed(outcome, category string) {
	m.EmailsProcessed.WithLabelValues(outcome, category).Inc()
}

// RecordAnalysis observes one analyzer call.
func (m *Metrics) RecordAnalysis(analyzer, status string, d time.Duration) {
	m.AnalyzerDuration.WithLabelValues(analyzer, status).Observe(d.Seconds())
}

// RecordHTTPRequest observes one HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	m.HTTPDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
