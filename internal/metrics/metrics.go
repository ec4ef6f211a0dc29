package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storagelimits"

const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultEmpty   = "empty"

	OutcomeAccepted = "accepted"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Metrics holds the exporter collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	derivations   *prometheus.CounterVec
	publications  *prometheus.CounterVec
	publishBytes  *prometheus.CounterVec
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastRunUnix   *prometheus.GaugeVec
	snapshotItems *prometheus.GaugeVec
}

// New registers the collectors, plus Go/process collectors, on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		derivations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "derivations_total",
				Help:      "Limit derivations by outcome and skip reason",
			},
			[]string{"outcome", "reason"},
		),
		publications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publications_total",
				Help:      "Published documents by format and result",
			},
			[]string{"format", "result"},
		),
		publishBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "published_bytes_total",
				Help:      "Bytes uploaded by format",
			},
			[]string{"format"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Export runs by trigger and result",
			},
			[]string{"trigger", "result"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Export run duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		lastRunUnix: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last run by result",
			},
			[]string{"result"},
		),
		snapshotItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "snapshot_items",
				Help:      "Records loaded by the last snapshot, by collection",
			},
			[]string{"collection"},
		),
	}

	m.registry.MustRegister(
		m.derivations,
		m.publications,
		m.publishBytes,
		m.runs,
		m.runDuration,
		m.lastRunUnix,
		m.snapshotItems,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry (tests)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveDerivation(outcome, reason string) {
	if m == nil {
		return
	}
	m.derivations.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) ObservePublication(format, result string, size int) {
	if m == nil {
		return
	}
	m.publications.WithLabelValues(format, result).Inc()
	if result == ResultSuccess {
		m.publishBytes.WithLabelValues(format).Add(float64(size))
	}
}

func (m *Metrics) ObserveRun(trigger, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(trigger, result).Inc()
	m.runDuration.Observe(took.Seconds())
	m.lastRunUnix.WithLabelValues(result).SetToCurrentTime()
}

func (m *Metrics) ObserveSnapshot(collection string, n int) {
	if m == nil {
		return
	}
	m.snapshotItems.WithLabelValues(collection).Set(float64(n))
}
