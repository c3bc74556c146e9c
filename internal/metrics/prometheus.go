// Package metrics provides Prometheus metrics for the loan ledger service.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/loanledger/internal/ingest"
)

const namespace = "loanledger"

// Metrics holds all service metrics. A disabled Metrics accepts every call
// and records nothing.
type Metrics struct {
	// Counters
	Ingestions    *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
	Edits         *prometheus.CounterVec
	FilterChanges prometheus.Counter
	Exports       prometheus.Counter

	// Gauges
	LedgerRecords prometheus.Gauge
	ViewRecords   prometheus.Gauge

	// Histograms
	IngestDuration prometheus.Histogram

	registry *prometheus.Registry
	enabled  bool
}

// New creates a metrics instance with its own registry.
func New(enabled bool) *Metrics {
	m := &Metrics{
		enabled:  enabled,
		registry: prometheus.NewRegistry(),
	}

	if !enabled {
		return m
	}

	m.Ingestions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Document ingestions by outcome",
		},
		[]string{"outcome"}, // "success", "parse_failure", "header_not_found", "missing_columns", "error"
	)

	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_cache_lookups_total",
			Help:      "Ingestion cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	m.Edits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Cell edits by outcome",
		},
		[]string{"outcome"}, // "applied", "rejected"
	)

	m.FilterChanges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_changes_total",
			Help:      "Filter replacements",
		},
	)

	m.Exports = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Spreadsheet exports written",
		},
	)

	m.LedgerRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_records",
			Help:      "Records in the active ledger",
		},
	)

	m.ViewRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "view_records",
			Help:      "Records visible under the active filter",
		},
	)

	m.IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Time to load a document, including cache hits",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
	)

	m.registry.MustRegister(
		m.Ingestions,
		m.CacheLookups,
		m.Edits,
		m.FilterChanges,
		m.Exports,
		m.LedgerRecords,
		m.ViewRecords,
		m.IngestDuration,
	)

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Handler returns an HTTP handler for metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IsEnabled returns true if metrics are enabled.
func (m *Metrics) IsEnabled() bool {
	return m != nil && m.enabled
}

// ObserveIngest records a document load.
func (m *Metrics) ObserveIngest(d time.Duration, cacheHit bool, records int, err error) {
	if !m.IsEnabled() {
		return
	}
	m.IngestDuration.Observe(d.Seconds())
	m.Ingestions.WithLabelValues(ingestOutcome(err)).Inc()
	if err != nil {
		return
	}
	if cacheHit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
	m.LedgerRecords.Set(float64(records))
}

// ObserveEdit records a commit attempt.
func (m *Metrics) ObserveEdit(err error) {
	if !m.IsEnabled() {
		return
	}
	outcome := "applied"
	if err != nil {
		outcome = "rejected"
	}
	m.Edits.WithLabelValues(outcome).Inc()
}

// ObserveFilter records a filter replacement.
func (m *Metrics) ObserveFilter() {
	if m.IsEnabled() {
		m.FilterChanges.Inc()
	}
}

// ObserveView records the size of the visible view.
func (m *Metrics) ObserveView(records int) {
	if m.IsEnabled() {
		m.ViewRecords.Set(float64(records))
	}
}

// ObserveExport records a written export.
func (m *Metrics) ObserveExport() {
	if m.IsEnabled() {
		m.Exports.Inc()
	}
}

func ingestOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ingest.ErrHeaderNotFound):
		return "header_not_found"
	case errors.Is(err, ingest.ErrMissingRequiredColumns):
		return "missing_columns"
	case errors.Is(err, ingest.ErrParseFailure):
		return "parse_failure"
	default:
		return "error"
	}
}
