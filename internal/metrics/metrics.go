package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for the console.
type Metrics struct {
	// Run counters
	RunsTotal           *prometheus.CounterVec
	UnitsProcessedTotal *prometheus.CounterVec
	RunDurationSeconds  *prometheus.HistogramVec

	// Backend client metrics
	BackendRequestsTotal          *prometheus.CounterVec
	BackendRequestDurationSeconds *prometheus.HistogramVec

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	// System metrics
	UptimeSeconds prometheus.Gauge
	Goroutines    prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalperf_runs_total",
				Help: "Total number of report generation runs",
			},
			[]string{"mode", "outcome"},
		),
		UnitsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalperf_units_processed_total",
				Help: "Total number of per-unit executions",
			},
			[]string{"status"},
		),
		RunDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portalperf_run_duration_seconds",
				Help:    "Duration of whole runs in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"mode"},
		),

		BackendRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalperf_backend_requests_total",
				Help: "Total number of billing backend requests",
			},
			[]string{"operation", "status"},
		),
		BackendRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portalperf_backend_request_duration_seconds",
				Help:    "Billing backend request duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),

		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portalperf_api_requests_total",
				Help: "Total number of console API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portalperf_api_request_duration_seconds",
				Help:    "Console API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "portalperf_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "portalperf_goroutines",
				Help: "Number of active goroutines",
			},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.RunsTotal,
		m.UnitsProcessedTotal,
		m.RunDurationSeconds,
		m.BackendRequestsTotal,
		m.BackendRequestDurationSeconds,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.UptimeSeconds,
		m.Goroutines,
	)

	return m
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance.
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance.
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncRun increments the run counter.
func IncRun(mode, outcome string) {
	m := Global()
	if m != nil {
		m.RunsTotal.WithLabelValues(mode, outcome).Inc()
	}
}

// IncUnitProcessed increments the per-unit execution counter.
func IncUnitProcessed(status string) {
	m := Global()
	if m != nil {
		m.UnitsProcessedTotal.WithLabelValues(status).Inc()
	}
}

// ObserveRunDuration records how long a run took.
func ObserveRunDuration(mode string, seconds float64) {
	m := Global()
	if m != nil {
		m.RunDurationSeconds.WithLabelValues(mode).Observe(seconds)
	}
}

// IncBackendRequest increments the backend request counter.
func IncBackendRequest(operation, status string) {
	m := Global()
	if m != nil {
		m.BackendRequestsTotal.WithLabelValues(operation, status).Inc()
	}
}

// ObserveBackendDuration records one backend request's duration.
func ObserveBackendDuration(operation string, seconds float64) {
	m := Global()
	if m != nil {
		m.BackendRequestDurationSeconds.WithLabelValues(operation).Observe(seconds)
	}
}
