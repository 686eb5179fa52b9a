// Package metrics provides Prometheus metrics for the donorflow pipeline service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline
	runs              *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	rowsParsed        *prometheus.CounterVec
	rowsDropped       *prometheus.CounterVec
	joinRecords       *prometheus.CounterVec
	donorsSummarized  prometheus.Counter
	imputedValues     prometheus.Counter
	unresolvedPostals prometheus.Counter

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueRejected prometheus.Counter
	workerCount   prometheus.Gauge
	workersBusy   prometheus.Gauge
	storedRuns    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "donorflow",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(m.counterOpts("runs_total", "Pipeline runs by outcome"), []string{"outcome"})
	m.stageDuration = auto.NewHistogramVec(m.histogramOpts("stage_duration_seconds", "Duration of each pipeline stage"), []string{"stage"})
	m.rowsParsed = auto.NewCounterVec(m.counterOpts("rows_parsed_total", "CSV rows kept by source"), []string{"source"})
	m.rowsDropped = auto.NewCounterVec(m.counterOpts("rows_dropped_total", "CSV rows dropped for a token count mismatch by source"), []string{"source"})
	m.joinRecords = auto.NewCounterVec(m.counterOpts("join_records_total", "Join output records by match result"), []string{"result"})
	m.donorsSummarized = auto.NewCounter(m.counterOpts("donors_summarized_total", "Donors with at least one matched donation"))
	m.imputedValues = auto.NewCounter(m.counterOpts("imputed_values_total", "Missing values replaced while cleaning"))
	m.unresolvedPostals = auto.NewCounter(m.counterOpts("unresolved_postal_codes_total", "Postal codes without a known coordinate"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Runs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum runs the queue holds"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Runs accepted into the queue"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total", "Runs rejected because the queue was full"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured pipeline workers"))
	m.workersBusy = auto.NewGauge(m.gaugeOpts("workers_busy", "Workers currently executing a run"))
	m.storedRuns = auto.NewGauge(m.gaugeOpts("stored_runs", "Runs held in the result store"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_seconds", "HTTP request duration in seconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "type"},
	)
}

// RecordRun counts a finished run.
func (m *Manager) RecordRun(outcome string) {
	if m.enabled {
		m.runs.WithLabelValues(outcome).Inc()
	}
}

// ObserveStage records how long a pipeline stage took.
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	if m.enabled {
		m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// RecordRows counts kept and dropped rows of one parsed input.
func (m *Manager) RecordRows(source string, parsed, dropped int) {
	if m.enabled {
		m.rowsParsed.WithLabelValues(source).Add(float64(parsed))
		m.rowsDropped.WithLabelValues(source).Add(float64(dropped))
	}
}

// RecordJoin counts join output records.
func (m *Manager) RecordJoin(matched, unmatched, rightOnly int) {
	if m.enabled {
		m.joinRecords.WithLabelValues("matched").Add(float64(matched))
		m.joinRecords.WithLabelValues("unmatched").Add(float64(unmatched))
		m.joinRecords.WithLabelValues("right_only").Add(float64(rightOnly))
	}
}

// RecordDonors counts summarized donors.
func (m *Manager) RecordDonors(n int) {
	if m.enabled {
		m.donorsSummarized.Add(float64(n))
	}
}

// RecordImputed counts imputed values.
func (m *Manager) RecordImputed(n int) {
	if m.enabled {
		m.imputedValues.Add(float64(n))
	}
}

// RecordUnresolvedPostalCodes counts postal codes missing from the geo table.
func (m *Manager) RecordUnresolvedPostalCodes(n int) {
	if m.enabled {
		m.unresolvedPostals.Add(float64(n))
	}
}

// UpdateQueueSize sets the current queue size.
func (m *Manager) UpdateQueueSize(n int) {
	if m.enabled {
		m.queueSize.Set(float64(n))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func (m *Manager) UpdateQueueCapacity(n int) {
	if m.enabled {
		m.queueCapacity.Set(float64(n))
	}
}

// RecordQueueEnqueue counts an accepted run.
func (m *Manager) RecordQueueEnqueue() {
	if m.enabled {
		m.queueEnqueued.Inc()
	}
}

// RecordQueueRejected counts a run rejected by backpressure.
func (m *Manager) RecordQueueRejected() {
	if m.enabled {
		m.queueRejected.Inc()
	}
}

// UpdateWorkerCount sets the configured worker count.
func (m *Manager) UpdateWorkerCount(n int) {
	if m.enabled {
		m.workerCount.Set(float64(n))
	}
}

// AddWorkersBusy adjusts the number of busy workers by delta.
func (m *Manager) AddWorkersBusy(delta int) {
	if m.enabled {
		m.workersBusy.Add(float64(delta))
	}
}

// UpdateStoredRuns sets the number of runs held in the result store.
func (m *Manager) UpdateStoredRuns(n int) {
	if m.enabled {
		m.storedRuns.Set(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(d.Seconds())
	}
}

// RecordError counts an error by component and type.
func (m *Manager) RecordError(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// Package-level helpers delegate to the global manager.

func RecordRun(outcome string)                  { globalManager.RecordRun(outcome) }
func ObserveStage(stage string, d time.Duration) { globalManager.ObserveStage(stage, d) }
func RecordRows(source string, parsed, dropped int) {
	globalManager.RecordRows(source, parsed, dropped)
}
func RecordJoin(matched, unmatched, rightOnly int) {
	globalManager.RecordJoin(matched, unmatched, rightOnly)
}
func RecordDonors(n int)                { globalManager.RecordDonors(n) }
func RecordImputed(n int)               { globalManager.RecordImputed(n) }
func RecordUnresolvedPostalCodes(n int) { globalManager.RecordUnresolvedPostalCodes(n) }
func UpdateQueueSize(n int)             { globalManager.UpdateQueueSize(n) }
func UpdateQueueCapacity(n int)         { globalManager.UpdateQueueCapacity(n) }
func RecordQueueEnqueue()               { globalManager.RecordQueueEnqueue() }
func RecordQueueRejected()              { globalManager.RecordQueueRejected() }
func UpdateWorkerCount(n int)           { globalManager.UpdateWorkerCount(n) }
func AddWorkersBusy(delta int)          { globalManager.AddWorkersBusy(delta) }
func UpdateStoredRuns(n int)            { globalManager.UpdateStoredRuns(n) }
func RecordHTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, d)
}
func RecordError(component, errorType string) { globalManager.RecordError(component, errorType) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
