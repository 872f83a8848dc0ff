// Package metrics provides Prometheus metrics for the tenderdesk service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	DocumentWorkbook = "workbook"
	DocumentEmail    = "email"

	OutcomeSent      = "sent"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeQueued    = "queued"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Engine
	summaries      prometheus.Counter
	orphanLines    prometheus.Counter
	invalidLines   prometheus.Counter
	placeholders   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	rollupDuration prometheus.Histogram

	// Outbound
	deliveries *prometheus.CounterVec
	exports    *prometheus.CounterVec

	// Record store
	storeQueryDuration *prometheus.HistogramVec
	storeErrors        *prometheus.CounterVec

	// Dispatch queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActive             prometheus.Gauge
	workerProcessingDuration prometheus.Histogram
	workerErrors             prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors off /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tenderdesk",
		subsystem:        "engine",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.summaries = auto.NewCounter(m.counterOpts("summaries_total",
		"Request summaries computed"))
	m.orphanLines = auto.NewCounter(m.counterOpts("orphan_lines_total",
		"Bid lines referencing a requested line that does not exist"))
	m.invalidLines = auto.NewCounter(m.counterOpts("invalid_lines_total",
		"Matched bid lines excluded from totals for an invalid shape"))
	m.placeholders = auto.NewCounterVec(m.counterOpts("render_placeholders_total",
		"Fields rendered as placeholder by document"), []string{"document"})
	m.renderDuration = auto.NewHistogramVec(m.histogramOpts("render_duration_milliseconds",
		"Render duration by document"), []string{"document"})
	m.rollupDuration = auto.NewHistogram(m.histogramOpts("rollup_duration_milliseconds",
		"Population rollup duration"))

	m.deliveries = auto.NewCounterVec(m.counterOpts("email_deliveries_total",
		"Summary email deliveries by outcome"), []string{"outcome"})
	m.exports = auto.NewCounterVec(m.counterOpts("workbook_exports_total",
		"Workbook exports to the file sink by outcome"), []string{"outcome"})

	m.storeQueryDuration = auto.NewHistogramVec(m.histogramOpts("store_query_duration_milliseconds",
		"Record store query duration by operation"), []string{"operation"})
	m.storeErrors = auto.NewCounterVec(m.counterOpts("store_errors_total",
		"Record store errors by operation"), []string{"operation"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("dispatch_queue_size",
		"Deliveries waiting in the dispatch queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("dispatch_queue_capacity",
		"Capacity of the dispatch queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("dispatch_queue_utilization_ratio",
		"Dispatch queue size over capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("dispatch_queue_enqueued_total",
		"Deliveries enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("dispatch_queue_dequeued_total",
		"Deliveries handed to workers"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("dispatch_queue_enqueue_errors_total",
		"Deliveries rejected by the dispatch queue"))

	m.workerActive = auto.NewGauge(m.gaugeOpts("dispatch_workers",
		"Dispatch workers running"))
	m.workerProcessingDuration = auto.NewHistogram(m.histogramOpts("dispatch_processing_milliseconds",
		"Time to render and send one delivery"))
	m.workerErrors = auto.NewCounter(m.counterOpts("dispatch_errors_total",
		"Deliveries that failed in a worker"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	gc := m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time")
	gc.Buckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}
	m.systemGCPauseTime = auto.NewHistogram(gc)
}

// RecordSummary counts one computed request summary and its excluded lines.
func RecordSummary(orphans, invalid int) {
	globalManager.summaries.Inc()
	globalManager.orphanLines.Add(float64(orphans))
	globalManager.invalidLines.Add(float64(invalid))
}

// RecordPlaceholders counts placeholder fields of one rendered document.
func RecordPlaceholders(document string, n int) {
	if n > 0 {
		globalManager.placeholders.WithLabelValues(document).Add(float64(n))
	}
}

// RecordRenderLatency records how long one document took to render.
func RecordRenderLatency(document string, latencyMs float64) {
	globalManager.renderDuration.WithLabelValues(document).Observe(latencyMs)
}

// RecordRollupLatency records how long one population rollup took.
func RecordRollupLatency(latencyMs float64) {
	globalManager.rollupDuration.Observe(latencyMs)
}

// RecordDelivery counts a summary email by outcome.
func RecordDelivery(outcome string) {
	globalManager.deliveries.WithLabelValues(outcome).Inc()
}

// RecordExport counts a workbook export by outcome.
func RecordExport(outcome string) {
	globalManager.exports.WithLabelValues(outcome).Inc()
}

// RecordStoreQueryLatency records one record store call.
func RecordStoreQueryLatency(operation string, latencyMs float64) {
	globalManager.storeQueryDuration.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError counts a failed record store call.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets size over capacity.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an accepted delivery.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a delivery handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected delivery.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records one processed delivery.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingDuration.Observe(latencyMs)
}

// RecordWorkerError counts a delivery that failed in a worker.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
