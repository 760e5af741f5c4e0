// Package metrics provides Prometheus metrics for the chordscan service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// engineBuckets spans fast failures up to the default three minute budget.
var engineBuckets = []float64{100, 500, 1000, 2500, 5000, 10000, 20000, 40000, 60000, 90000, 120000, 180000}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline metrics
	scans             *prometheus.CounterVec
	engineRuns        *prometheus.CounterVec
	engineDuration    prometheus.Histogram
	engineTimeouts    prometheus.Counter
	measuresExtracted prometheus.Counter
	chordsRecognized  prometheus.Counter
	languageGate      *prometheus.CounterVec
	leadSheets        prometheus.Counter
	uploadBytes       *prometheus.HistogramVec

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueWait          prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerBusy              prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "chordscan",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.scans = m.counterVec("scans_total", "Score scans by outcome", "outcome")
	m.engineRuns = m.counterVec("engine_runs_total", "Recognition engine runs by status", "status")
	m.engineDuration = m.histogram("engine_duration_milliseconds", "Recognition engine wall-clock time", engineBuckets)
	m.engineTimeouts = m.counter("engine_timeouts_total", "Recognition engine runs killed on timeout")
	m.measuresExtracted = m.counter("measures_extracted_total", "Measures read from recognized scores")
	m.chordsRecognized = m.counter("chords_recognized_total", "Measures that produced a chord label")
	m.languageGate = m.counterVec("language_gate_total", "Language gate decisions", "language", "accepted")
	m.leadSheets = m.counter("lead_sheets_total", "Lead sheets synthesized")
	m.uploadBytes = m.histogramVec("upload_bytes", "Size of accepted uploads",
		prometheus.ExponentialBuckets(16<<10, 4, 8), "kind")

	m.queueSize = m.gauge("queue_size", "Scan tasks waiting for a worker")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queued scan tasks")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Scan tasks enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Scan tasks dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Scan tasks rejected by the queue")
	m.queueWait = m.histogram("queue_wait_milliseconds", "Time a scan task spent queued", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Scan workers in the pool")
	m.workerBusy = m.gauge("worker_busy_count", "Scan workers currently running a task")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time a worker spent on one task", engineBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Scan tasks that ended in an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration",
		engineBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that failed",
		engineBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Pipeline Metrics Functions.

// RecordScan counts a finished score scan by outcome kind.
func RecordScan(outcome string) {
	globalManager.scans.WithLabelValues(outcome).Inc()
}

// RecordEngineRun records one engine run.
func RecordEngineRun(status string, durationMs float64) {
	globalManager.engineRuns.WithLabelValues(status).Inc()
	globalManager.engineDuration.Observe(durationMs)
}

// RecordEngineTimeout counts an engine run killed on timeout.
func RecordEngineTimeout() {
	globalManager.engineTimeouts.Inc()
}

// RecordMeasuresExtracted adds n extracted measures.
func RecordMeasuresExtracted(n int) {
	globalManager.measuresExtracted.Add(float64(n))
}

// RecordChordsRecognized adds n measures that produced a label.
func RecordChordsRecognized(n int) {
	globalManager.chordsRecognized.Add(float64(n))
}

// RecordLanguageGate counts a language decision.
func RecordLanguageGate(language string, accepted bool) {
	globalManager.languageGate.WithLabelValues(language, strconv.FormatBool(accepted)).Inc()
}

// RecordLeadSheet counts a synthesized lead sheet.
func RecordLeadSheet() {
	globalManager.leadSheets.Inc()
}

// RecordUploadBytes observes the size of an accepted upload.
func RecordUploadBytes(kind string, size int64) {
	globalManager.uploadBytes.WithLabelValues(kind).Observe(float64(size))
}

// Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueWait records how long a task waited for a worker.
func RecordQueueWait(latencyMs float64) {
	globalManager.queueWait.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the pool size.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerBusy adjusts the number of busy workers by delta.
func AddWorkerBusy(delta int) {
	globalManager.workerBusy.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Metrics Functions.

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
