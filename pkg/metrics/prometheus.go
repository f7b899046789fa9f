package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var scoreBuckets = []float64{0, 20, 40, 60, 70, 80, 90, 95, 100}

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Solver metrics
	solves           *prometheus.CounterVec
	solveLatency     *prometheus.HistogramVec
	eventsAssigned   prometheus.Counter
	eventsUnplayable *prometheus.CounterVec
	playability      prometheus.Histogram
	generations      prometheus.Counter
	annealingSteps   prometheus.Counter

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueEnqueueErrs prometheus.Counter
	queueWaitLatency prometheus.Histogram

	// Worker metrics
	workerActive  prometheus.Gauge
	workerIdle    prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// Job store metrics
	jobsStored   prometheus.Gauge
	jobsByStatus *prometheus.CounterVec

	// HTTP metrics
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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fingering",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.enabled {
		m.initializeMetrics()
	}
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.solves = m.counterVec("solves_total", "Total number of solve calls by strategy and outcome", "strategy", "outcome")
	m.solveLatency = m.histogramVec("solve_latency_milliseconds", "Solve latency in milliseconds by strategy", "strategy")
	m.eventsAssigned = m.counter("events_assigned_total", "Total number of note events assigned a finger")
	m.eventsUnplayable = m.counterVec("events_unplayable_total", "Total number of unplayable note events by reason", "reason")
	m.playability = m.histogram("playability_score", "Distribution of playability scores (0-100)", scoreBuckets)
	m.generations = m.counter("genetic_generations_total", "Total number of genetic algorithm generations run")
	m.annealingSteps = m.counter("annealing_iterations_total", "Total number of simulated annealing iterations run")

	m.queueSize = m.gauge("queue_size", "Current number of queued solve jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrs = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.queueWaitLatency = m.histogram("queue_wait_latency_milliseconds", "Time a job spent queued in milliseconds", m.histogramBuckets)

	m.workerActive = m.gauge("worker_active_count", "Number of workers running a job")
	m.workerIdle = m.gauge("worker_idle_count", "Number of idle workers")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Worker job processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of failed jobs")

	m.jobsStored = m.gauge("jobs_stored", "Number of job records held by the store")
	m.jobsByStatus = m.counterVec("jobs_total", "Total number of job transitions by status", "status")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
}

// RecordSolve counts a solve call and observes its latency.
func RecordSolve(strategy, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.solves.WithLabelValues(strategy, outcome).Inc()
	globalManager.solveLatency.WithLabelValues(strategy).Observe(latencyMs)
}

// RecordEventsAssigned adds n playable events.
func RecordEventsAssigned(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.eventsAssigned.Add(float64(n))
	}
}

// RecordUnplayable counts one unplayable event.
func RecordUnplayable(reason string) {
	if globalManager.enabled {
		globalManager.eventsUnplayable.WithLabelValues(reason).Inc()
	}
}

// RecordPlayabilityScore observes the score of a finished solve.
func RecordPlayabilityScore(score float64) {
	if globalManager.enabled {
		globalManager.playability.Observe(score)
	}
}

// RecordGenerations adds n genetic algorithm generations.
func RecordGenerations(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.generations.Add(float64(n))
	}
}

// RecordAnnealingIterations adds n annealing iterations.
func RecordAnnealingIterations(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.annealingSteps.Add(float64(n))
	}
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if globalManager.enabled {
		globalManager.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError increments the rejected enqueue counter.
func RecordQueueEnqueueError() {
	if globalManager.enabled {
		globalManager.queueEnqueueErrs.Inc()
	}
}

// RecordQueueWaitLatency observes how long a job waited in the queue.
func RecordQueueWaitLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.queueWaitLatency.Observe(latencyMs)
	}
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	if globalManager.enabled {
		globalManager.workerActive.Set(float64(count))
	}
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	if globalManager.enabled {
		globalManager.workerIdle.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency observes the time a worker spent on a job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the failed job counter.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrors.Inc()
	}
}

// UpdateJobsStored sets the number of job records held.
func UpdateJobsStored(count int) {
	if globalManager.enabled {
		globalManager.jobsStored.Set(float64(count))
	}
}

// RecordJobStatus counts a job entering status.
func RecordJobStatus(status string) {
	if globalManager.enabled {
		globalManager.jobsByStatus.WithLabelValues(status).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Configure replaces the package-level manager with one built from opts on a
// fresh registry, so namespace and label changes never collide with the
// collectors registered at init. Call it during startup, before any recording
// goroutine runs and before GetRegistry is handed to an exporter.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, WithPrometheusRegistry(reg))
	globalManager = NewManager(all...)
	customRegistry = reg
}
