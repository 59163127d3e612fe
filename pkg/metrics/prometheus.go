// Package metrics provides Prometheus metrics for the turf oracle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the oracle exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Event intake
	eventsCommitted prometheus.Counter
	eventsRejected  *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	eventsProcessed *prometheus.CounterVec

	// Valuation engines
	cascadeAdjustments *prometheus.CounterVec
	injuryLookups      *prometheus.CounterVec
	xfactorDetections  *prometheus.CounterVec
	valuationsWritten  prometheus.Counter

	// Valuation registry
	horsesRegistered prometheus.Gauge
	registryLatency  *prometheus.HistogramVec

	// Prediction ledger
	ledgerOps     *prometheus.CounterVec
	ledgerLatency *prometheus.HistogramVec

	// Pipeline plumbing
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueRejected    prometheus.Counter
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram
	blobPuts         *prometheus.CounterVec
	pipelineFailures *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "turforacle",
		subsystem:        "core",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.eventsCommitted = auto.NewCounter(m.counter("events_committed_total", "Events canonicalized and hashed"))
	m.eventsRejected = auto.NewCounterVec(m.counter("events_rejected_total", "Events rejected before hashing"), []string{"reason"})
	m.eventsDuplicate = auto.NewCounter(m.counter("events_duplicate_total", "Events dropped by the replay guard"))
	m.eventsProcessed = auto.NewCounterVec(m.counter("events_processed_total", "Events run through the pipeline"), []string{"event_type"})

	m.cascadeAdjustments = auto.NewCounterVec(m.counter("cascade_adjustments_total", "Offspring adjustments emitted"), []string{"event_type"})
	m.injuryLookups = auto.NewCounterVec(m.counter("injury_lookups_total", "Injury catalog lookups"), []string{"result"})
	m.xfactorDetections = auto.NewCounterVec(m.counter("xfactor_detections_total", "X-factor pedigree traces"), []string{"carrier"})
	m.valuationsWritten = auto.NewCounter(m.counter("valuations_written_total", "Valuations submitted to the ledger writer"))

	m.horsesRegistered = auto.NewGauge(m.gauge("horses_registered", "Horses tracked by the valuation registry"))
	m.registryLatency = auto.NewHistogramVec(m.histogram("registry_latency_milliseconds", "Valuation registry operation latency"), []string{"op"})

	m.ledgerOps = auto.NewCounterVec(m.counter("ledger_operations_total", "Prediction ledger operations"), []string{"op", "result"})
	m.ledgerLatency = auto.NewHistogramVec(m.histogram("ledger_latency_milliseconds", "Prediction ledger operation latency"), []string{"op"})

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Events waiting in the pipeline queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Pipeline queue capacity"))
	m.queueRejected = auto.NewCounter(m.counter("queue_rejected_total", "Events refused because the queue was full or closed"))
	m.workerCount = auto.NewGauge(m.gauge("worker_count", "Pipeline workers running"))
	m.workerLatency = auto.NewHistogram(m.histogram("worker_latency_milliseconds", "Time to run one event through the pipeline"))
	m.blobPuts = auto.NewCounterVec(m.counter("blob_puts_total", "Event blobs persisted to the blob store"), []string{"result"})
	m.pipelineFailures = auto.NewCounterVec(m.counter("pipeline_failures_total", "Pipeline failures by stage"), []string{"stage"})

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "HTTP requests by endpoint"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds", "HTTP request duration"), []string{"endpoint", "method", "status_code"})
}

// RecordEventCommitted counts an event that was hashed.
func RecordEventCommitted() { globalManager.eventsCommitted.Inc() }

// RecordEventRejected counts an event refused before hashing.
func RecordEventRejected(reason string) { globalManager.eventsRejected.WithLabelValues(reason).Inc() }

// RecordEventDuplicate counts a replayed event.
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

// RecordEventProcessed counts an event that completed the pipeline.
func RecordEventProcessed(eventType string) {
	globalManager.eventsProcessed.WithLabelValues(eventType).Inc()
}

// RecordCascadeAdjustments adds n offspring adjustments for the cascade type.
func RecordCascadeAdjustments(eventType string, n int) {
	globalManager.cascadeAdjustments.WithLabelValues(eventType).Add(float64(n))
}

// RecordInjuryLookup counts a catalog lookup; found selects the result label.
func RecordInjuryLookup(found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	globalManager.injuryLookups.WithLabelValues(result).Inc()
}

// RecordXFactorDetection counts a pedigree trace.
func RecordXFactorDetection(carrier bool) {
	label := "false"
	if carrier {
		label = "true"
	}
	globalManager.xfactorDetections.WithLabelValues(label).Inc()
}

// RecordValuationsWritten adds n submitted valuations.
func RecordValuationsWritten(n int) { globalManager.valuationsWritten.Add(float64(n)) }

// UpdateHorsesRegistered sets the registry size.
func UpdateHorsesRegistered(n int) { globalManager.horsesRegistered.Set(float64(n)) }

// RecordRegistryLatency observes one registry operation.
func RecordRegistryLatency(op string, latencyMs float64) {
	globalManager.registryLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordLedgerOp counts a ledger operation and observes its latency.
func RecordLedgerOp(op, result string, latencyMs float64) {
	globalManager.ledgerOps.WithLabelValues(op, result).Inc()
	globalManager.ledgerLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueRejected counts an event the queue refused.
func RecordQueueRejected() { globalManager.queueRejected.Inc() }

// UpdateWorkerCount sets the running worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerLatency observes the time one event spent in the pipeline.
func RecordWorkerLatency(latencyMs float64) { globalManager.workerLatency.Observe(latencyMs) }

// RecordBlobPut counts a blob store write.
func RecordBlobPut(ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}
	globalManager.blobPuts.WithLabelValues(result).Inc()
}

// RecordPipelineFailure counts a failure at a pipeline stage.
func RecordPipelineFailure(stage string) { globalManager.pipelineFailures.WithLabelValues(stage).Inc() }

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
