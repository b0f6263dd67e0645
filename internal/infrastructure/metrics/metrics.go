package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload broker metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 15},
		},
		[]string{"method", "endpoint"},
	)

	// Upload intents by surface, protocol and outcome
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "uploads_total",
			Help:      "Upload operations by surface, protocol and status",
		},
		[]string{"surface", "protocol", "operation", "status"},
	)

	// Declared bytes of accepted upload intents
	DeclaredBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "declared_bytes_total",
			Help:      "Total client-declared bytes of accepted upload intents",
		},
		[]string{"surface"},
	)

	// Validation rejections by reason
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "rejections_total",
			Help:      "Upload intents rejected by policy, by reason",
		},
		[]string{"reason"},
	)

	// Abort outcomes
	AbortsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "aborts_total",
			Help:      "Multipart aborts by backend outcome",
		},
		[]string{"outcome", "source"},
	)

	// Admission denials
	AdmissionDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "admission_denied_total",
			Help:      "Requests denied by admission control",
		},
		[]string{"rule"},
	)

	// Admission limiter errors (requests admitted anyway)
	AdmissionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "admission_errors_total",
			Help:      "Admission limiter failures that let the request through",
		},
		[]string{"rule"},
	)

	// Storage backend operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "storage_operations_total",
			Help:      "Total storage backend operations",
		},
		[]string{"operation", "status"},
	)

	// Storage backend operation duration
	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "storage_duration_seconds",
			Help:      "Storage backend operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 15},
		},
		[]string{"operation"},
	)

	// Presign URL duration
	PresignDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "presign_duration_seconds",
			Help:      "Presigned URL generation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"operation"},
	)

	// Circuit breaker state (0 closed, 1 half-open, 2 open)
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "storage_breaker_state",
			Help:      "Storage circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
	)

	// Janitor sweeps
	JanitorReapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnhub",
			Subsystem: "upload_broker",
			Name:      "janitor_sessions_total",
			Help:      "Stale multipart sessions handled by the janitor",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records an upload operation
func RecordUpload(surface, protocol, operation, status string) {
	UploadsTotal.WithLabelValues(surface, protocol, operation, status).Inc()
}

// RecordDeclaredBytes records the size of an accepted upload intent
func RecordDeclaredBytes(surface string, bytes int64) {
	DeclaredBytesTotal.WithLabelValues(surface).Add(float64(bytes))
}

// RecordRejection records a policy rejection
func RecordRejection(reason string) {
	RejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordAbort records the backend outcome of an abort
func RecordAbort(outcome, source string) {
	AbortsTotal.WithLabelValues(outcome, source).Inc()
}

// RecordAdmissionDenied records a denied admission check
func RecordAdmissionDenied(rule string) {
	AdmissionDeniedTotal.WithLabelValues(rule).Inc()
}

// RecordAdmissionError records a limiter failure
func RecordAdmissionError(rule string) {
	AdmissionErrorsTotal.WithLabelValues(rule).Inc()
}

// RecordStorageOperation records a storage backend operation
func RecordStorageOperation(operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageDuration.WithLabelValues(operation).Observe(durationSec)
}

// RecordPresign records presigned URL generation
func RecordPresign(operation string, durationSec float64) {
	PresignDuration.WithLabelValues(operation).Observe(durationSec)
}

// SetBreakerState records the storage circuit breaker state
func SetBreakerState(state float64) {
	BreakerState.Set(state)
}

// RecordJanitor records a janitor outcome for one session
func RecordJanitor(outcome string) {
	JanitorReapedTotal.WithLabelValues(outcome).Inc()
}
