// Package metrics defines the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excelytics_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "excelytics_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "excelytics_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Upload Metrics
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excelytics_uploads_total",
			Help: "Uploads by outcome: stored, previewed, rejected, unparseable, failed",
		},
		[]string{"outcome"},
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "excelytics_upload_bytes",
			Help:    "Size of accepted uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	NormalizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "excelytics_normalize_duration_seconds",
			Help:    "Time spent turning uploads into tables",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	// Insight Metrics
	InsightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excelytics_insight_requests_total",
			Help: "Insight requests by outcome: generated, cached, upstream_error, rejected",
		},
		[]string{"outcome"},
	)

	InsightsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "excelytics_insights_in_flight",
			Help: "Insight generations currently waiting on the LLM",
		},
	)

	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excelytics_llm_tokens_total",
			Help: "LLM tokens consumed",
		},
		[]string{"model"},
	)

	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "excelytics_llm_circuit_breaker_state",
			Help: "LLM circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpload records the outcome of one upload.
func RecordUpload(outcome string, size int64) {
	UploadsTotal.WithLabelValues(outcome).Inc()
	if size > 0 && (outcome == "stored" || outcome == "previewed") {
		UploadBytes.Observe(float64(size))
	}
}

// RecordNormalize records how long a parse took.
func RecordNormalize(format string, duration time.Duration) {
	NormalizeDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// RecordInsight records the outcome of an insight request and its tokens.
func RecordInsight(outcome, model string, tokens int) {
	InsightRequestsTotal.WithLabelValues(outcome).Inc()
	if tokens > 0 {
		LLMTokensTotal.WithLabelValues(model).Add(float64(tokens))
	}
}
