package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
	correctionOutcomes *prometheus.CounterVec
	producerFallbacks  prometheus.Counter
	dispatchedJobs     *prometheus.CounterVec
	dispatchFailures   prometheus.Counter
	checkoutsCreated   *prometheus.CounterVec
	unlocksCompleted   prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "juriscorrect_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "juriscorrect_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0, 30.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "juriscorrect_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		correctionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "juriscorrect_correction_outcomes_total",
			Help: "Terminal outcomes of correction generation runs.",
		}, []string{"outcome"})

		producerFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "juriscorrect_producer_fallbacks_total",
			Help: "Number of corrections finalized with a synthesized fallback payload.",
		})

		dispatchedJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "juriscorrect_dispatched_jobs_total",
			Help: "Correction jobs dispatched after submission intake.",
		}, []string{"transport"})

		dispatchFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "juriscorrect_dispatch_failures_total",
			Help: "Correction jobs that could not be published to the queue.",
		})

		checkoutsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "juriscorrect_checkouts_created_total",
			Help: "Checkout sessions opened, by plan.",
		}, []string{"plan"})

		unlocksCompleted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "juriscorrect_unlocks_completed_total",
			Help: "Corrections unlocked after a confirmed payment.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			correctionOutcomes,
			producerFallbacks,
			dispatchedJobs,
			dispatchFailures,
			checkoutsCreated,
			unlocksCompleted,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// CorrectionOutcomes exposes the counter for correction run outcomes.
func CorrectionOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return correctionOutcomes
}

// ProducerFallbacks exposes the counter for fallback corrections.
func ProducerFallbacks() prometheus.Counter {
	RegisterMetrics()
	return producerFallbacks
}

// DispatchedJobs exposes the counter for dispatched correction jobs.
func DispatchedJobs() *prometheus.CounterVec {
	RegisterMetrics()
	return dispatchedJobs
}

// DispatchFailures exposes the counter for failed dispatches.
func DispatchFailures() prometheus.Counter {
	RegisterMetrics()
	return dispatchFailures
}

// CheckoutsCreated exposes the counter for opened checkout sessions.
func CheckoutsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return checkoutsCreated
}

// UnlocksCompleted exposes the counter for completed unlocks.
func UnlocksCompleted() prometheus.Counter {
	RegisterMetrics()
	return unlocksCompleted
}
