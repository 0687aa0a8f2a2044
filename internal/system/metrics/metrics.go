// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// RecommendationsServed counts GetRecommendations outcomes by served status
	// (approved, pending, none, forbidden, error).
	RecommendationsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation requests by outcome.",
		},
		[]string{"status"},
	)

	// GuardrailDrops counts candidate items dropped per guardrail.
	GuardrailDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_guardrail_drops_total",
			Help: "Candidate items dropped by guardrail.",
		},
		[]string{"guardrail"},
	)

	// ReviewPersistFailures makes silent audit loss detectable.
	ReviewPersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommendation_review_persist_failures_total",
		Help: "Pending review writes that failed while the response was still served.",
	})

	ReviewTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_review_transitions_total",
			Help: "Operator review decisions by resulting status.",
		},
		[]string{"status"},
	)

	ConsentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consent_transitions_total",
			Help: "Consent grant/revoke operations by kind.",
		},
		[]string{"kind", "action"},
	)

	GenerationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_generation_duration_seconds",
		Help:    "Duration of generation cycles including external generator calls.",
		Buckets: prometheus.DefBuckets,
	})
)

var registerOnce sync.Once

// Init registers all collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPInFlight,
			HTTPRequestDuration,
			RecommendationsServed,
			GuardrailDrops,
			ReviewPersistFailures,
			ReviewTransitions,
			ConsentTransitions,
			GenerationDuration,
		)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
