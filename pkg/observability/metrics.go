// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the coursehub API.
package observability

import "github.com/prometheus/client_golang/prometheus"

// HTTPBuckets covers plain reads (a few ms) through bcrypt-bound writes.
var HTTPBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HashBuckets covers bcrypt at costs 4 through roughly 14.
var HashBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route pattern.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursehub_request_duration_seconds",
			Help:    "Request duration",
			Buckets: HTTPBuckets,
		},
		[]string{"method", "route"},
	)

	// InFlightRequests tracks requests currently being served.
	InFlightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coursehub_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// AuthFailuresTotal counts rejected credentials by internal reason.
	// The reason never reaches the client.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_auth_failures_total",
			Help: "Authentication failures",
		},
		[]string{"reason"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coursehub_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)

	// OwnershipDecisionsTotal counts ownership guard outcomes
	// (allowed, forbidden, not_found).
	OwnershipDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_ownership_decisions_total",
			Help: "Ownership guard decisions",
		},
		[]string{"resource", "outcome"},
	)

	// ValidationFailuresTotal counts rejected writes by violation kind.
	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_validation_failures_total",
			Help: "Validation failures",
		},
		[]string{"kind"},
	)

	// FaultsTotal counts errors routed to the fault sink.
	FaultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coursehub_faults_total",
			Help: "Unhandled faults",
		},
	)

	// PasswordHashDuration records time spent hashing and verifying secrets.
	PasswordHashDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursehub_password_hash_duration_seconds",
			Help:    "Password hash and verify duration",
			Buckets: HashBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InFlightRequests,
		AuthFailuresTotal,
		RateLimitRejectedTotal,
		OwnershipDecisionsTotal,
		ValidationFailuresTotal,
		FaultsTotal,
		PasswordHashDuration,
	)
}
