package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Upstream fetches by resource (feed, weather) and outcome. Watch for: error vs success ratio.
	FetchCallsTotal *prometheus.CounterVec

	// Upstream fetch latency. Watch for: p95 near the configured fetch timeout.
	FetchDurationSeconds *prometheus.HistogramVec

	// Failed fetches by stable error category (see client.CategorizeError).
	FetchErrorsTotal *prometheus.CounterVec

	// Responses served from bundled content. Reason is the fetch error kind.
	// Watch for: reason=transport or decode while endpoints are configured.
	FallbackServesTotal *prometheus.CounterVec

	// HTTP request rate.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limit denials.
	RateLimitDeniedTotal prometheus.Counter

	// Circuit breaker state changes per upstream resource.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	FetchCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchCallsTotal",
			Help: "Total number of upstream content fetches",
		},
		[]string{"resource", "status"},
	)
	FetchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetchDurationSeconds",
			Help:    "Upstream content fetch latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"resource", "status"},
	)
	FetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchErrorsTotal",
			Help: "Failed upstream content fetches by error category",
		},
		[]string{"resource", "category"},
	)
	FallbackServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallbackServesTotal",
			Help: "Responses served from bundled fallback content",
		},
		[]string{"resource", "reason"},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)

	registry.MustRegister(
		FetchCallsTotal, FetchDurationSeconds, FetchErrorsTotal,
		FallbackServesTotal,
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		RateLimitDeniedTotal,
		CircuitBreakerTransitionsTotal,
	)
}

// RecordFetch records one upstream fetch outcome. status is "success" or an
// error label; category is empty on success.
func RecordFetch(resource, status, category string, seconds float64) {
	FetchCallsTotal.WithLabelValues(resource, status).Inc()
	FetchDurationSeconds.WithLabelValues(resource, status).Observe(seconds)
	if category != "" {
		FetchErrorsTotal.WithLabelValues(resource, category).Inc()
	}
}

// RecordFallbackServe records that bundled content was served for resource.
func RecordFallbackServe(resource, reason string) {
	FallbackServesTotal.WithLabelValues(resource, reason).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change.
func RecordCircuitBreakerTransition(component, from, to string) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
