// Package metrics exposes the service's prometheus collectors. Everything is
// registered on a package-private registry so tests never trip duplicate
// registration panics against the global one.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	requestsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "jewgo_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jewgo_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	proxyCacheHits = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "jewgo_proxy_cache_hits_total",
		Help: "Upstream proxy responses served from the local cache.",
	})

	proxyCacheMisses = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "jewgo_proxy_cache_misses_total",
		Help: "Upstream proxy requests that had to hit the backend.",
	})

	proxyUpstreamErrors = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "jewgo_proxy_upstream_errors_total",
		Help: "Upstream proxy calls that failed or returned 5xx.",
	})

	rateLimitRejections = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "jewgo_rate_limit_rejections_total",
		Help: "Requests rejected by the token bucket, by limiter name.",
	}, []string{"limiter"})

	bulkOperations = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "jewgo_admin_bulk_operations_total",
		Help: "Admin bulk operations by action and outcome.",
	}, []string{"action", "outcome"})
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route, status string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, route, status).Inc()
	requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ProxyCacheHit counts a proxy response served from cache.
func ProxyCacheHit() { proxyCacheHits.Inc() }

// ProxyCacheMiss counts a proxy request that reached the upstream.
func ProxyCacheMiss() { proxyCacheMisses.Inc() }

// ProxyUpstreamError counts a failed upstream call.
func ProxyUpstreamError() { proxyUpstreamErrors.Inc() }

// RateLimited counts a rejection from the named limiter.
func RateLimited(limiter string) { rateLimitRejections.WithLabelValues(limiter).Inc() }

// BulkOperation counts n item outcomes within an admin bulk request.
func BulkOperation(action, outcome string, n int) {
	bulkOperations.WithLabelValues(action, outcome).Add(float64(n))
}

// Handler serves the registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
