package services

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nudeploy_http_requests_total",
			Help: "HTTP requests handled by the API server",
		},
		[]string{"route"},
	)

	httpRequestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nudeploy_http_request_errors_total",
			Help: "HTTP requests answered with a status >= 400",
		},
		[]string{"route"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nudeploy_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// plain counters for /healthz, reading back a CounterVec needs a full Gather
	totalRequests atomic.Int64
	errorRequests atomic.Int64
)

func init() {
	prometheus.MustRegister(httpRequestTotal)
	prometheus.MustRegister(httpRequestErrors)
	prometheus.MustRegister(httpRequestDuration)
}

func IncrementRequestCount(route string) {
	httpRequestTotal.WithLabelValues(route).Inc()
	totalRequests.Add(1)
}

func IncrementErrorCount(route string) {
	httpRequestErrors.WithLabelValues(route).Inc()
	errorRequests.Add(1)
}

func RecordRequestDuration(route string, seconds float64) {
	httpRequestDuration.WithLabelValues(route).Observe(seconds)
}

func GetTotalRequestCount() int64 {
	return totalRequests.Load()
}

func GetTotalErrorCount() int64 {
	return errorRequests.Load()
}
