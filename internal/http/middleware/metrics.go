// Package middleware contains shared Gin middleware used by the HTTP
// layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. The
// Metrics() middleware measures request counts, latencies, and in-flight
// concurrency with careful attention to label cardinality:
//
//   - method: HTTP method verb (GET/POST/…)
//   - path:   the registered Gin route (e.g. /api/v1/operations/:id);
//     falls back to the raw URL path when no route matched
//   - status: numeric status code as a string (e.g. "200", "404")
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges the number of currently processing requests.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpRespSize records response body size in bytes by method and route
	// path.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP response bodies in bytes.",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8),
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize)
}

// Metrics returns a Gin middleware that instruments requests with
// Prometheus.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
// The "path" label uses the registered route (c.FullPath()) to avoid
// unbounded label cardinality from raw URLs.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
