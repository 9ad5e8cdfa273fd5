// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels:
//
//   - channel: web, whatsapp or ops (health, metrics, docs)
//   - method:  HTTP method verb
//   - path:    the registered Gin route; "unmatched" when no route matched,
//     so probes cannot inflate cardinality
//   - status:  numeric status code as a string
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "relay"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"channel", "method", "path", "status"},
	)

	// A chat turn waits for the model, so buckets reach past LLM_TIMEOUT.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		},
		[]string{"channel", "method", "path"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_inflight",
			Help:      "Current number of in-flight HTTP requests.",
		},
		[]string{"channel"},
	)

	// Chat logs grow with the session; webhook replies stay small.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_response_size_bytes",
			Help:      "Size of HTTP responses in bytes.",
			Buckets:   prometheus.ExponentialBuckets(128, 4, 8), // 128B..2MiB
		},
		[]string{"channel", "method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize)
}

// channelOf classifies a request path for the channel label.
func channelOf(path string) string {
	switch {
	case strings.HasPrefix(path, "/webhook/"):
		return "whatsapp"
	case path == "/" || path == "/chat" || path == "/get_chat_history":
		return "web"
	default:
		return "ops"
	}
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
// The /metrics route itself is exposed by the router.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		channel := channelOf(c.Request.URL.Path)
		inflight := httpInflight.WithLabelValues(channel)
		inflight.Inc()
		defer inflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())
		size := c.Writer.Size() // -1 when unknown

		httpReqs.WithLabelValues(channel, method, path, status).Inc()
		httpLat.WithLabelValues(channel, method, path).Observe(dur)
		if size >= 0 {
			httpRespSize.WithLabelValues(channel, method, path).Observe(float64(size))
		}
	}
}
