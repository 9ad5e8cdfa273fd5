package llm

import "github.com/prometheus/client_golang/prometheus"

var (
	// llmReqs counts completion calls by provider and outcome (ok, error, timeout).
	llmReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of completion requests.",
		},
		[]string{"provider", "status"},
	)

	// llmLat records completion latency; model calls are slow, so buckets go up to two minutes.
	llmLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of completion requests in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider"},
	)

	llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Tokens consumed by completion requests.",
		},
		[]string{"provider", "direction"},
	)
)

func init() {
	prometheus.MustRegister(llmReqs, llmLat, llmTokens)
}
