package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// APILatency tracks per-endpoint request latency for the analysis API.
	APILatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "manifold_api_latency_seconds",
		Help:    "Latency of analysis API handlers.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// APIErrors counts handler errors per endpoint.
	APIErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "manifold_api_errors_total",
		Help: "Errors returned by analysis API handlers.",
	}, []string{"endpoint"})
)

// Register installs the API collectors on the default registry. Safe to call
// more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors)
	})
}
