package downstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weekstats",
			Name:      "upstream_requests_total",
			Help:      "Upstream HTTP calls by endpoint and status code (\"error\" for transport failures).",
		},
		[]string{"endpoint", "status"},
	)

	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "weekstats",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream HTTP call latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)
)
