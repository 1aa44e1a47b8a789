package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes recorded in storefront_search_requests_total.
const (
	outcomeOK      = "ok"
	outcomeNoMatch = "no_match"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// Metrics holds the search and indexing collectors.
type Metrics struct {
	SearchRequests *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec
	IndexFailures  *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg leaves them
// unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SearchRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_search_requests_total",
			Help: "Search requests by resolved mode and outcome.",
		}, []string{"mode", "outcome"}),
		SearchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_search_duration_seconds",
			Help:    "Search latency by resolved mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		IndexFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_index_failures_total",
			Help: "Search index writes that failed and were left for a later sync.",
		}, []string{"op"}),
	}
}
