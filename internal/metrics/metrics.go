package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tikgrab_updates_total",
		Help: "Inbound chat events by type",
	}, []string{"type"})

	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tikgrab_rate_limit_hits_total",
		Help: "Total rate limit rejections",
	})

	UpstreamCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tikgrab_upstream_calls_total",
		Help: "Resolution API calls by endpoint and result",
	}, []string{"endpoint", "result"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tikgrab_upstream_duration_seconds",
		Help:    "Resolution API call duration in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
	}, []string{"endpoint"})

	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tikgrab_deliveries_total",
		Help: "Asset deliveries by media kind and result",
	}, []string{"kind", "result"})
)
