package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	StoreRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docstore", Name: "store_requests_total", Help: "Store operations by operation and outcome."},
		[]string{"op", "outcome"},
	)
	BulkQueued = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docstore", Name: "bulk_queued_total", Help: "Writes deferred into a client bulk queue."},
	)
	BulkFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docstore", Name: "bulk_flush_total", Help: "Client bulk queue flushes by outcome."},
		[]string{"outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docstore", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docstore", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(StoreRequests)
	reg.MustRegister(BulkQueued)
	reg.MustRegister(BulkFlushes)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
