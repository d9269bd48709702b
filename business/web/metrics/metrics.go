// Package metrics provides the Prometheus collectors used across the node:
// HTTP request counters, and gauges for the consensus-core components that
// don't otherwise have a natural place to report their size.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Requests counts handled HTTP requests by route and status code.
var Requests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "node_requests_total",
	Help: "Total number of HTTP requests handled by the node.",
}, []string{"route", "status"})

// Panics counts the number of panics recovered from handlers.
var Panics = promauto.NewCounter(prometheus.CounterOpts{
	Name: "node_request_panics_total",
	Help: "Total number of panics recovered while handling HTTP requests.",
})

// ServiceNodes reports the current number of entries in the service-node
// registry.
var ServiceNodes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "node_service_nodes",
	Help: "Current number of service nodes in the registry.",
})

// QuorumCacheSize reports the number of cached quorum snapshots currently
// retained.
var QuorumCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "node_quorum_cache_size",
	Help: "Current number of quorum snapshots retained in the cache.",
})

// MempoolCount reports the current number of pending transactions.
var MempoolCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "node_mempool_transactions",
	Help: "Current number of transactions held in the mempool.",
})

// MempoolWeight reports the current summed weight of pending transactions.
var MempoolWeight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "node_mempool_weight_bytes",
	Help: "Current summed weight of transactions held in the mempool.",
})

// AdmissionRejections counts mempool admission rejections by reason.
var AdmissionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "node_mempool_admission_rejections_total",
	Help: "Total number of transactions rejected from the mempool by reason.",
}, []string{"reason"})
