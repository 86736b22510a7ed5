package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentease",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentease",
			Name:      "store_operations_total",
			Help:      "Record store operations by collection and operation.",
		},
		[]string{"collection", "op"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, storeOps)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncStoreOp increments the store operation counter.
func IncStoreOp(collection, op string) {
	storeOps.WithLabelValues(collection, op).Inc()
}
