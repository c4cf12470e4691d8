package delivery

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ecdisk",
		Subsystem: "diskd",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of streaming requests by handler and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"handler", "code", "method"})

	rpcConnections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ecdisk",
		Subsystem: "diskd",
		Name:      "rpc_connections_total",
		Help:      "Accepted control channel connections.",
	})

	rpcConnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ecdisk",
		Subsystem: "diskd",
		Name:      "rpc_connection_duration_seconds",
		Help:      "Lifetime of served control channel connections.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})
)

// instrument wraps a streaming handler with a duration histogram.
func instrument(name string, h http.HandlerFunc) http.Handler {
	return promhttp.InstrumentHandlerDuration(
		httpRequestDuration.MustCurryWith(prometheus.Labels{"handler": name}), h)
}
