// metrics.go — Prometheus метрики запросов к backend:
// hs_backend_requests_total, hs_backend_request_duration_seconds.
package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// backendRequestsTotal — количество запросов к backend по ресурсу, операции и исходу.
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hs_backend_requests_total",
			Help: "Общее количество запросов к backend контента",
		},
		[]string{"resource", "operation", "outcome"},
	)

	// backendRequestDuration — длительность запросов к backend.
	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hs_backend_request_duration_seconds",
			Help:    "Длительность запросов к backend контента в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "operation"},
	)
)

// Исходы запроса в метриках.
const (
	outcomeOK      = "ok"
	outcomeNetwork = "network_error"
	outcomeServer  = "server_error"
)

func outcomeOf(err error) string {
	switch KindOf(err) {
	case "":
		if err != nil {
			return outcomeServer
		}
		return outcomeOK
	case KindNetwork:
		return outcomeNetwork
	default:
		return outcomeServer
	}
}
