// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_queries_total",
			Help: "Total number of queries processed, by outcome",
		},
		[]string{"outcome"},
	)

	QueriesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_queries_failed_total",
			Help: "Total number of failed queries, by error code",
		},
		[]string{"error_code"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chatbot_query_duration_seconds",
			Help: "Duration of query processing in seconds",
		},
		[]string{"outcome"},
	)

	CollaboratorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_collaborator_calls_total",
			Help: "Calls to external collaborators, by collaborator and result",
		},
		[]string{"collaborator", "result"},
	)
)
