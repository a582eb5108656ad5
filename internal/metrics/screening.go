package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Screening and retrieval Prometheus metrics.
var (
	SourceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screener",
			Name:      "source_requests_total",
			Help:      "Source adapter invocations by outcome status",
		},
		[]string{"source", "status"}, // ok / error / not_configured
	)

	SourceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "screener",
			Name:      "source_request_duration_seconds",
			Help:      "Source adapter wall-clock time across all of its terms",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"source"},
	)

	SourceRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screener",
			Name:      "source_records_total",
			Help:      "Records returned by source adapters before deduplication",
		},
		[]string{"source"},
	)

	EnrichmentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screener",
			Name:      "enrichment_total",
			Help:      "Classifier passes by result",
		},
		[]string{"result"}, // applied / skipped / fallback
	)

	ScreeningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screener",
			Name:      "screenings_total",
			Help:      "Completed screenings by risk level",
		},
		[]string{"risk_level"},
	)

	NamespaceQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "screener",
			Name:      "namespace_queries_total",
			Help:      "Retrieval namespace queries by status",
		},
		[]string{"namespace", "status"}, // ok / error
	)
)

var registerScreeningOnce sync.Once

// RegisterScreeningMetrics registers screening and retrieval metrics. Safe to call more than once.
func RegisterScreeningMetrics() {
	registerScreeningOnce.Do(func() {
		prometheus.MustRegister(
			SourceRequestsTotal,
			SourceRequestDuration,
			SourceRecordsTotal,
			EnrichmentTotal,
			ScreeningsTotal,
			NamespaceQueriesTotal,
		)
	})
}
