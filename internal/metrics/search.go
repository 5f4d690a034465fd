package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agendex",
			Name:      "search_requests_total",
			Help:      "Total number of agenda searches",
		},
		[]string{"outcome"}, // "ok" / "rejected" / "error"
	)

	SearchChunksFetched = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agendex",
			Name:      "search_chunks_fetched",
			Help:      "Chunk hits fetched per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		},
	)

	SearchAnalyzerFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "agendex",
			Name:      "search_analyzer_fallback_total",
			Help:      "Searches that fell back to the empty hint after analyzer failure",
		},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agendex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agendex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agendex",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchChunksFetched)
	prometheus.MustRegister(SearchAnalyzerFallbackTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	searchMetricsRegistered = true
}
