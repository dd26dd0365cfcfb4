package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "candidex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "candidex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "candidex",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "candidex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	JudgeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "candidex",
			Name:      "judge_requests_total",
			Help:      "Total number of LLM judge evaluations",
		},
		[]string{"backend", "model", "status"}, // status: success / parse_error / error
	)

	JudgeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "candidex",
			Name:      "judge_request_duration_seconds",
			Help:      "LLM judge request duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"backend", "model"},
	)

	DocumentsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "candidex",
			Name:      "documents_ingested_total",
			Help:      "Documents processed by the ingestion pipeline",
		},
		[]string{"status"}, // indexed / skipped_empty / failed
	)
)

var registered bool

// Register registers pipeline metrics with the default registry.
// Must be called once from main (no init side effects).
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(JudgeRequestsTotal)
	prometheus.MustRegister(JudgeRequestDuration)
	prometheus.MustRegister(DocumentsIngestedTotal)
	registered = true
}
