package knowledge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	indexOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plotcraft_rag_index_operations_total",
			Help: "Vector index writes by document type, operation and outcome",
		},
		[]string{"type", "operation", "status"},
	)

	retrievals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plotcraft_rag_retrievals_total",
			Help: "Retrievals by outcome",
		},
		[]string{"status"}, // ok, empty, unscoped, error
	)

	retrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plotcraft_rag_retrieval_duration_seconds",
			Help:    "Duration of retrievals including the query embedding",
			Buckets: prometheus.DefBuckets,
		},
	)

	generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plotcraft_rag_generations_total",
			Help: "Generation calls by task and outcome",
		},
		[]string{"task", "status"}, // ok, unconfigured, error
	)

	embeddingCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plotcraft_rag_embedding_cache_total",
			Help: "Embedding cache lookups by result",
		},
		[]string{"result"},
	)
)

func recordIndex(docType DocumentType, operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	indexOperations.WithLabelValues(string(docType), operation, status).Inc()
}

func recordRetrieval(status string, started time.Time) {
	retrievals.WithLabelValues(status).Inc()
	retrievalDuration.Observe(time.Since(started).Seconds())
}

func recordGeneration(task Task, status string) {
	generations.WithLabelValues(string(task), status).Inc()
}

func recordCacheResult(result string) {
	embeddingCache.WithLabelValues(result).Inc()
}
