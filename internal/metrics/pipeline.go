package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and query pipeline metrics.
var (
	IngestFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_files_total",
			Help:      "Uploaded files by kind and outcome",
		},
		[]string{"kind", "status"}, // status: "ok" / "skipped" / "error"
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_chunks_total",
			Help:      "Chunks written by ingestion",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Wall time of one upload request",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Wall time of one question answering request",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	QueryChunksEmbedded = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_chunks_embedded",
			Help:      "Chunks embedded per query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers ingestion and query metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestFilesTotal)
	prometheus.MustRegister(IngestChunksTotal)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryChunksEmbedded)
	pipelineMetricsRegistered = true
}
