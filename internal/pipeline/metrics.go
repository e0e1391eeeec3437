package pipeline

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the retrieval pipeline.
type Metrics struct {
	DocumentsIngested prometheus.Counter
	ChunksIndexed     prometheus.Counter
	IngestDuration    prometheus.Histogram
	Retrievals        prometheus.Counter
	RetrieveDuration  prometheus.Histogram
}

// NewMetrics creates and registers the pipeline metrics, once globally.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			DocumentsIngested: promauto.NewCounter(prometheus.CounterOpts{
				Name: "medragd_documents_ingested_total",
				Help: "Total documents successfully ingested",
			}),
			ChunksIndexed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "medragd_chunks_indexed_total",
				Help: "Total chunks inserted into the vector index",
			}),
			IngestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "medragd_ingest_duration_seconds",
				Help:    "Duration of document ingestion (chunk + embed + index)",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			}),
			Retrievals: promauto.NewCounter(prometheus.CounterOpts{
				Name: "medragd_retrievals_total",
				Help: "Total retrieval queries served",
			}),
			RetrieveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "medragd_retrieve_duration_seconds",
				Help:    "Duration of query retrieval (embed + search)",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			}),
		}
	})
	return globalMetrics
}

// RecordIngest records one successful ingestion.
func (m *Metrics) RecordIngest(chunks int, duration time.Duration) {
	m.DocumentsIngested.Inc()
	m.ChunksIndexed.Add(float64(chunks))
	m.IngestDuration.Observe(duration.Seconds())
}

// RecordRetrieve records one retrieval.
func (m *Metrics) RecordRetrieve(_ int, duration time.Duration) {
	m.Retrievals.Inc()
	m.RetrieveDuration.Observe(duration.Seconds())
}
