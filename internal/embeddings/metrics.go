package embeddings

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

// Metrics holds Prometheus metrics for embedding generation.
type Metrics struct {
	Duration  *prometheus.HistogramVec
	BatchSize prometheus.Histogram
	Errors    *prometheus.CounterVec
}

// NewMetrics creates and registers the embedding metrics.
//
// Registration happens once globally via sync.Once, preventing duplicate
// collector registration panics when multiple providers are constructed.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			Duration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "medragd_embedding_generation_duration_seconds",
					Help:    "Duration of embedding generation by operation (embed_documents, embed_query)",
					Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
				[]string{"operation"},
			),
			BatchSize: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "medragd_embedding_batch_size",
					Help:    "Number of texts per embedding batch call",
					Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
				},
			),
			Errors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "medragd_embedding_errors_total",
					Help: "Total embedding generation errors by operation, including model load failures",
				},
				[]string{"operation"},
			),
		}
	})
	return globalMetrics
}

// RecordGeneration records one embedding call.
func (m *Metrics) RecordGeneration(operation string, duration time.Duration, batchSize int, err error) {
	m.Duration.WithLabelValues(operation).Observe(duration.Seconds())
	if batchSize > 0 {
		m.BatchSize.Observe(float64(batchSize))
	}
	if err != nil {
		m.Errors.WithLabelValues(operation).Inc()
	}
}
