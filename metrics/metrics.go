// Package metrics holds the Prometheus instrumentation for ranking, the
// embedding cache and training. Collectors are package-level so every
// component records into the same series; Register exposes them on a registry.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "prodrank"

// Ranking metrics.
var (
	RankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_requests_total",
			Help:      "Total number of rank calls",
		},
		[]string{"outcome"}, // "ranked" / "passthrough" / "canceled" / "error"
	)

	RankDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_duration_seconds",
			Help:      "Rank call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	RankCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rank_candidates",
			Help:      "Number of candidates per rank call",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	SemanticFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "semantic_fallbacks_total",
			Help:      "Candidates scored without a semantic signal",
		},
	)
)

// Embedding metrics.
var (
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"tier", "result"}, // tier "memory" / "persistent"; result "hit" / "miss"
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding provider calls",
		},
		[]string{"status"}, // "success" / "error" / "timeout"
	)

	EmbeddingRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding provider call duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Training and persistence metrics.
var (
	TrainingRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Total number of training runs",
		},
		[]string{"outcome"}, // "success" / "error"
	)

	TrainingLoss = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_mean_loss",
			Help:      "Mean squared loss after the last training epoch",
		},
	)

	TrainingSkippedExamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_skipped_examples_total",
			Help:      "Training examples skipped for referencing unknown products",
		},
	)

	PersistenceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed reads and writes against the persistent store",
		},
		[]string{"store", "op"}, // store "weights" / "examples" / "embeddings"; op "load" / "save" / "delete"
	)
)

// Collectors returns every collector in this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		RankRequestsTotal,
		RankDuration,
		RankCandidates,
		SemanticFallbacksTotal,
		EmbeddingCacheTotal,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		TrainingRunsTotal,
		TrainingLoss,
		TrainingSkippedExamplesTotal,
		PersistenceFailuresTotal,
	}
}

// Register registers every collector with reg. Collectors already registered
// on reg are left alone, so calling Register twice is safe.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
