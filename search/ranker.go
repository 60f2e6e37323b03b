package search

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/metrics"
	"github.com/poiesic/prodrank/scoring"
)

// WeightSource supplies the model weights for a ranking call.
// weights.Store implements it.
type WeightSource interface {
	Current() core.ModelWeights
}

// Ranker orders candidate products by their combined relevance score.
type Ranker struct {
	extractor *scoring.Extractor
	weights   WeightSource
	logger    *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a new ranker.
func NewRanker(extractor *scoring.Extractor, weights WeightSource, opts ...Option) (*Ranker, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if weights == nil {
		return nil, ErrWeightsRequired
	}

	r := &Ranker{
		extractor: extractor,
		weights:   weights,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "ranker")

	return r, nil
}

// Rank returns products reordered by descending score. The result is a new
// slice; products is not modified. An empty query returns the products in
// their original order.
func (r *Ranker) Rank(ctx context.Context, query string, products []core.Product) ([]core.Product, error) {
	ranked, err := r.RankWithMonitor(ctx, query, products, nil)
	if err != nil {
		return nil, err
	}
	out := make([]core.Product, len(ranked))
	for i := range ranked {
		out[i] = ranked[i].Product
	}
	return out, nil
}

// Score ranks products like Rank and also returns each product's features
// and score breakdown.
func (r *Ranker) Score(ctx context.Context, query string, products []core.Product) ([]core.RankedProduct, error) {
	return r.RankWithMonitor(ctx, query, products, nil)
}

// RankWithMonitor ranks products with monitoring.
// The monitor receives callbacks at each stage of the ranking call.
//
// For an empty query no scoring is performed: every RankedProduct carries a
// zero breakdown and the input order is kept. Otherwise the weights are read
// once, so a concurrent weight update never mixes into a single call.
func (r *Ranker) RankWithMonitor(ctx context.Context, query string, products []core.Product, monitor RankMonitor) ([]core.RankedProduct, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query, len(products))
	start := time.Now()

	if len(products) == 0 || core.NormalizeQuery(query) == "" {
		results := make([]core.RankedProduct, len(products))
		for i := range products {
			results[i] = core.RankedProduct{Product: products[i]}
		}
		metrics.RankRequestsTotal.WithLabelValues("passthrough").Inc()
		monitor.Finish(results)
		return results, nil
	}

	features, err := r.extractor.Extract(ctx, query, products)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "canceled"
		} else {
			r.logger.Error("error extracting features", "query", query, "candidates", len(products), "err", err)
		}
		metrics.RankRequestsTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}
	monitor.AfterFeatureExtraction(features)

	w := r.weights.Current()
	results := make([]core.RankedProduct, len(products))
	for i := range products {
		results[i] = core.RankedProduct{
			Product:  products[i],
			Features: features[i],
			Score:    breakdown(w, features[i]),
		}
	}
	monitor.AfterScoring(w, results)

	slices.SortStableFunc(results, func(a, b core.RankedProduct) int {
		return cmp.Compare(b.Score.Final, a.Score.Final)
	})

	elapsed := time.Since(start)
	metrics.RankRequestsTotal.WithLabelValues("ranked").Inc()
	metrics.RankDuration.Observe(elapsed.Seconds())
	metrics.RankCandidates.Observe(float64(len(products)))
	r.logger.Debug("ranked candidates", "query", query, "candidates", len(products), "elapsed", elapsed)

	monitor.Finish(results)
	return results, nil
}

func breakdown(w core.ModelWeights, f core.FeatureVector) core.ScoreBreakdown {
	return core.ScoreBreakdown{
		ExactMatch:    f.ExactMatchScore(),
		BM25:          f.BM25Total(),
		Semantic:      f.Semantic * 100,
		Popularity:    f.PopularityScore(),
		BusinessRules: f.BusinessRuleScore(),
		Final:         w.Combine(f),
	}
}
