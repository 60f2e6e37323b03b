package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/metrics"
)

// DefaultPoolSize is the number of concurrent embedding lookups per extractor.
const DefaultPoolSize = 16

// VectorSource resolves text to an embedding. embedcache.Cache implements it.
type VectorSource interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
}

// Extractor builds feature vectors for (query, product) pairs. Lexical and
// metadata features are computed inline; product embeddings are fetched
// concurrently on a bounded worker pool.
type Extractor struct {
	vectors VectorSource
	params  BM25Params
	pool    *ants.Pool
	logger  *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithBM25Params overrides k1 and b.
func WithBM25Params(params BM25Params) Option {
	return func(e *Extractor) error {
		if params.K1 < 0 || params.B < 0 || params.B > 1 ||
			math.IsNaN(params.K1) || math.IsNaN(params.B) || math.IsInf(params.K1, 0) {
			return fmt.Errorf("%w: k1=%v b=%v", ErrInvalidParams, params.K1, params.B)
		}
		e.params = params
		return nil
	}
}

// WithPoolSize sets the worker pool size for the embedding fan-out.
// Default is DefaultPoolSize, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Extractor) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewExtractor creates an extractor. vectors may be nil, in which case every
// semantic feature is 0.
func NewExtractor(vectors VectorSource, opts ...Option) (*Extractor, error) {
	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}
	e := &Extractor{
		vectors: vectors,
		params:  DefaultBM25Params(),
		pool:    pool,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Close()
			return nil, optErr
		}
	}
	e.logger = e.logger.With("component", "feature-extractor")
	return e, nil
}

// Params returns the BM25 parameters in use.
func (e *Extractor) Params() BM25Params {
	return e.params
}

// Close releases the worker pool. The extractor must not be used afterwards.
func (e *Extractor) Close() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// Extract computes one feature vector per product for a single query.
// The average document length is taken over products. The query embedding
// is fetched once; if it fails, every semantic feature is 0.
//
// Results are index-aligned with products. Extract waits for every
// embedding lookup before returning and returns ctx.Err() instead of partial
// results when ctx ends first.
func (e *Extractor) Extract(ctx context.Context, query string, products []core.Product) ([]core.FeatureVector, error) {
	features := make([]core.FeatureVector, len(products))
	if len(products) == 0 {
		return features, nil
	}

	normalized := core.NormalizeQuery(query)
	terms := QueryTerms(normalized)
	avg := AverageDocLength(products)
	for i := range products {
		features[i] = e.lexical(normalized, terms, &products[i], avg)
	}

	queryVec := e.queryEmbedding(ctx, normalized)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if queryVec == nil {
		metrics.SemanticFallbacksTotal.Add(float64(len(products)))
		return features, nil
	}

	err := e.fanOut(len(products), func(i int) {
		features[i].Semantic = e.semantic(ctx, queryVec, &products[i])
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return features, nil
}

// Pair is one (query, product) combination to featurize.
type Pair struct {
	Query   string
	Product core.Product
}

// ExtractPairs computes features for pairs that may carry different queries,
// as training does. avgDocLength is supplied by the caller so every pair is
// normalized against the same document set.
func (e *Extractor) ExtractPairs(ctx context.Context, pairs []Pair, avgDocLength float64) ([]core.FeatureVector, error) {
	features := make([]core.FeatureVector, len(pairs))
	for i := range pairs {
		normalized := core.NormalizeQuery(pairs[i].Query)
		features[i] = e.lexical(normalized, QueryTerms(normalized), &pairs[i].Product, avgDocLength)
	}
	if e.vectors == nil || len(pairs) == 0 {
		return features, nil
	}

	err := e.fanOut(len(pairs), func(i int) {
		queryVec := e.queryEmbedding(ctx, core.NormalizeQuery(pairs[i].Query))
		if queryVec == nil {
			return
		}
		features[i].Semantic = e.semantic(ctx, queryVec, &pairs[i].Product)
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return features, nil
}

func (e *Extractor) lexical(normalized string, terms []string, p *core.Product, avg float64) core.FeatureVector {
	fields := ScoreFields(terms, p, avg, e.params)
	title, category := ExactMatch(normalized, p)
	return core.FeatureVector{
		ExactTitleMatch:    title,
		ExactCategoryMatch: category,
		TitleBM25:          fields.Title,
		DescriptionBM25:    fields.Description,
		CategoryBM25:       fields.Category,
		Rating:             p.Rating,
		Reviews:            float64(p.Reviews),
		Organic:            p.IsOrganic,
		Local:              p.IsLocal,
		Seasonal:           p.IsSeasonal,
	}
}

func (e *Extractor) queryEmbedding(ctx context.Context, normalized string) []float32 {
	if e.vectors == nil || normalized == "" {
		return nil
	}
	vec, err := e.vectors.Embedding(ctx, normalized)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			e.logger.Warn("query embedding unavailable, scoring without semantic signal", "err", err)
		}
		return nil
	}
	return vec
}

func (e *Extractor) semantic(ctx context.Context, queryVec []float32, p *core.Product) float64 {
	vec, err := e.vectors.Embedding(ctx, p.EmbeddingText())
	if err != nil {
		metrics.SemanticFallbacksTotal.Inc()
		if !errors.Is(err, context.Canceled) {
			e.logger.Debug("product embedding unavailable", "product", p.ID, "err", err)
		}
		return 0
	}
	return CosineSimilarity(queryVec, vec)
}

// fanOut runs task(0..n-1) on the pool and waits for all of them.
// If the pool rejects a task it runs inline so no index is skipped.
func (e *Extractor) fanOut(n int, task func(i int)) error {
	if e.pool.IsClosed() {
		return ErrExtractorClosed
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		run := func() {
			defer wg.Done()
			task(i)
		}
		if err := e.pool.Submit(run); err != nil {
			e.logger.Debug("pool rejected task, running inline", "err", err)
			run()
		}
	}
	wg.Wait()
	return nil
}
