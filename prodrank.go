// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package prodrank wires the ranking engine together: persistent storage,
// the embedding provider and cache, feature extraction, ranking, weights and
// training.
package prodrank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/prodrank/ai"
	"github.com/poiesic/prodrank/ai/goopenai"
	"github.com/poiesic/prodrank/ai/openai"
	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/embedcache"
	"github.com/poiesic/prodrank/metrics"
	"github.com/poiesic/prodrank/scoring"
	"github.com/poiesic/prodrank/search"
	"github.com/poiesic/prodrank/storage/badger"
	"github.com/poiesic/prodrank/training"
	"github.com/poiesic/prodrank/weights"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine owns every long-lived component of a ranking process. Build one
// per process (or per test) with NewEngine and Close it when done.
type Engine struct {
	repos     *badger.Repositories
	provider  ai.AIProvider
	cache     *embedcache.Cache
	extractor *scoring.Extractor
	weights   *weights.Store
	dataset   *training.Dataset
	ranker    *search.Ranker
	trainer   *training.Trainer
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig          *ai.Config
	provider          ai.AIProvider
	inMemory          bool
	poolSize          int
	cacheSize         int64
	unboundedCache    bool
	persistEmbeddings bool
	bm25              scoring.BM25Params
	progress          io.Writer
	registerer        prometheus.Registerer
	logger            *slog.Logger
}

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a ready-made provider, bypassing WithAIConfig.
// The engine closes it on Close.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all state in memory; the path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithPoolSize sets the number of concurrent embedding lookups.
func WithPoolSize(size int) EngineOption {
	return func(o *engineOptions) {
		o.poolSize = size
	}
}

// WithCacheSize bounds the in-memory embedding cache to n entries.
func WithCacheSize(n int64) EngineOption {
	return func(o *engineOptions) {
		o.cacheSize = n
	}
}

// WithUnboundedCache keeps every embedding in memory for the engine's lifetime.
func WithUnboundedCache() EngineOption {
	return func(o *engineOptions) {
		o.unboundedCache = true
	}
}

// WithPersistentEmbeddings stores embeddings in the database so they survive
// restarts. Default is true.
func WithPersistentEmbeddings(enabled bool) EngineOption {
	return func(o *engineOptions) {
		o.persistEmbeddings = enabled
	}
}

// WithBM25Params overrides the BM25 k1 and b parameters.
func WithBM25Params(params scoring.BM25Params) EngineOption {
	return func(o *engineOptions) {
		o.bm25 = params
	}
}

// WithTrainingProgress writes per-epoch training progress to w.
func WithTrainingProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithMetricsRegisterer registers the ranking, cache and training collectors
// on reg when the engine is built.
func WithMetricsRegisterer(reg prometheus.Registerer) EngineOption {
	return func(o *engineOptions) {
		o.registerer = reg
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewProvider builds the provider named by config.Backend.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Backend {
	case ai.BackendOpenAI:
		return goopenai.NewProvider(config)
	case ai.BackendDisabled:
		return ai.NewDisabledProvider(), nil
	default:
		return openai.NewProvider(config)
	}
}

// NewEngine opens the database at path and builds every component on it.
// Persisted weights and training examples are loaded; absent or unreadable
// records fall back to defaults.
func NewEngine(path string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:          ai.DefaultConfig(),
		poolSize:          scoring.DefaultPoolSize,
		cacheSize:         embedcache.DefaultMaxEntries,
		persistEmbeddings: true,
		bm25:              scoring.DefaultBM25Params(),
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.aiConfig == nil {
		options.aiConfig = ai.DefaultConfig()
	}

	e := &Engine{logger: options.logger.With("component", "engine")}
	if err := e.open(path, options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) open(path string, options *engineOptions) error {
	var err error
	if options.registerer != nil {
		if err := metrics.Register(options.registerer); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}

	e.repos, err = badger.OpenRepositories(path, options.inMemory)
	if err != nil {
		return err
	}

	e.provider = options.provider
	if e.provider == nil {
		e.provider, err = NewProvider(options.aiConfig)
		if err != nil {
			return err
		}
	}

	// A disabled backend skips the cache so ranking never waits on lookups
	// that cannot succeed.
	var vectors scoring.VectorSource
	if options.provider != nil || options.aiConfig.Backend != ai.BackendDisabled {
		cacheOpts := []embedcache.Option{
			embedcache.WithTimeout(options.aiConfig.Timeout),
			embedcache.WithLogger(options.logger),
		}
		if options.unboundedCache {
			cacheOpts = append(cacheOpts, embedcache.WithUnbounded())
		} else {
			cacheOpts = append(cacheOpts, embedcache.WithMaxEntries(options.cacheSize))
		}
		if options.persistEmbeddings {
			cacheOpts = append(cacheOpts, embedcache.WithRepository(e.repos.Embeddings))
		}
		e.cache, err = embedcache.New(e.provider.Embedder(), cacheOpts...)
		if err != nil {
			return err
		}
		vectors = e.cache
	}

	e.extractor, err = scoring.NewExtractor(vectors,
		scoring.WithBM25Params(options.bm25),
		scoring.WithPoolSize(options.poolSize),
		scoring.WithLogger(options.logger),
	)
	if err != nil {
		return err
	}

	e.weights, err = weights.NewStore(e.repos.Weights, weights.WithLogger(options.logger))
	if err != nil {
		return err
	}
	e.dataset, err = training.NewDataset(e.repos.Examples, training.WithDatasetLogger(options.logger))
	if err != nil {
		return err
	}

	ctx := context.Background()
	e.weights.Load(ctx)
	loaded := e.dataset.Load(ctx)

	e.ranker, err = search.NewRanker(e.extractor, e.weights, search.WithLogger(options.logger))
	if err != nil {
		return err
	}
	e.trainer, err = training.NewTrainer(e.extractor, e.weights,
		training.WithLogger(options.logger),
		training.WithProgress(options.progress),
	)
	if err != nil {
		return err
	}

	e.logger.Debug("engine ready", "path", path, "inMemory", options.inMemory, "examples", loaded)
	return nil
}

// Close releases every component. It is safe to call on a partially built
// engine.
func (e *Engine) Close() error {
	var errs []error
	if e.extractor != nil {
		e.extractor.Close()
	}
	if e.cache != nil {
		e.cache.Close()
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if e.repos != nil {
		if err := e.repos.Close(); err != nil {
			e.logger.Error("error closing storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Rank returns products reordered by descending relevance to query.
func (e *Engine) Rank(ctx context.Context, query string, products []core.Product) ([]core.Product, error) {
	return e.ranker.Rank(ctx, query, products)
}

// Score ranks products and returns each one's score breakdown.
func (e *Engine) Score(ctx context.Context, query string, products []core.Product) ([]core.RankedProduct, error) {
	return e.ranker.Score(ctx, query, products)
}

// Ranker returns the engine's ranker.
func (e *Engine) Ranker() *search.Ranker {
	return e.ranker
}

// Train fits the weights to examples and persists the result.
func (e *Engine) Train(ctx context.Context, examples []core.TrainingExample, products []core.Product, learningRate float64, epochs int) (core.ModelWeights, error) {
	return e.trainer.Train(ctx, examples, products, learningRate, epochs)
}

// TrainDataset fits the weights to the stored training examples.
func (e *Engine) TrainDataset(ctx context.Context, products []core.Product, learningRate float64, epochs int) (*training.Report, error) {
	return e.trainer.TrainWithReport(ctx, e.dataset.Examples(), products, learningRate, epochs)
}

// Weights returns the weights currently used for ranking.
func (e *Engine) Weights() core.ModelWeights {
	return e.weights.Current()
}

// SetWeights replaces the weights manually. Values below the floor are raised to it.
func (e *Engine) SetWeights(ctx context.Context, w core.ModelWeights) (core.ModelWeights, error) {
	return e.weights.Set(ctx, w)
}

// ResetWeights restores the default weights.
func (e *Engine) ResetWeights(ctx context.Context) error {
	return e.weights.Reset(ctx)
}

// Dataset returns the stored training example collection.
func (e *Engine) Dataset() *training.Dataset {
	return e.dataset
}

// WarmCache embeds every product ahead of ranking. It returns the number of
// newly cached embeddings; with embeddings disabled it does nothing.
func (e *Engine) WarmCache(ctx context.Context, products []core.Product) (int, error) {
	if e.cache == nil {
		return 0, nil
	}
	texts := make([]string, len(products))
	for i := range products {
		texts[i] = products[i].EmbeddingText()
	}
	n, err := e.cache.Warm(ctx, texts)
	if err != nil {
		return n, fmt.Errorf("warm embedding cache: %w", err)
	}
	return n, nil
}
