// Package embedcache memoizes text embeddings in front of an embedding provider.
//
// Lookups are keyed by the exact input text. A miss goes to an optional
// persistent tier and then to the provider; concurrent misses for the same
// text share one provider call. Provider errors and timeouts are returned
// wrapped in ErrProviderFailure and are never cached, so a later call retries.
package embedcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/prodrank/ai"
	"github.com/poiesic/prodrank/metrics"
	"github.com/poiesic/prodrank/storage"
	"golang.org/x/sync/singleflight"
)

// Cache is a concurrency-safe text to vector cache. Returned vectors are
// shared between callers and must not be modified.
type Cache struct {
	embedder      ai.Embedder
	repo          storage.EmbeddingRepository
	memory        memoryTier
	flights       singleflight.Group
	maxEntries    int64
	unbounded     bool
	timeout       time.Duration
	warmBatchSize int
	logger        *slog.Logger
}

// New creates a cache in front of embedder.
// By default the memory tier is bounded to DefaultMaxEntries.
func New(embedder ai.Embedder, opts ...Option) (*Cache, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	c := &Cache{
		embedder:      embedder,
		maxEntries:    DefaultMaxEntries,
		timeout:       DefaultTimeout,
		warmBatchSize: DefaultWarmBatchSize,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "embedding-cache")

	if c.unbounded {
		c.memory = newMapTier()
	} else {
		tier, err := newBoundedTier(c.maxEntries)
		if err != nil {
			return nil, err
		}
		c.memory = tier
	}
	return c, nil
}

// Embedding returns the vector for text, calling the provider on a miss.
//
// If ctx is canceled while waiting on a shared provider call, Embedding
// returns ctx.Err(); the provider call itself runs to its own timeout and its
// result is still cached for later callers.
func (c *Cache) Embedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if vec, ok := c.memory.get(text); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("memory", "hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("memory", "miss").Inc()

	flight := c.flights.DoChan(text, func() (any, error) {
		return c.load(ctx, text)
	})
	select {
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]float32), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load resolves one miss. It runs once per in-flight text.
func (c *Cache) load(ctx context.Context, text string) ([]float32, error) {
	// A flight for this text may have finished between our miss and now.
	if vec, ok := c.memory.get(text); ok {
		return vec, nil
	}

	if vec, ok := c.loadPersistent(ctx, text); ok {
		c.memory.set(text, vec)
		return vec, nil
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()
	vec, err := c.embedder.EmbedText(callCtx, text)
	metrics.EmbeddingRequestDuration.Observe(time.Since(start).Seconds())
	if err == nil && len(vec) == 0 {
		err = ai.ErrEmptyEmbedding
	}
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.EmbeddingRequestsTotal.WithLabelValues(status).Inc()
		c.logger.Warn("embedding provider failed", "status", status, "length", len(text), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues("success").Inc()

	vec = slices.Clone(vec)
	c.store(ctx, text, vec)
	return vec, nil
}

func (c *Cache) loadPersistent(ctx context.Context, text string) ([]float32, bool) {
	if c.repo == nil {
		return nil, false
	}
	vec, err := c.repo.GetEmbedding(context.WithoutCancel(ctx), text)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			metrics.PersistenceFailuresTotal.WithLabelValues("embeddings", "load").Inc()
			c.logger.Warn("failed to read persisted embedding", "err", err)
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("persistent", "miss").Inc()
		return nil, false
	}
	if len(vec) == 0 {
		return nil, false
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("persistent", "hit").Inc()
	return vec, true
}

// store writes a fresh vector to both tiers. A persistent write failure only
// costs a future provider call, so it is logged and dropped.
func (c *Cache) store(ctx context.Context, text string, vec []float32) {
	c.memory.set(text, vec)
	if c.repo == nil {
		return
	}
	if err := c.repo.PutEmbedding(context.WithoutCancel(ctx), text, vec); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("embeddings", "save").Inc()
		c.logger.Warn("failed to persist embedding", "err", err)
	}
}

// Contains reports whether text is in the memory tier.
func (c *Cache) Contains(text string) bool {
	_, ok := c.memory.get(text)
	return ok
}

// Close releases the memory tier. The persistent tier belongs to the caller.
func (c *Cache) Close() {
	c.memory.close()
}
