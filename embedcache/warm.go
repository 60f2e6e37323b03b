package embedcache

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/prodrank/ai"
	"github.com/poiesic/prodrank/metrics"
)

// Warm makes sure every text in texts is cached, so later ranking calls are
// served from memory. Texts already cached in either tier cost nothing.
// Missing texts go to the provider in batches when it implements
// ai.BatchEmbedder, one at a time otherwise.
//
// Warm returns the number of texts it fetched from the provider. It stops at
// the first failed request and returns the count so far with the error.
func (c *Cache) Warm(ctx context.Context, texts []string) (int, error) {
	var missing []string
	seen := make(map[string]struct{}, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		if c.Contains(text) {
			continue
		}
		if vec, ok := c.loadPersistent(ctx, text); ok {
			c.memory.set(text, vec)
			continue
		}
		missing = append(missing, text)
	}
	if len(missing) == 0 {
		return 0, nil
	}

	batcher, ok := c.embedder.(ai.BatchEmbedder)
	if !ok {
		fetched := 0
		for _, text := range missing {
			if _, err := c.Embedding(ctx, text); err != nil {
				return fetched, err
			}
			fetched++
		}
		return fetched, nil
	}

	fetched := 0
	for batch := range slices.Chunk(missing, c.warmBatchSize) {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}
		n, err := c.warmBatch(ctx, batcher, batch)
		fetched += n
		if err != nil {
			return fetched, err
		}
	}
	c.logger.Debug("cache warmed", "requested", len(texts), "fetched", fetched)
	return fetched, nil
}

func (c *Cache) warmBatch(ctx context.Context, batcher ai.BatchEmbedder, batch []string) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	vectors, err := batcher.EmbedTexts(callCtx, batch)
	metrics.EmbeddingRequestDuration.Observe(time.Since(start).Seconds())
	if err == nil && len(vectors) != len(batch) {
		err = fmt.Errorf("%w: got %d vectors for %d texts", ai.ErrEmptyEmbedding, len(vectors), len(batch))
	}
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("batch embedding failed", "count", len(batch), "err", err)
		return 0, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues("success").Inc()

	stored := 0
	for i, vec := range vectors {
		if len(vec) == 0 {
			continue
		}
		c.store(ctx, batch[i], slices.Clone(vec))
		stored++
	}
	return stored, nil
}
