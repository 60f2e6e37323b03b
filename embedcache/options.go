package embedcache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/prodrank/storage"
)

const (
	// DefaultMaxEntries bounds the in-memory tier.
	DefaultMaxEntries = 10_000
	// DefaultTimeout bounds one provider call.
	DefaultTimeout = 5 * time.Second
	// DefaultWarmBatchSize is the number of texts per batch request during Warm.
	DefaultWarmBatchSize = 32
)

// Option configures a Cache.
type Option func(*Cache) error

// WithMaxEntries bounds the in-memory tier to roughly n vectors.
// Least valuable entries are evicted once full.
func WithMaxEntries(n int64) Option {
	return func(c *Cache) error {
		if n <= 0 {
			return fmt.Errorf("%w: max entries must be positive, got %d", ErrInvalidOption, n)
		}
		c.maxEntries = n
		c.unbounded = false
		return nil
	}
}

// WithUnbounded keeps every vector for the life of the cache. Entries are
// never evicted, which keeps provider call counts exact in tests.
func WithUnbounded() Option {
	return func(c *Cache) error {
		c.unbounded = true
		return nil
	}
}

// WithTimeout bounds each provider call. A timeout counts as a provider failure.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) error {
		if d <= 0 {
			return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidOption, d)
		}
		c.timeout = d
		return nil
	}
}

// WithRepository adds a persistent tier consulted after a memory miss and
// written after every successful provider call.
func WithRepository(repo storage.EmbeddingRepository) Option {
	return func(c *Cache) error {
		c.repo = repo
		return nil
	}
}

// WithWarmBatchSize sets how many texts Warm sends per batch request.
func WithWarmBatchSize(n int) Option {
	return func(c *Cache) error {
		if n <= 0 {
			return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidOption, n)
		}
		c.warmBatchSize = n
		return nil
	}
}

// WithLogger sets the logger. Nil selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}
