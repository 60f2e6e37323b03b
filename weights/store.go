// Package weights holds the model weights used by ranking and training.
package weights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/metrics"
	"github.com/poiesic/prodrank/storage"
)

// Store is the process-wide holder of the current ModelWeights.
// Reads never touch the repository; writes update memory first and then persist.
// A nil repository makes the store memory-only.
type Store struct {
	repo          storage.WeightRepository
	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger

	mu      sync.RWMutex
	current core.ModelWeights
}

// Option configures a Store.
type Option func(*Store) error

// WithRetry sets the retry policy for persistence writes.
// Defaults are storage.DefaultRetryAttempts and storage.DefaultRetryDelay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(s *Store) error {
		if attempts < 1 {
			return fmt.Errorf("%w: got %d", storage.ErrInvalidMaxAttempts, attempts)
		}
		s.retryAttempts = attempts
		s.retryDelay = delay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a store holding the default weights. Call Load to pick
// up persisted weights.
func NewStore(repo storage.WeightRepository, opts ...Option) (*Store, error) {
	s := &Store{
		repo:          repo,
		retryAttempts: storage.DefaultRetryAttempts,
		retryDelay:    storage.DefaultRetryDelay,
		logger:        slog.Default(),
		current:       core.DefaultModelWeights(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "weight-store")
	return s, nil
}

// Load reads the persisted weights and makes them current. Absent, corrupt
// or invalid records, and read failures, all fall back to the defaults.
// Load never fails; it returns the weights now in effect.
func (s *Store) Load(ctx context.Context) core.ModelWeights {
	w := s.loadPersisted(ctx)
	s.mu.Lock()
	s.current = w
	s.mu.Unlock()
	return w
}

func (s *Store) loadPersisted(ctx context.Context) core.ModelWeights {
	if s.repo == nil {
		return core.DefaultModelWeights()
	}

	persisted, err := s.repo.LoadWeights(ctx)
	if err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("weights", "load").Inc()
		s.logger.Warn("could not load persisted weights, using defaults", "err", err)
		return core.DefaultModelWeights()
	}
	if persisted == nil {
		s.logger.Debug("no persisted weights, using defaults")
		return core.DefaultModelWeights()
	}
	if err := core.ValidateModelWeights(*persisted); err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("weights", "load").Inc()
		s.logger.Warn("persisted weights are invalid, using defaults", "err", err)
		return core.DefaultModelWeights()
	}
	return persisted.Clamp()
}

// Current returns the weights in effect.
func (s *Store) Current() core.ModelWeights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save validates w, clamps it to the weight floor, makes it current and
// persists it. Invalid weights are rejected with core.ErrInvalidWeights and
// leave the store unchanged. A failed write is logged and returned wrapped in
// ErrPersistFailed; the in-memory weights stay updated.
func (s *Store) Save(ctx context.Context, w core.ModelWeights) error {
	if err := core.ValidateModelWeights(w); err != nil {
		return err
	}
	w = w.Clamp()

	s.mu.Lock()
	s.current = w
	s.mu.Unlock()

	if s.repo == nil {
		return nil
	}
	err := storage.RetryWithBackoff(ctx, func() error {
		return s.repo.SaveWeights(ctx, w)
	}, s.retryAttempts, s.retryDelay)
	if err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("weights", "save").Inc()
		s.logger.Warn("could not persist weights", "err", err)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

// Set is the manual edit path: it saves w and returns the weights now in
// effect, which differ from w when a value was raised to the floor.
func (s *Store) Set(ctx context.Context, w core.ModelWeights) (core.ModelWeights, error) {
	err := s.Save(ctx, w)
	return s.Current(), err
}

// Reset restores the default weights and removes the persisted record.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.current = core.DefaultModelWeights()
	s.mu.Unlock()

	if s.repo == nil {
		return nil
	}
	err := storage.RetryWithBackoff(ctx, func() error {
		return s.repo.DeleteWeights(ctx)
	}, s.retryAttempts, s.retryDelay)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		metrics.PersistenceFailuresTotal.WithLabelValues("weights", "delete").Inc()
		s.logger.Warn("could not remove persisted weights", "err", err)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}
