package weights

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/metrics"
	"github.com/poiesic/prodrank/storage"
	badgerstore "github.com/poiesic/prodrank/storage/badger"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRepo is a WeightRepository whose calls can be made to fail.
type flakyRepo struct {
	mu        sync.Mutex
	stored    *core.ModelWeights
	loadErr   error
	saveErr   error
	saveFails int // number of leading SaveWeights calls that fail
	saves     int
}

func (r *flakyRepo) LoadWeights(_ context.Context) (*core.ModelWeights, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.stored, nil
}

func (r *flakyRepo) SaveWeights(_ context.Context, w core.ModelWeights) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil && (r.saveFails == 0 || r.saves <= r.saveFails) {
		return r.saveErr
	}
	r.stored = &w
	return nil
}

func (r *flakyRepo) DeleteWeights(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = nil
	return nil
}

func (r *flakyRepo) Close() error { return nil }

func newMemoryStore(t *testing.T) (*Store, *badgerstore.Repositories) {
	t.Helper()
	repos, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	s, err := NewStore(repos.Weights, WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	return s, repos
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(nil)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultModelWeights(), s.Current())

	_, err = NewStore(nil, WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, storage.ErrInvalidMaxAttempts)

	s, err = NewStore(nil, WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, s.logger)
}

func TestLoad_AbsentUsesDefaults(t *testing.T) {
	s, _ := newMemoryStore(t)
	assert.Equal(t, core.DefaultModelWeights(), s.Load(context.Background()))
	assert.Equal(t, core.DefaultModelWeights(), s.Current())
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, repos := newMemoryStore(t)

	w := core.ModelWeights{ExactMatchWeight: 2.75, BM25Weight: 1.125, SemanticWeight: 3.5, PopularityWeight: 0.42, RecencyWeight: 0.9}
	require.NoError(t, s.Save(ctx, w))
	assert.Equal(t, w, s.Current())

	// A fresh store over the same repository sees the saved weights.
	other, err := NewStore(repos.Weights)
	require.NoError(t, err)
	assert.Equal(t, w, other.Load(ctx))
}

func TestLoad_FailureFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name string
		repo *flakyRepo
	}{
		{"read error", &flakyRepo{loadErr: errors.New("io error")}},
		{"corrupt record", &flakyRepo{loadErr: storage.ErrSerializationFailed}},
		{"invalid record", &flakyRepo{stored: &core.ModelWeights{ExactMatchWeight: math.NaN(), BM25Weight: 1, SemanticWeight: 1, PopularityWeight: 1, RecencyWeight: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStore(tt.repo)
			require.NoError(t, err)

			// Leave non-default weights in memory so the fallback is visible.
			s.current = core.ModelWeights{ExactMatchWeight: 9, BM25Weight: 9, SemanticWeight: 9, PopularityWeight: 9, RecencyWeight: 9}

			before := testutil.ToFloat64(metrics.PersistenceFailuresTotal.WithLabelValues("weights", "load"))
			got := s.Load(context.Background())
			assert.Equal(t, core.DefaultModelWeights(), got)
			assert.Equal(t, core.DefaultModelWeights(), s.Current())
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.PersistenceFailuresTotal.WithLabelValues("weights", "load")))
		})
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	s, err := NewStore(nil)
	require.NoError(t, err)

	for _, bad := range []float64{math.NaN(), math.Inf(1), -1} {
		w := core.DefaultModelWeights()
		w.SemanticWeight = bad
		err := s.Save(context.Background(), w)
		assert.ErrorIs(t, err, core.ErrInvalidWeights)
		assert.Equal(t, core.DefaultModelWeights(), s.Current())
	}
}

func TestSet_ClampsToFloor(t *testing.T) {
	s, _ := newMemoryStore(t)

	got, err := s.Set(context.Background(), core.ModelWeights{ExactMatchWeight: 0, BM25Weight: 0.05, SemanticWeight: 4, PopularityWeight: 0.1, RecencyWeight: 0.2})
	require.NoError(t, err)
	assert.Equal(t, core.ModelWeights{ExactMatchWeight: 0.1, BM25Weight: 0.1, SemanticWeight: 4, PopularityWeight: 0.1, RecencyWeight: 0.2}, got)
	assert.Equal(t, got, s.Load(context.Background()))
}

func TestSave_RetriesThenSucceeds(t *testing.T) {
	repo := &flakyRepo{saveErr: errors.New("conflict"), saveFails: 2}
	s, err := NewStore(repo, WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	w := core.ModelWeights{ExactMatchWeight: 1, BM25Weight: 2, SemanticWeight: 3, PopularityWeight: 4, RecencyWeight: 5}
	require.NoError(t, s.Save(context.Background(), w))
	assert.Equal(t, 3, repo.saves)
	require.NotNil(t, repo.stored)
	assert.Equal(t, w, *repo.stored)
}

func TestSave_PersistFailureKeepsMemoryUpdate(t *testing.T) {
	repo := &flakyRepo{saveErr: errors.New("disk full")}
	s, err := NewStore(repo, WithRetry(2, time.Millisecond))
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.PersistenceFailuresTotal.WithLabelValues("weights", "save"))
	w := core.ModelWeights{ExactMatchWeight: 1, BM25Weight: 2, SemanticWeight: 3, PopularityWeight: 4, RecencyWeight: 5}
	err = s.Save(context.Background(), w)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.Equal(t, w, s.Current())
	assert.Equal(t, 2, repo.saves)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PersistenceFailuresTotal.WithLabelValues("weights", "save")))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s, repos := newMemoryStore(t)

	require.NoError(t, s.Save(ctx, core.ModelWeights{ExactMatchWeight: 7, BM25Weight: 7, SemanticWeight: 7, PopularityWeight: 7, RecencyWeight: 7}))
	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, core.DefaultModelWeights(), s.Current())

	persisted, err := repos.Weights.LoadWeights(ctx)
	require.NoError(t, err)
	assert.Nil(t, persisted)

	// Resetting twice is fine.
	require.NoError(t, s.Reset(ctx))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s, err := NewStore(nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), core.ModelWeights{ExactMatchWeight: 1, BM25Weight: 1, SemanticWeight: 1, PopularityWeight: 1, RecencyWeight: 1}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			v := 1 + float64(i)
			_ = s.Save(context.Background(), core.ModelWeights{ExactMatchWeight: v, BM25Weight: v, SemanticWeight: v, PopularityWeight: v, RecencyWeight: v})
		}(i)
		go func() {
			defer wg.Done()
			w := s.Current()
			// Every read sees a whole record, never a mix of two writes.
			assert.Equal(t, w.ExactMatchWeight, w.RecencyWeight)
		}()
	}
	wg.Wait()
}
