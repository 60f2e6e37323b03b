package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/prodrank/ai/mock"
	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/embedcache"
	"github.com/poiesic/prodrank/metrics"
	"github.com/poiesic/prodrank/scoring"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticWeights struct {
	w core.ModelWeights
}

func (s staticWeights) Current() core.ModelWeights { return s.w }

// offlineVectors fails every lookup, leaving ranking lexical-only.
type offlineVectors struct{}

func (offlineVectors) Embedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("provider offline")
}

func newTestRanker(t *testing.T, vectors scoring.VectorSource, w core.ModelWeights) *Ranker {
	t.Helper()
	extractor, err := scoring.NewExtractor(vectors, scoring.WithPoolSize(4))
	require.NoError(t, err)
	t.Cleanup(extractor.Close)

	r, err := NewRanker(extractor, staticWeights{w: w})
	require.NoError(t, err)
	return r
}

func sampleProducts() []core.Product {
	return []core.Product{
		{ID: 1, Name: "Garden Hose", Category: "Garden Supplies", Description: "Fifty foot hose", Rating: 4.5, Reviews: 120},
		{ID: 2, Name: "Organic Heirloom Tomatoes", Category: "Vegetables", Description: "Sweet tomato varieties", Rating: 4.5, Reviews: 120, IsOrganic: true},
		{ID: 3, Name: "Fresh Basil", Category: "Herbs", Description: "Fragrant basil bunch", Rating: 4.8, Reviews: 89, IsOrganic: true, IsLocal: true},
		{ID: 4, Name: "Local Honey", Category: "Pantry", Description: "Raw wildflower honey", Rating: 4.9, Reviews: 210, IsLocal: true},
		{ID: 5, Name: "Pumpkin Spice Latte Mix", Category: "Beverages", Rating: 3.9, Reviews: 45, IsSeasonal: true},
	}
}

func productIDs(products []core.Product) []int64 {
	ids := make([]int64, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	return ids
}

func TestNewRanker(t *testing.T) {
	extractor, err := scoring.NewExtractor(nil)
	require.NoError(t, err)
	defer extractor.Close()

	t.Run("nil extractor", func(t *testing.T) {
		_, err := NewRanker(nil, staticWeights{})
		assert.ErrorIs(t, err, ErrExtractorRequired)
	})

	t.Run("nil weights", func(t *testing.T) {
		_, err := NewRanker(extractor, nil)
		assert.ErrorIs(t, err, ErrWeightsRequired)
	})

	t.Run("option error", func(t *testing.T) {
		bad := func(*Ranker) error { return errors.New("bad option") }
		_, err := NewRanker(extractor, staticWeights{}, bad)
		assert.Error(t, err)
	})

	t.Run("nil logger falls back", func(t *testing.T) {
		r, err := NewRanker(extractor, staticWeights{}, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, r.logger)
	})
}

func TestRank_EmptyQueryIsPassthrough(t *testing.T) {
	r := newTestRanker(t, offlineVectors{}, core.DefaultModelWeights())
	products := sampleProducts()

	for _, query := range []string{"", "   ", "\t\n"} {
		before := testutil.ToFloat64(metrics.RankRequestsTotal.WithLabelValues("passthrough"))

		got, err := r.Rank(context.Background(), query, products)
		require.NoError(t, err)
		assert.Equal(t, products, got)

		after := testutil.ToFloat64(metrics.RankRequestsTotal.WithLabelValues("passthrough"))
		assert.Equal(t, before+1, after)
	}
}

func TestRank_EmptyCandidates(t *testing.T) {
	r := newTestRanker(t, offlineVectors{}, core.DefaultModelWeights())

	got, err := r.Rank(context.Background(), "tomato", nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = r.Rank(context.Background(), "tomato", []core.Product{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRank_TomatoAheadOfHose(t *testing.T) {
	r := newTestRanker(t, offlineVectors{}, core.DefaultModelWeights())
	products := []core.Product{
		{ID: 1, Name: "Garden Hose", Category: "Garden Supplies", Rating: 4.5, Reviews: 120},
		{ID: 2, Name: "Organic Heirloom Tomatoes", Category: "Vegetables", Rating: 4.5, Reviews: 120, IsOrganic: true},
	}

	scored, err := r.Score(context.Background(), "organic tomato", products)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Equal(t, int64(2), scored[0].Product.ID)
	assert.Greater(t, scored[0].Score.Final, scored[1].Score.Final)
	assert.Greater(t, scored[0].Score.BM25, 0.0)
	assert.Zero(t, scored[1].Score.BM25)
}

func TestRank_ExactTitleBonus(t *testing.T) {
	r := newTestRanker(t, offlineVectors{}, core.DefaultModelWeights())
	products := []core.Product{
		{ID: 1, Name: "Basil Seeds", Category: "Garden Supplies"},
		{ID: 2, Name: "Fresh Basil", Category: "Herbs"},
	}

	scored, err := r.Score(context.Background(), "Fresh Basil", products)
	require.NoError(t, err)

	assert.Equal(t, int64(2), scored[0].Product.ID)
	assert.Equal(t, core.ExactTitleBonus, scored[0].Score.ExactMatch)
	assert.Zero(t, scored[1].Score.ExactMatch)
}

func TestRank_IsPermutation(t *testing.T) {
	r := newTestRanker(t, offlineVectors{}, core.DefaultModelWeights())
	products := sampleProducts()

	for _, query := range []string{"organic", "honey", "fresh basil", "garden hose", "nothing matches"} {
		t.Run(query, func(t *testing.T) {
			got, err := r.Rank(context.Background(), query, products)
			require.NoError(t, err)
			assert.Len(t, got, len(products))
			assert.ElementsMatch(t, products, got)
		})
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	r := newTestRanker(t, offlineVectors{}, core.DefaultModelWeights())
	products := sampleProducts()
	want := productIDs(products)

	_, err := r.Rank(context.Background(), "honey", products)
	require.NoError(t, err)
	assert.Equal(t, want, productIDs(products))
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	r := newTestRanker(t, offlineVectors{}, core.DefaultModelWeights())
	products := []core.Product{
		{ID: 7, Name: "Apple", Category: "Fruit", Rating: 4, Reviews: 10},
		{ID: 3, Name: "Apple", Category: "Fruit", Rating: 4, Reviews: 10},
		{ID: 9, Name: "Apple", Category: "Fruit", Rating: 4, Reviews: 10},
	}

	got, err := r.Rank(context.Background(), "kale", products)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 3, 9}, productIDs(got))
}

func TestRank_OrderFollowsWeights(t *testing.T) {
	products := []core.Product{
		{ID: 1, Name: "Local Honey", Category: "Pantry", Rating: 5, Reviews: 1000},
		{ID: 2, Name: "Fresh Basil", Category: "Herbs", Rating: 1, Reviews: 0},
	}

	popular := core.ModelWeights{ExactMatchWeight: 0.1, BM25Weight: 0.1, SemanticWeight: 0.1, PopularityWeight: 10, RecencyWeight: 0.1}
	r := newTestRanker(t, offlineVectors{}, popular)
	got, err := r.Rank(context.Background(), "basil", products)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, productIDs(got))

	lexical := core.ModelWeights{ExactMatchWeight: 50, BM25Weight: 50, SemanticWeight: 0.1, PopularityWeight: 0.1, RecencyWeight: 0.1}
	r = newTestRanker(t, offlineVectors{}, lexical)
	got, err = r.Rank(context.Background(), "basil", products)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, productIDs(got))
}

func TestScore_Breakdown(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(_ context.Context, text string) ([]float32, error) {
		if strings.Contains(strings.ToLower(text), "basil") {
			return []float32{1, 0}, nil
		}
		return []float32{0, 1}, nil
	})
	cache, err := embedcache.New(embedder, embedcache.WithUnbounded())
	require.NoError(t, err)
	defer cache.Close()

	w := core.DefaultModelWeights()
	r := newTestRanker(t, cache, w)

	scored, err := r.Score(context.Background(), "basil", sampleProducts())
	require.NoError(t, err)
	require.Len(t, scored, 5)

	for i, rp := range scored {
		assert.InDelta(t, w.Combine(rp.Features), rp.Score.Final, 1e-9)
		assert.InDelta(t, rp.Features.PopularityScore(), rp.Score.Popularity, 1e-9)
		assert.InDelta(t, rp.Features.BusinessRuleScore(), rp.Score.BusinessRules, 1e-9)
		if i > 0 {
			assert.GreaterOrEqual(t, scored[i-1].Score.Final, rp.Score.Final)
		}
	}

	assert.Equal(t, int64(3), scored[0].Product.ID)
	assert.InDelta(t, 100.0, scored[0].Score.Semantic, 1e-6)
	for _, rp := range scored[1:] {
		assert.InDelta(t, 0.0, rp.Score.Semantic, 1e-6)
	}

	// The query embedding is requested once per call.
	assert.Equal(t, 1, embedder.TextCallCount("basil"))
}

func TestRank_ProviderFailureFallsBackToLexical(t *testing.T) {
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(_ context.Context, _ string) ([]float32, error) {
		return nil, errors.New("connection refused")
	})
	cache, err := embedcache.New(embedder)
	require.NoError(t, err)
	defer cache.Close()

	r := newTestRanker(t, cache, core.DefaultModelWeights())
	scored, err := r.Score(context.Background(), "honey", sampleProducts())
	require.NoError(t, err)
	require.Len(t, scored, 5)

	assert.Equal(t, int64(4), scored[0].Product.ID)
	for _, rp := range scored {
		assert.Zero(t, rp.Features.Semantic)
	}
}

func TestRank_CanceledContext(t *testing.T) {
	r := newTestRanker(t, offlineVectors{}, core.DefaultModelWeights())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := testutil.ToFloat64(metrics.RankRequestsTotal.WithLabelValues("canceled"))
	_, err := r.Rank(ctx, "honey", sampleProducts())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RankRequestsTotal.WithLabelValues("canceled")))
}

type recordingMonitor struct {
	calls    []string
	query    string
	count    int
	features int
	weights  core.ModelWeights
	results  []core.RankedProduct
}

func (m *recordingMonitor) Start(query string, candidates int) {
	m.calls = append(m.calls, "start")
	m.query = query
	m.count = candidates
}

func (m *recordingMonitor) AfterFeatureExtraction(features []core.FeatureVector) {
	m.calls = append(m.calls, "features")
	m.features = len(features)
}

func (m *recordingMonitor) AfterScoring(w core.ModelWeights, _ []core.RankedProduct) {
	m.calls = append(m.calls, "scoring")
	m.weights = w
}

func (m *recordingMonitor) Finish(results []core.RankedProduct) {
	m.calls = append(m.calls, "finish")
	m.results = results
}

func TestRankWithMonitor(t *testing.T) {
	w := core.DefaultModelWeights()
	r := newTestRanker(t, offlineVectors{}, w)

	t.Run("full ranking", func(t *testing.T) {
		monitor := &recordingMonitor{}
		results, err := r.RankWithMonitor(context.Background(), "honey", sampleProducts(), monitor)
		require.NoError(t, err)

		assert.Equal(t, []string{"start", "features", "scoring", "finish"}, monitor.calls)
		assert.Equal(t, "honey", monitor.query)
		assert.Equal(t, 5, monitor.count)
		assert.Equal(t, 5, monitor.features)
		assert.Equal(t, w, monitor.weights)
		assert.Equal(t, results, monitor.results)
	})

	t.Run("passthrough skips scoring hooks", func(t *testing.T) {
		monitor := &recordingMonitor{}
		_, err := r.RankWithMonitor(context.Background(), "", sampleProducts(), monitor)
		require.NoError(t, err)
		assert.Equal(t, []string{"start", "finish"}, monitor.calls)
	})
}
