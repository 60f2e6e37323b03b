package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg), "second registration is a no-op")

	RankRequestsTotal.WithLabelValues("ranked").Inc()
	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["prodrank_rank_requests_total"])
}

func TestRegister_Conflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	clash := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "semantic_fallbacks_total",
		Help:      "different help text",
	})
	require.NoError(t, reg.Register(clash))

	assert.Error(t, Register(reg))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(EmbeddingCacheTotal.WithLabelValues("memory", "hit"))
	EmbeddingCacheTotal.WithLabelValues("memory", "hit").Inc()
	after := testutil.ToFloat64(EmbeddingCacheTotal.WithLabelValues("memory", "hit"))

	assert.Equal(t, before+1, after)
}
