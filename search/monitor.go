package search

import (
	"github.com/poiesic/prodrank/core"
)

// RankMonitor provides hooks to observe a ranking call.
// Implement this interface to inspect features and scores before sorting.
type RankMonitor interface {
	Start(query string, candidates int)
	AfterFeatureExtraction(features []core.FeatureVector)
	AfterScoring(weights core.ModelWeights, scored []core.RankedProduct)
	Finish(results []core.RankedProduct)
}

// noopMonitor is a no-op implementation of RankMonitor
type noopMonitor struct{}

var _ RankMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                                    {}
func (n *noopMonitor) AfterFeatureExtraction(_ []core.FeatureVector)            {}
func (n *noopMonitor) AfterScoring(_ core.ModelWeights, _ []core.RankedProduct) {}
func (n *noopMonitor) Finish(_ []core.RankedProduct)                            {}
