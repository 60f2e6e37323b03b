package training

import (
	"math"

	"github.com/poiesic/prodrank/core"
)

// Predict returns the trainer's linear prediction for one feature vector.
// It uses the exact title flag, title BM25, semantic similarity, raw rating
// and the summed business-rule flags; the other features carry no weight.
func Predict(w core.ModelWeights, f core.FeatureVector) float64 {
	v := f.Values()
	return v[0]*w.ExactMatchWeight +
		v[2]*w.BM25Weight +
		v[5]*w.SemanticWeight +
		v[6]*w.PopularityWeight +
		(v[8]+v[9]+v[10])*w.RecencyWeight
}

// Loss is the squared error of the prediction against target.
func Loss(w core.ModelWeights, f core.FeatureVector, target float64) float64 {
	d := Predict(w, f) - target
	return d * d
}

// Step applies one gradient-descent update for a single example and clamps
// the result to the weight floor.
func Step(w core.ModelWeights, f core.FeatureVector, target, learningRate float64) core.ModelWeights {
	v := f.Values()
	g := 2 * (Predict(w, f) - target) * learningRate

	w.ExactMatchWeight -= g * v[0]
	w.BM25Weight -= g * v[2]
	w.SemanticWeight -= g * v[5]
	w.PopularityWeight -= g * v[6]
	w.RecencyWeight -= g * (v[8] + v[9] + v[10])
	return w.Clamp()
}

// MeanLoss averages Loss over features and their targets.
// Returns 0 for no examples.
func MeanLoss(w core.ModelWeights, features []core.FeatureVector, targets []float64) float64 {
	if len(features) == 0 {
		return 0
	}
	var total float64
	for i := range features {
		total += Loss(w, features[i], targets[i])
	}
	return total / float64(len(features))
}

func finite(w core.ModelWeights) bool {
	for _, v := range []float64{w.ExactMatchWeight, w.BM25Weight, w.SemanticWeight, w.PopularityWeight, w.RecencyWeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
