package core

//go:generate go run ../cmd/musgen

import (
	"strings"
)

// Product is a candidate document supplied by the catalog layer.
// It is read-only for the duration of a ranking or training call.
//
// Field defaults when the catalog omits a value:
//   - Description: "" (treated as an empty field, never an error)
//   - Rating, Reviews: 0
//   - IsOrganic, IsLocal, IsSeasonal: false
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`  // 0-5
	Reviews     int     `json:"reviews"` // non-negative count
	IsOrganic   bool    `json:"isOrganic"`
	IsLocal     bool    `json:"isLocal"`
	IsSeasonal  bool    `json:"isSeasonal"`
}

// EmbeddingText returns the text embedded for semantic similarity:
// name, category and description joined by single spaces.
func (p *Product) EmbeddingText() string {
	return p.Name + " " + p.Category + " " + p.Description
}

// NormalizeQuery trims surrounding whitespace and case-folds a query.
// An empty result means the query carries no search intent.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// FeatureVector holds the signals extracted for one (query, product) pair.
// BM25 fields already carry their field weights (title x2.5, category x1.5,
// description x1.0).
type FeatureVector struct {
	ExactTitleMatch    bool
	ExactCategoryMatch bool
	TitleBM25          float64
	DescriptionBM25    float64
	CategoryBM25       float64
	Semantic           float64 // cosine similarity; 0 when unavailable
	Rating             float64
	Reviews            float64
	Organic            bool
	Local              bool
	Seasonal           bool
}

// Exact match bonuses applied by ExactMatchScore.
const (
	ExactTitleBonus    = 10.0
	ExactCategoryBonus = 5.0
)

// ExactMatchScore returns the exact-match bonus: 10 for a title hit plus 5 for a category hit.
func (f FeatureVector) ExactMatchScore() float64 {
	var score float64
	if f.ExactTitleMatch {
		score += ExactTitleBonus
	}
	if f.ExactCategoryMatch {
		score += ExactCategoryBonus
	}
	return score
}

// BM25Total returns the summed, field-weighted lexical relevance.
func (f FeatureVector) BM25Total() float64 {
	return f.TitleBM25 + f.DescriptionBM25 + f.CategoryBM25
}

// PopularityScore returns rating*20 + reviews*0.1.
func (f FeatureVector) PopularityScore() float64 {
	return f.Rating*20 + f.Reviews*0.1
}

// BusinessRuleScore returns 5 for organic, 3 for local and 2 for seasonal products, summed.
func (f FeatureVector) BusinessRuleScore() float64 {
	var score float64
	if f.Organic {
		score += 5
	}
	if f.Local {
		score += 3
	}
	if f.Seasonal {
		score += 2
	}
	return score
}

// Values returns the features in training order:
// exactTitle, exactCategory, titleBM25, descriptionBM25, categoryBM25,
// semantic, rating, reviews, organic, local, seasonal.
// Boolean features are encoded as 0 or 1.
func (f FeatureVector) Values() []float64 {
	return []float64{
		boolToFloat(f.ExactTitleMatch),
		boolToFloat(f.ExactCategoryMatch),
		f.TitleBM25,
		f.DescriptionBM25,
		f.CategoryBM25,
		f.Semantic,
		f.Rating,
		f.Reviews,
		boolToFloat(f.Organic),
		boolToFloat(f.Local),
		boolToFloat(f.Seasonal),
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// WeightFloor is the smallest value any model weight may take.
const WeightFloor = 0.1

// ModelWeights scales each signal group in the final score.
// RecencyWeight multiplies the business-rule signal.
type ModelWeights struct {
	ExactMatchWeight float64 `json:"exactMatchWeight"`
	BM25Weight       float64 `json:"bm25Weight"`
	SemanticWeight   float64 `json:"semanticWeight"`
	PopularityWeight float64 `json:"popularityWeight"`
	RecencyWeight    float64 `json:"recencyWeight"`
}

// DefaultModelWeights returns the hardcoded weights used before any training.
func DefaultModelWeights() ModelWeights {
	return ModelWeights{
		ExactMatchWeight: 3.0,
		BM25Weight:       2.0,
		SemanticWeight:   2.5,
		PopularityWeight: 1.0,
		RecencyWeight:    0.5,
	}
}

// Clamp returns a copy with every weight raised to at least WeightFloor.
func (w ModelWeights) Clamp() ModelWeights {
	w.ExactMatchWeight = max(w.ExactMatchWeight, WeightFloor)
	w.BM25Weight = max(w.BM25Weight, WeightFloor)
	w.SemanticWeight = max(w.SemanticWeight, WeightFloor)
	w.PopularityWeight = max(w.PopularityWeight, WeightFloor)
	w.RecencyWeight = max(w.RecencyWeight, WeightFloor)
	return w
}

// Combine fuses a feature vector into the final ranking score.
func (w ModelWeights) Combine(f FeatureVector) float64 {
	return f.ExactMatchScore()*w.ExactMatchWeight +
		f.BM25Total()*w.BM25Weight +
		f.Semantic*100*w.SemanticWeight +
		f.PopularityScore()*w.PopularityWeight +
		f.BusinessRuleScore()*w.RecencyWeight
}

// TrainingExample labels a product as relevant or not for a query.
// ProductID references a Product; it is not owned by the example.
type TrainingExample struct {
	Query         string `json:"query"`
	ProductID     int64  `json:"productId"`
	IsRelevant    bool   `json:"isRelevant"`
	ClickPosition *int   `json:"clickPosition,omitempty"`
}

// Target returns the regression target: 1 for relevant examples, 0 otherwise.
func (e *TrainingExample) Target() float64 {
	return boolToFloat(e.IsRelevant)
}

// EmbeddingRecord is the stored form of a cached embedding. The text is kept
// alongside the vector so lookups by hashed key can confirm an exact match.
type EmbeddingRecord struct {
	Text   string
	Vector []float32
}

// ScoreBreakdown records every signal that went into a final score.
type ScoreBreakdown struct {
	ExactMatch    float64
	BM25          float64
	Semantic      float64 // similarity scaled x100
	Popularity    float64
	BusinessRules float64
	Final         float64
}

// RankedProduct is a product with its final score and breakdown.
type RankedProduct struct {
	Product  Product
	Features FeatureVector
	Score    ScoreBreakdown
}
