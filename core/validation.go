// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"math"
)

// ValidateProduct validates a Product according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Rating must be within 0-5
//   - Reviews must not be negative
//
// NOT validated:
//   - Description and Category (optional, treated as empty fields)
//   - ID uniqueness (the caller owns the candidate set)
func ValidateProduct(p *Product) error {
	if p == nil {
		return fmt.Errorf("%w: product is nil", ErrInvalidProduct)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: product %d has no name", ErrInvalidProduct, p.ID)
	}
	if math.IsNaN(p.Rating) || p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("%w: product %d rating %v outside 0-5", ErrInvalidProduct, p.ID, p.Rating)
	}
	if p.Reviews < 0 {
		return fmt.Errorf("%w: product %d has negative review count", ErrInvalidProduct, p.ID)
	}
	return nil
}

// ValidateTrainingExample validates a TrainingExample according to domain rules.
//
// Validation rules:
//   - Query must not be empty after trimming
//   - ClickPosition, when present, must not be negative
//
// ProductID is not checked against a catalog here; unknown references are
// skipped during training.
func ValidateTrainingExample(e *TrainingExample) error {
	if e == nil {
		return fmt.Errorf("%w: example is nil", ErrInvalidTrainingExample)
	}
	if NormalizeQuery(e.Query) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTrainingExample, ErrEmptyQuery)
	}
	if e.ClickPosition != nil && *e.ClickPosition < 0 {
		return fmt.Errorf("%w: click position %d is negative", ErrInvalidTrainingExample, *e.ClickPosition)
	}
	return nil
}

// ValidateModelWeights checks that every weight is finite and non-negative.
// Values below WeightFloor are accepted; callers clamp them.
func ValidateModelWeights(w ModelWeights) error {
	values := []struct {
		name string
		v    float64
	}{
		{"exactMatchWeight", w.ExactMatchWeight},
		{"bm25Weight", w.BM25Weight},
		{"semanticWeight", w.SemanticWeight},
		{"popularityWeight", w.PopularityWeight},
		{"recencyWeight", w.RecencyWeight},
	}
	for _, f := range values {
		name, v := f.name, f.v
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidWeights, name)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidWeights, name)
		}
	}
	return nil
}

// MaxEmbeddingDimensions bounds the vector length accepted from storage.
const MaxEmbeddingDimensions = 1 << 16

// ValidateVectorLength rejects decoded vector lengths above
// MaxEmbeddingDimensions before anything is allocated for them.
func ValidateVectorLength(length int) error {
	if length > MaxEmbeddingDimensions {
		return fmt.Errorf("%w: %d dimensions", ErrVectorTooLarge, length)
	}
	return nil
}
