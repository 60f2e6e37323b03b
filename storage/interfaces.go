package storage

import (
	"context"

	"github.com/poiesic/prodrank/core"
)

// Repository provides operations shared by every repository.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases the repository. The backend stays open.
	Close() error
}

// WeightRepository persists the single current ModelWeights record.
type WeightRepository interface {
	Repository

	// LoadWeights returns the persisted weights.
	// Returns nil, nil when no weights have been saved.
	// Returns ErrSerializationFailed when the stored record cannot be decoded.
	LoadWeights(ctx context.Context) (*core.ModelWeights, error)

	// SaveWeights replaces the persisted weights.
	SaveWeights(ctx context.Context, weights core.ModelWeights) error

	// DeleteWeights removes the persisted weights. Deleting nothing is not an error.
	DeleteWeights(ctx context.Context) error
}

// ExampleRepository persists the training example collection as one unit.
type ExampleRepository interface {
	Repository

	// LoadExamples returns the persisted examples in insertion order.
	// Returns nil, nil when nothing has been saved.
	LoadExamples(ctx context.Context) ([]core.TrainingExample, error)

	// SaveExamples replaces the whole collection.
	SaveExamples(ctx context.Context, examples []core.TrainingExample) error
}

// EmbeddingRepository is a durable text to vector store keyed by exact text.
type EmbeddingRepository interface {
	Repository

	// GetEmbedding returns the vector stored for text.
	// Returns ErrNotFound when text has no stored vector.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)

	// PutEmbedding stores vector for text, replacing any previous value.
	PutEmbedding(ctx context.Context, text string, vector []float32) error
}
