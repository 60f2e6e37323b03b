package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidProduct indicates a Product failed validation.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrInvalidTrainingExample indicates a TrainingExample failed validation.
	ErrInvalidTrainingExample = errors.New("invalid training example")

	// ErrInvalidTrainingData indicates an imported training data blob is malformed.
	ErrInvalidTrainingData = errors.New("invalid training data")

	// ErrInvalidWeights indicates ModelWeights contain a non-finite or negative value.
	ErrInvalidWeights = errors.New("invalid model weights")

	// ErrEmptyQuery indicates the query is empty after trimming.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrUnknownProduct indicates a product ID that is not in the catalog.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrVectorTooLarge indicates a stored embedding claims more dimensions
	// than any supported model produces.
	ErrVectorTooLarge = errors.New("embedding vector too large")
)
