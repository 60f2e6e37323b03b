package training

import "errors"

var (
	// ErrNoTrainingData is returned when training is given no examples or no products.
	ErrNoTrainingData = errors.New("no training data")

	// ErrInvalidLearningRate is returned for a learning rate outside (0, 1].
	ErrInvalidLearningRate = errors.New("learning rate must be in (0, 1]")

	// ErrInvalidEpochs is returned when fewer than one epoch is requested.
	ErrInvalidEpochs = errors.New("epochs must be at least 1")

	// ErrDiverged is returned when an update produces a non-finite weight.
	ErrDiverged = errors.New("training diverged")

	// ErrExtractorRequired is returned when a feature extractor is not provided.
	ErrExtractorRequired = errors.New("feature extractor required")

	// ErrWeightStoreRequired is returned when a weight store is not provided.
	ErrWeightStoreRequired = errors.New("weight store required")

	// ErrIndexOutOfRange is returned when removing an example that does not exist.
	ErrIndexOutOfRange = errors.New("example index out of range")

	// ErrPersistFailed indicates the examples changed in memory but could not
	// be written to the persistent store.
	ErrPersistFailed = errors.New("failed to persist training examples")
)
