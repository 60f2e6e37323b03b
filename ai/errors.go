package ai

import "errors"

var (
	// ErrEmbeddingDisabled is returned by the disabled provider's embedder.
	ErrEmbeddingDisabled = errors.New("embedding provider disabled")

	// ErrEmptyEmbedding indicates the provider answered without a vector.
	ErrEmptyEmbedding = errors.New("embedding provider returned no vector")

	// ErrUnknownBackend indicates Config.Backend names no known provider.
	ErrUnknownBackend = errors.New("unknown embedding backend")
)
