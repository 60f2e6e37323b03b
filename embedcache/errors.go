package embedcache

import "errors"

var (
	// ErrEmbedderRequired is returned by New when no embedder is given.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmptyText indicates a lookup for blank text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrProviderFailure wraps every embedding provider error and timeout.
	// Nothing is cached for a failed lookup.
	ErrProviderFailure = errors.New("embedding provider failure")

	// ErrInvalidOption indicates an option was given an out-of-range value.
	ErrInvalidOption = errors.New("invalid cache option")
)
