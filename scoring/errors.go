package scoring

import "errors"

var (
	// ErrInvalidParams indicates BM25 parameters outside their domain.
	ErrInvalidParams = errors.New("invalid BM25 parameters")

	// ErrExtractorClosed is returned after Close.
	ErrExtractorClosed = errors.New("extractor is closed")
)
