package ai

import "context"

type disabledEmbedder struct{}

func (disabledEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	return nil, ErrEmbeddingDisabled
}

type disabledProvider struct{}

// NewDisabledProvider returns a provider whose embedder always fails with
// ErrEmbeddingDisabled. Ranking with it degrades to lexical, popularity and
// business-rule signals.
func NewDisabledProvider() AIProvider {
	return disabledProvider{}
}

func (disabledProvider) Embedder() Embedder { return disabledEmbedder{} }

func (disabledProvider) Close() error { return nil }
