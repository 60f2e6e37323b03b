package goopenai

import (
	"log/slog"

	"github.com/poiesic/prodrank/ai"
)

// Provider implements ai.AIProvider with a go-openai client.
type Provider struct {
	embedder *Embedder
	logger   *slog.Logger
}

// NewProvider validates config and builds a provider.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	return &Provider{
		embedder: embedder,
		logger:   slog.Default().With("component", "goopenai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (p *Provider) Close() error {
	p.logger.Debug("closing go-openai provider")
	return nil
}
