package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/prodrank/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// batchSize caps how many product texts go into one upstream request.
const batchSize = 256

// Embedder turns product and query text into vectors through langchaingo.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Ollama and vLLM ignore the token but langchaingo insists on one.
	token := config.APIKey
	if token == "" {
		token = "none"
	}
	opts := []openai.Option{
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
		openai.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	}
	if config.Dimensions > 0 {
		opts = append(opts, openai.WithEmbeddingDimensions(config.Dimensions))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(batchSize))
	if err != nil {
		return nil, fmt.Errorf("langchain embedder: %w", err)
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "langchain-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder builds a standalone batch embedder, for callers that do not
// need a Provider.
func NewEmbedder(config *ai.Config) (ai.BatchEmbedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds one query or product text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Warn("embedding request failed", "chars", len(text), "err", err)
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}
	return vec, nil
}

// EmbedTexts embeds a catalog batch. Every input must come back with a
// non-empty vector or the whole batch fails.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("embedding batch", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Warn("batch embedding request failed", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ai.ErrEmptyEmbedding, len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: text %d", ai.ErrEmptyEmbedding, i)
		}
	}
	return vectors, nil
}
