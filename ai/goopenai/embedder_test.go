package goopenai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/prodrank/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *ai.Config {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ai.NewConfig(
		ai.WithBackend(ai.BackendOpenAI),
		ai.WithEmbeddingHost(srv.URL),
		ai.WithEmbeddingModel("text-embedding-3-small"),
		ai.WithAPIKey("sk-test"),
		ai.WithDimensions(3),
		ai.WithTimeout(time.Second),
	)
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	var got embeddingRequest
	cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		// Reverse order to check index-based placement.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1, 0]},
				{"object": "embedding", "index": 0, "embedding": [1, 0, 0]}
			],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	})

	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(t.Context(), []string{"tomato", "honey"})
	require.NoError(t, err)

	assert.Equal(t, []string{"tomato", "honey"}, got.Input)
	assert.Equal(t, "text-embedding-3-small", got.Model)
	assert.Equal(t, 3, got.Dimensions)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vectors)
}

func TestEmbedder_EmbedText(t *testing.T) {
	cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5,0.5]}]}`))
	})

	provider, err := NewProvider(cfg)
	require.NoError(t, err)
	defer provider.Close()

	vec, err := provider.Embedder().EmbedText(t.Context(), "basil")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)
}

func TestEmbedder_APIError(t *testing.T) {
	cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)

	_, err = embedder.EmbedText(t.Context(), "basil")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderError)
	assert.Contains(t, err.Error(), "bad key")
}

func TestEmbedder_ShortResponse(t *testing.T) {
	cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	})

	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)

	_, err = embedder.EmbedText(t.Context(), "basil")
	assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
}
