package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/prodrank/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmbeddingServer answers OpenAI-style embedding requests with a
// [len(text), index] vector per input. Inputs equal to "blank" get no vector.
func newEmbeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			data[i] = item{Object: "embedding", Index: i}
			if text != "blank" {
				data[i].Embedding = []float32{float32(len(text)), float32(i)}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "model": req.Model, "data": data})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEmbedder(t *testing.T) ai.BatchEmbedder {
	t.Helper()
	srv := newEmbeddingServer(t)
	e, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost(srv.URL), ai.WithEmbeddingModel("test-embed")))
	require.NoError(t, err)
	return e
}

func TestEmbedder_EmbedText(t *testing.T) {
	e := newTestEmbedder(t)

	vec, err := e.EmbedText(context.Background(), "fresh basil")
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 0}, vec)
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	e := newTestEmbedder(t)

	vectors, err := e.EmbedTexts(context.Background(), []string{"honey", "whole milk"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{5, 0}, {10, 1}}, vectors)
}

func TestEmbedder_EmptyVector(t *testing.T) {
	e := newTestEmbedder(t)

	_, err := e.EmbedText(context.Background(), "blank")
	assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)

	_, err = e.EmbedTexts(context.Background(), []string{"honey", "blank"})
	assert.ErrorIs(t, err, ai.ErrEmptyEmbedding)
}

func TestEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost(srv.URL)))
	require.NoError(t, err)

	_, err = e.EmbedText(context.Background(), "honey")
	assert.Error(t, err)
}
