// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"log/slog"

	"github.com/poiesic/prodrank/ai"
)

// Provider serves embeddings through langchaingo's OpenAI-compatible client.
// It works against Ollama, vLLM and the hosted OpenAI API alike.
type Provider struct {
	embedder *Embedder
	model    string
	logger   *slog.Logger
}

// NewProvider normalizes config and builds the langchain-backed embedder.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "langchain-provider")
	logger.Debug("embedding provider ready", "host", config.EmbeddingHost, "model", config.EmbeddingModel)
	return &Provider{embedder: embedder, model: config.EmbeddingModel, logger: logger}, nil
}

// Embedder returns the batch-capable embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close holds no connections open, so it only logs.
func (p *Provider) Close() error {
	p.logger.Debug("closing embedding provider", "model", p.model)
	return nil
}
