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


// Package ai provides the embedding abstraction used for semantic scoring.
//
// The ranking core only ever needs one operation from an AI service: turn a
// piece of text into a fixed-length vector. This package names that contract
// and keeps concrete providers out of the scoring code.
//
// # Interfaces
//
//   - Embedder: generates a vector for a single text
//   - BatchEmbedder: optional batch form used for cache warm-up
//   - AIProvider: owns an Embedder and its resources
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible local servers through langchaingo
//   - ai/goopenai: the hosted OpenAI API through go-openai
//   - ai/mock: test doubles with injectable behavior and call counters
//
// NewDisabledProvider returns a provider that never produces vectors, for
// offline runs where ranking falls back to lexical and metadata signals.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "organic tomatoes")
package ai
