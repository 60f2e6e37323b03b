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


package badger

import (
	"errors"

	"github.com/poiesic/prodrank/storage"
)

// Repositories bundles every repository over one shared backend.
type Repositories struct {
	Weights    storage.WeightRepository
	Examples   storage.ExampleRepository
	Embeddings storage.EmbeddingRepository
	Backend    *Backend
}

// Close closes the repositories and then the backend.
func (r *Repositories) Close() error {
	return errors.Join(
		r.Weights.Close(),
		r.Examples.Close(),
		r.Embeddings.Close(),
		r.Backend.Close(),
	)
}

// OpenRepositories opens a backend at path and builds every repository on it.
// Caller must Close the result when done.
func OpenRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	weights, err := NewWeightRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	examples, err := NewExampleRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	embeddings, err := NewEmbeddingRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Weights:    weights,
		Examples:   examples,
		Embeddings: embeddings,
		Backend:    backend,
	}, nil
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close the result when done.
func NewMemoryRepositories() (*Repositories, error) {
	return OpenRepositories("", true)
}
