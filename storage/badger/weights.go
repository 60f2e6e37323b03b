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
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/storage"
)

// WeightRepository implements storage.WeightRepository for BadgerDB.
type WeightRepository struct {
	backend *Backend
}

var _ storage.WeightRepository = (*WeightRepository)(nil)

// NewWeightRepository creates a WeightRepository on an open backend.
func NewWeightRepository(backend *Backend) (storage.WeightRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &WeightRepository{backend: backend}, nil
}

// SaveWeights persists weights under the fixed weights key.
func (r *WeightRepository) SaveWeights(ctx context.Context, weights core.ModelWeights) error {
	return r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		return tx.Set([]byte(weightsKey), storage.MarshalWeights(weights))
	})
}

// LoadWeights retrieves the persisted weights.
// Returns nil, nil if no weights exist.
func (r *WeightRepository) LoadWeights(ctx context.Context) (*core.ModelWeights, error) {
	var weights *core.ModelWeights
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return get(tx, []byte(weightsKey), func(val []byte) error {
			var unmarshalErr error
			weights, unmarshalErr = storage.UnmarshalWeights(val)
			return unmarshalErr
		})
	}, false)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return weights, err
}

// DeleteWeights removes the persisted weights.
func (r *WeightRepository) DeleteWeights(ctx context.Context) error {
	return r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		return tx.Delete([]byte(weightsKey))
	})
}

// Close is a no-op; the backend is owned by the caller.
func (r *WeightRepository) Close() error {
	return nil
}
