package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/storage"
)

// ExampleRepository implements storage.ExampleRepository for BadgerDB.
// The whole collection is stored under one key and rewritten on every save.
type ExampleRepository struct {
	backend *Backend
}

var _ storage.ExampleRepository = (*ExampleRepository)(nil)

// NewExampleRepository creates an ExampleRepository on an open backend.
func NewExampleRepository(backend *Backend) (storage.ExampleRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &ExampleRepository{backend: backend}, nil
}

func (r *ExampleRepository) SaveExamples(ctx context.Context, examples []core.TrainingExample) error {
	return r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		return tx.Set([]byte(examplesKey), storage.MarshalExamples(examples))
	})
}

func (r *ExampleRepository) LoadExamples(ctx context.Context) ([]core.TrainingExample, error) {
	var examples []core.TrainingExample
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return get(tx, []byte(examplesKey), func(val []byte) error {
			var unmarshalErr error
			examples, unmarshalErr = storage.UnmarshalExamples(val)
			return unmarshalErr
		})
	}, false)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return examples, err
}

func (r *ExampleRepository) Close() error {
	return nil
}
