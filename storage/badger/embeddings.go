package badger

import (
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/prodrank/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
// Keys are hashes of the text; the stored record carries the text so a hash
// collision reads as a miss rather than a wrong vector.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates an EmbeddingRepository on an open backend.
func NewEmbeddingRepository(backend *Backend) (storage.EmbeddingRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &EmbeddingRepository{backend: backend}, nil
}

// GetEmbedding returns the stored vector for text or storage.ErrNotFound.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var record *storage.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return get(tx, makeEmbeddingKey(text), func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalEmbedding(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	if record.Text != text {
		return nil, fmt.Errorf("%w: key collision", storage.ErrNotFound)
	}
	return record.Vector, nil
}

// PutEmbedding stores a copy of vector for text.
func (r *EmbeddingRepository) PutEmbedding(ctx context.Context, text string, vector []float32) error {
	record := storage.EmbeddingRecord{Text: text, Vector: slices.Clone(vector)}
	return r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		return tx.Set(makeEmbeddingKey(text), storage.MarshalEmbedding(record))
	})
}

func (r *EmbeddingRepository) Close() error {
	return nil
}
