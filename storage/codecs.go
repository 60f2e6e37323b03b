package storage

import (
	"fmt"

	com "github.com/mus-format/common-go"
	"github.com/mus-format/mus-go/ord"
	slops "github.com/mus-format/mus-go/options/slice"
	"github.com/poiesic/prodrank/core"
)

// codecVersion prefixes every stored record.
const codecVersion = 1

// maxStoredExamples bounds the example count accepted from storage.
const maxStoredExamples = 1 << 20

// EmbeddingRecord is the stored form of a cached embedding.
type EmbeddingRecord = core.EmbeddingRecord

// ExamplesMUS encodes the whole training set. The struct codecs it builds on
// are generated into core.
var ExamplesMUS = ord.NewValidSliceSer[core.TrainingExample](core.TrainingExampleMUS,
	slops.WithLenValidator[core.TrainingExample](com.ValidatorFn[int](validateExampleCount)))

func validateExampleCount(n int) error {
	if n > maxStoredExamples {
		return fmt.Errorf("%w: example count %d", ErrTruncatedData, n)
	}
	return nil
}
