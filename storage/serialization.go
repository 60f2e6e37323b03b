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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/prodrank/core"
)

// marshal writes the codec version followed by v.
func marshal[T any](ser mus.Serializer[T], v T) []byte {
	buf := make([]byte, varint.Int.Size(codecVersion)+ser.Size(v))
	n := varint.Int.Marshal(codecVersion, buf)
	ser.Marshal(v, buf[n:])
	return buf
}

// unmarshal checks the version prefix and decodes the rest of data with ser.
// Trailing bytes are treated as corruption.
func unmarshal[T any](ser mus.Serializer[T], data []byte) (v T, err error) {
	version, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if version != codecVersion {
		return v, fmt.Errorf("%w: %w %d", ErrSerializationFailed, ErrUnsupportedVersion, version)
	}
	v, n1, err := ser.Unmarshal(data[n:])
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n+n1 != len(data) {
		return v, fmt.Errorf("%w: %w: %d trailing bytes", ErrSerializationFailed, ErrTruncatedData, len(data)-n-n1)
	}
	return v, nil
}

// MarshalWeights serializes ModelWeights to bytes.
func MarshalWeights(weights core.ModelWeights) []byte {
	return marshal[core.ModelWeights](core.ModelWeightsMUS, weights)
}

// UnmarshalWeights deserializes ModelWeights from bytes.
func UnmarshalWeights(data []byte) (*core.ModelWeights, error) {
	weights, err := unmarshal[core.ModelWeights](core.ModelWeightsMUS, data)
	if err != nil {
		return nil, err
	}
	return &weights, nil
}

// MarshalExamples serializes a training example collection to bytes.
func MarshalExamples(examples []core.TrainingExample) []byte {
	return marshal[[]core.TrainingExample](ExamplesMUS, examples)
}

// UnmarshalExamples deserializes a training example collection from bytes.
func UnmarshalExamples(data []byte) ([]core.TrainingExample, error) {
	return unmarshal[[]core.TrainingExample](ExamplesMUS, data)
}

// MarshalEmbedding serializes an embedding record to bytes.
func MarshalEmbedding(record EmbeddingRecord) []byte {
	return marshal[core.EmbeddingRecord](core.EmbeddingRecordMUS, record)
}

// UnmarshalEmbedding deserializes an embedding record from bytes.
func UnmarshalEmbedding(data []byte) (*EmbeddingRecord, error) {
	record, err := unmarshal[core.EmbeddingRecord](core.EmbeddingRecordMUS, data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
