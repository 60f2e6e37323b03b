package storage

import (
	"testing"

	"github.com/poiesic/prodrank/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightsSerialization(t *testing.T) {
	weights := core.ModelWeights{
		ExactMatchWeight: 3.25,
		BM25Weight:       1.9,
		SemanticWeight:   0.1,
		PopularityWeight: 1.0000001,
		RecencyWeight:    0.5,
	}

	data := MarshalWeights(weights)
	got, err := UnmarshalWeights(data)
	require.NoError(t, err)
	assert.Equal(t, weights, *got)
}

func TestExamplesSerialization(t *testing.T) {
	pos := 2
	zero := 0
	examples := []core.TrainingExample{
		{Query: "organic tomato", ProductID: 1, IsRelevant: true, ClickPosition: &pos},
		{Query: "milk", ProductID: 3},
		{Query: "ünïcode honey", ProductID: 1 << 40, IsRelevant: true, ClickPosition: &zero},
	}

	data := MarshalExamples(examples)
	got, err := UnmarshalExamples(data)
	require.NoError(t, err)
	assert.Equal(t, examples, got)
}

func TestExamplesSerialization_Empty(t *testing.T) {
	got, err := UnmarshalExamples(MarshalExamples(nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddingSerialization(t *testing.T) {
	record := EmbeddingRecord{Text: "Fresh Basil Bunch Herbs", Vector: []float32{0.25, -1, 3.5}}

	got, err := UnmarshalEmbedding(MarshalEmbedding(record))
	require.NoError(t, err)
	assert.Equal(t, record, *got)
}

func TestUnmarshal_Corrupt(t *testing.T) {
	valid := MarshalWeights(core.DefaultModelWeights())

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated", data: valid[:len(valid)-3]},
		{name: "trailing bytes", data: append(append([]byte{}, valid...), 0x01)},
		{name: "unknown version", data: append([]byte{0x7e}, valid[1:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalWeights(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestUnmarshalExamples_HugeCount(t *testing.T) {
	// version 1, then a count far larger than the remaining bytes
	data := []byte{0x02, 0xfe, 0xff, 0xff, 0x0f}

	_, err := UnmarshalExamples(data)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalEmbedding_HugeVector(t *testing.T) {
	// version 1, empty text, then a dimension count past MaxEmbeddingDimensions
	data := []byte{0x02, 0x00, 0xfe, 0xff, 0xff, 0x0f}

	_, err := UnmarshalEmbedding(data)
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.ErrorIs(t, err, core.ErrVectorTooLarge)
}

func TestExamplesSerialization_ClickPositionPointer(t *testing.T) {
	pos := 7
	examples := []core.TrainingExample{
		{Query: "basil", ProductID: 2},
		{Query: "basil", ProductID: 2, ClickPosition: &pos},
	}

	got, err := UnmarshalExamples(MarshalExamples(examples))
	require.NoError(t, err)
	assert.Nil(t, got[0].ClickPosition)
	require.NotNil(t, got[1].ClickPosition)
	assert.Equal(t, 7, *got[1].ClickPosition)
	assert.NotSame(t, &pos, got[1].ClickPosition)
}
