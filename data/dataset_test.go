package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatasetValidation(t *testing.T) {
	inputs := []float64{1, 2, 3, 4, 5, 6}

	t.Run("valid", func(t *testing.T) {
		ds, err := NewDataset(SplitTrain, inputs, []int{0, 1, 2}, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, ds.Rows)
		assert.Equal(t, 2, ds.Cols)
		assert.Equal(t, []float64{3, 4}, ds.Row(1))
	})

	t.Run("unknown split", func(t *testing.T) {
		_, err := NewDataset("holdout", inputs, []int{0, 1, 2}, 2, 3)
		assert.ErrorIs(t, err, ErrUnknownSplit)
	})

	t.Run("ragged flat slice", func(t *testing.T) {
		_, err := NewDataset(SplitTrain, inputs[:5], []int{0, 1}, 2, 3)
		assert.Error(t, err)
	})

	t.Run("target count mismatch", func(t *testing.T) {
		_, err := NewDataset(SplitTrain, inputs, []int{0, 1}, 2, 3)
		assert.Error(t, err)
	})

	t.Run("label out of range", func(t *testing.T) {
		_, err := NewDataset(SplitTrain, inputs, []int{0, 1, 3}, 2, 3)
		assert.Error(t, err)
	})
}

func TestParseSplit(t *testing.T) {
	for _, s := range []string{"train", "valid", "test"} {
		got, err := ParseSplit(s)
		require.NoError(t, err)
		assert.Equal(t, Split(s), got)
	}
	_, err := ParseSplit("eval")
	assert.ErrorIs(t, err, ErrUnknownSplit)
}
