package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadSplitRoundTrip(t *testing.T) {
	dir := t.TempDir()

	ds, err := NewDataset(SplitValid,
		[]float64{0.5, -1.25, 3, 0, 7.5, 2},
		[]int{2, 0, 1}, 2, 3)
	require.NoError(t, err)

	require.NoError(t, SaveSplit(dir, ds))

	loaded, err := LoadSplit(dir, SplitValid)
	require.NoError(t, err)
	assert.Equal(t, ds.Rows, loaded.Rows)
	assert.Equal(t, ds.Cols, loaded.Cols)
	assert.Equal(t, ds.NumClasses, loaded.NumClasses)
	assert.Equal(t, ds.Inputs, loaded.Inputs)
	assert.Equal(t, ds.Targets, loaded.Targets)
}

func TestLoadSplitMissingArchive(t *testing.T) {
	_, err := LoadSplit(t.TempDir(), SplitTest)
	assert.Error(t, err)
}

func TestLoadSplitUnknownSplit(t *testing.T) {
	_, err := LoadSplit(t.TempDir(), Split("bogus"))
	assert.ErrorIs(t, err, ErrUnknownSplit)
}
