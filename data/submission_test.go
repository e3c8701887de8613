package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformProbs(rows, classes int) []float64 {
	probs := make([]float64, rows*classes)
	p := 1.0 / float64(classes)
	for i := range probs {
		probs[i] = p
	}
	return probs
}

// The competition-scale scenario: 10000 rows of 25 uniform probabilities
// produce a header plus 10000 "id,argmax" lines, argmax resolving to the
// first class on ties.
func TestWriteSubmissionUniformScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submission.csv")
	probs := uniformProbs(10000, 25)

	require.NoError(t, WriteSubmission(path, probs, 10000, 25, false))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 10001)
	assert.Equal(t, "Id,Class", lines[0])
	assert.Equal(t, "0,0", lines[1])
	assert.Equal(t, "9999,0", lines[10000])
}

func TestWriteSubmissionArgmax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	probs := []float64{
		0.1, 0.7, 0.2,
		0.5, 0.25, 0.25,
	}
	require.NoError(t, WriteSubmission(path, probs, 2, 3, false))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Id,Class\n0,1\n1,0\n", string(raw))
}

func TestWriteSubmissionShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := WriteSubmission(path, uniformProbs(3, 4), 4, 4, false)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	// Nothing may be left behind on failure.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteSubmissionValueRange(t *testing.T) {
	dir := t.TempDir()

	t.Run("row does not sum to one", func(t *testing.T) {
		probs := []float64{0.5, 0.1}
		err := WriteSubmission(filepath.Join(dir, "a.csv"), probs, 1, 2, false)
		assert.ErrorIs(t, err, ErrValueRange)
	})

	t.Run("entry above one", func(t *testing.T) {
		probs := []float64{1.5, -0.5}
		err := WriteSubmission(filepath.Join(dir, "b.csv"), probs, 1, 2, false)
		assert.ErrorIs(t, err, ErrValueRange)
	})

	t.Run("tolerated rounding slack", func(t *testing.T) {
		probs := []float64{0.5 + 2e-7, 0.5}
		err := WriteSubmission(filepath.Join(dir, "c.csv"), probs, 1, 2, false)
		assert.NoError(t, err)
	})
}

func TestWriteSubmissionOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	probs := uniformProbs(5, 5)

	require.NoError(t, WriteSubmission(path, probs, 5, 5, false))

	err := WriteSubmission(path, probs, 5, 5, false)
	assert.ErrorIs(t, err, ErrOverwriteRefused)

	assert.NoError(t, WriteSubmission(path, probs, 5, 5, true))
}
