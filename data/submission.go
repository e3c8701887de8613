package data

import (
	"bufio"
	"fmt"
	"math"
	"os"
)

// row-sum slack for WriteSubmission, same order as the loss epsilon.
const sumTolerance = 1e-6

// WriteSubmission turns a (rows x classes) probability matrix into the
// two-column competition file: a header line followed by "id,argmax" rows.
//
// All validation happens before a single byte is written, so a failed call
// never leaves a partial file behind:
//   - ErrShapeMismatch if probs is not rows*classes long,
//   - ErrValueRange if any entry falls outside [0,1] or a row does not sum
//     to 1 within tolerance,
//   - ErrOverwriteRefused if path exists and overwrite is false.
func WriteSubmission(path string, probs []float64, rows, classes int, overwrite bool) error {
	if rows <= 0 || classes <= 0 || len(probs) != rows*classes {
		return fmt.Errorf("%w: want %dx%d=%d values, got %d",
			ErrShapeMismatch, rows, classes, rows*classes, len(probs))
	}
	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		row := probs[i*classes : (i+1)*classes]
		sum := 0.0
		best := 0
		for j, p := range row {
			if p < 0 || p > 1 {
				return fmt.Errorf("%w: entry (%d,%d) = %g", ErrValueRange, i, j, p)
			}
			sum += p
			if p > row[best] {
				best = j
			}
		}
		if math.Abs(sum-1) > sumTolerance {
			return fmt.Errorf("%w: row %d sums to %g", ErrValueRange, i, sum)
		}
		labels[i] = best
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrOverwriteRefused, path)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("data: create submission: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "Id,Class")
	for i, label := range labels {
		fmt.Fprintf(w, "%d,%d\n", i, label)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("data: write submission: %w", err)
	}
	return nil
}
