package data

import "fmt"

// Split names a dataset partition. Providers are constructed once per split.
type Split string

const (
	SplitTrain Split = "train"
	SplitValid Split = "valid"
	SplitTest  Split = "test"
)

// ParseSplit validates a split identifier.
func ParseSplit(s string) (Split, error) {
	switch Split(s) {
	case SplitTrain, SplitValid, SplitTest:
		return Split(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSplit, s)
}

// Dataset is an immutable table of (input vector, target label) pairs.
// Inputs is row-major flat storage (Rows x Cols), matching the layout the
// ml.Matrix wrapper expects, so batches gather straight into model buffers.
// Neither slice is ever mutated after construction; providers share them
// read-only and own nothing but their permutation and cursor.
type Dataset struct {
	Split      Split
	Inputs     []float64 // Rows * Cols, row-major
	Targets    []int     // Rows, each in [0, NumClasses)
	Rows       int
	Cols       int
	NumClasses int
}

// NewDataset validates the parallel-array invariants up front so every
// later provider operation can index without bound checks of its own.
func NewDataset(split Split, inputs []float64, targets []int, cols, numClasses int) (*Dataset, error) {
	if _, err := ParseSplit(string(split)); err != nil {
		return nil, err
	}
	if cols <= 0 {
		return nil, fmt.Errorf("data: cols must be positive, got %d", cols)
	}
	if numClasses <= 0 {
		return nil, fmt.Errorf("data: numClasses must be positive, got %d", numClasses)
	}
	if len(inputs)%cols != 0 {
		return nil, fmt.Errorf("data: inputs length %d not divisible by cols %d", len(inputs), cols)
	}
	rows := len(inputs) / cols
	if rows != len(targets) {
		return nil, fmt.Errorf("data: %d input rows but %d targets", rows, len(targets))
	}
	for i, t := range targets {
		if t < 0 || t >= numClasses {
			return nil, fmt.Errorf("data: target %d at row %d outside [0, %d)", t, i, numClasses)
		}
	}
	return &Dataset{
		Split:      split,
		Inputs:     inputs,
		Targets:    targets,
		Rows:       rows,
		Cols:       cols,
		NumClasses: numClasses,
	}, nil
}

// Row returns the input vector at index i as a view into the flat storage.
// Callers must not write through it.
func (ds *Dataset) Row(i int) []float64 {
	return ds.Inputs[i*ds.Cols : (i+1)*ds.Cols]
}
