// Package data holds the immutable dataset table, the batch provider that
// feeds the training loop, and the I/O collaborators around them (split
// archives, feature standardization, submission writing).
package data

import "errors"

// Sentinel errors for dataset and provider operations.
var (
	// ErrBatchSize indicates a batch size that is non-positive or larger than the dataset.
	ErrBatchSize = errors.New("data: batch size must be in [1, dataset size]")
	// ErrUnknownSplit indicates a split identifier other than train/valid/test.
	ErrUnknownSplit = errors.New("data: unknown split identifier")
	// ErrShapeMismatch indicates prediction data that does not match the expected (rows, classes) shape.
	ErrShapeMismatch = errors.New("data: prediction shape mismatch")
	// ErrValueRange indicates probabilities outside [0,1] or rows not summing to 1.
	ErrValueRange = errors.New("data: probabilities out of range")
	// ErrOverwriteRefused indicates the destination exists and overwrite was not requested.
	ErrOverwriteRefused = errors.New("data: destination exists, overwrite not requested")
)

// ErrEndOfPass marks the boundary between passes over the dataset.
// It is a signal, not a failure: NextBatch returns it exactly once per pass,
// resets internally, and the following call emits the first batch of a
// fresh pass.
var ErrEndOfPass = errors.New("data: end of pass")
