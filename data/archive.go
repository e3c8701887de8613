package data

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// splitArchive is the on-disk layout of one split: a gzip-compressed gob
// blob holding the flat feature matrix and its labels. Features are assumed
// pre-normalized upstream (see Standardize); the provider never touches
// normalization.
type splitArchive struct {
	Rows       int
	Cols       int
	NumClasses int
	Inputs     []float64
	Targets    []int
}

// SplitPath maps (dir, split) to the archive file for that split.
// The data directory is always an explicit parameter; nothing in this
// package reads ambient process state.
func SplitPath(dir string, split Split) string {
	return filepath.Join(dir, string(split)+".msd.gz")
}

// LoadSplit reads and validates one split archive from dir.
func LoadSplit(dir string, split Split) (*Dataset, error) {
	if _, err := ParseSplit(string(split)); err != nil {
		return nil, err
	}
	path := SplitPath(dir, split)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data: open split archive: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("data: %s: %w", path, err)
	}
	defer zr.Close()

	var arc splitArchive
	if err := gob.NewDecoder(zr).Decode(&arc); err != nil {
		return nil, fmt.Errorf("data: decode %s: %w", path, err)
	}
	if arc.Rows*arc.Cols != len(arc.Inputs) {
		return nil, fmt.Errorf("data: %s: header says %dx%d but archive holds %d values",
			path, arc.Rows, arc.Cols, len(arc.Inputs))
	}
	return NewDataset(split, arc.Inputs, arc.Targets, arc.Cols, arc.NumClasses)
}

// SaveSplit writes ds to its archive file under dir, creating dir if needed.
// Used by the feature-extraction tooling and by tests; training only reads.
func SaveSplit(dir string, ds *Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("data: create data dir: %w", err)
	}
	f, err := os.Create(SplitPath(dir, ds.Split))
	if err != nil {
		return fmt.Errorf("data: create split archive: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	arc := splitArchive{
		Rows:       ds.Rows,
		Cols:       ds.Cols,
		NumClasses: ds.NumClasses,
		Inputs:     ds.Inputs,
		Targets:    ds.Targets,
	}
	if err := gob.NewEncoder(zw).Encode(&arc); err != nil {
		return fmt.Errorf("data: encode split archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("data: flush split archive: %w", err)
	}
	return nil
}
