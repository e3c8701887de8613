package data

import "gonum.org/v1/gonum/stat"

// Moments holds per-dimension mean and standard deviation, computed on the
// training split and reused verbatim on valid/test so all splits live in
// the same feature space.
type Moments struct {
	Mean   []float64
	StdDev []float64
}

// Standardize shifts and scales each feature dimension of the flat
// (rows x cols) matrix to zero mean and unit variance, in place, and
// returns the moments it applied. Constant dimensions are left centered
// but unscaled. This is the upstream loader's job; the batch provider
// only ever sees already-normalized inputs.
func Standardize(inputs []float64, rows, cols int) Moments {
	m := Moments{
		Mean:   make([]float64, cols),
		StdDev: make([]float64, cols),
	}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = inputs[i*cols+j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		m.Mean[j] = mean
		m.StdDev[j] = std
	}
	StandardizeWith(inputs, rows, cols, m)
	return m
}

// StandardizeWith applies previously computed moments in place.
func StandardizeWith(inputs []float64, rows, cols int, m Moments) {
	for i := 0; i < rows; i++ {
		row := inputs[i*cols : (i+1)*cols]
		for j := range row {
			row[j] = (row[j] - m.Mean[j]) / m.StdDev[j]
		}
	}
}
