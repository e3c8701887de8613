package data

import "fmt"

// OneHotInto writes the one-hot expansion of label into dst, whose length
// is the class count. dst is zeroed first so buffers can be reused.
func OneHotInto(dst []float64, label int) {
	for i := range dst {
		dst[i] = 0
	}
	dst[label] = 1
}

// OneHot expands integer labels to a flat row-major (len(labels) x classes)
// one-hot matrix.
func OneHot(labels []int, classes int) ([]float64, error) {
	out := make([]float64, len(labels)*classes)
	for i, label := range labels {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("data: label %d at row %d outside [0, %d)", label, i, classes)
		}
		out[i*classes+label] = 1
	}
	return out, nil
}
