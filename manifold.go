package manifold

import (
	"fmt"
	"math"
)

// Embedding is the low-dimensional representation produced by an estimator.
type Embedding struct {
	// Points holds one row of NComponents coordinates per input point, in
	// input order.
	Points [][]float64

	// ReconstructionError is the estimator's own fit residual: the sum of the
	// retained eigenvalues for LLE variants and the kernel reconstruction
	// error for Isomap. Zero for MDS.
	ReconstructionError float64

	// Stress is the final raw stress of the best MDS run. Zero otherwise.
	Stress float64

	// Iterations is the number of SMACOF iterations of the best MDS run.
	Iterations int
}

// flatten copies data into a row-major slice and checks that every row has
// the same, non-zero length and only finite values.
func flatten(data [][]float64) (flat []float64, n, dims int, err error) {
	n = len(data)
	if n == 0 {
		return nil, 0, 0, fmt.Errorf("manifold: no samples")
	}
	dims = len(data[0])
	if dims == 0 {
		return nil, 0, 0, fmt.Errorf("manifold: samples have no features")
	}
	flat = make([]float64, n*dims)
	for i, row := range data {
		if len(row) != dims {
			return nil, 0, 0, fmt.Errorf("manifold: sample %d has %d features, want %d", i, len(row), dims)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, 0, 0, fmt.Errorf("manifold: sample %d feature %d is not finite", i, j)
			}
		}
		copy(flat[i*dims:], row)
	}
	return flat, n, dims, nil
}

// rows splits flat row-major data into a fresh [][]float64.
func rows(flat []float64, n, dims int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, dims)
		copy(out[i], flat[i*dims:(i+1)*dims])
	}
	return out
}
