package manifold

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errEigenFailed = errors.New("manifold: symmetric eigendecomposition did not converge")

// eigenPairs holds selected eigenvectors as columns of vectors, in the same
// order as values.
type eigenPairs struct {
	values  []float64
	vectors [][]float64 // n rows, len(values) columns
}

// bottomEigen returns eigenpairs skip .. skip+k-1 of the symmetric n*n
// matrix m in ascending eigenvalue order. Skipping 1 drops the constant
// vector that every LLE alignment matrix annihilates.
func bottomEigen(m *mat.SymDense, n, k, skip int) (*eigenPairs, error) {
	if skip+k > n {
		return nil, fmt.Errorf("manifold: cannot take %d eigenvectors after skipping %d of a %dx%d matrix", k, skip, n, n)
	}
	cols := make([]int, k)
	for c := range cols {
		cols[c] = skip + c
	}
	return selectEigen(m, n, cols)
}

// topEigen returns the k largest eigenpairs of m in descending order.
func topEigen(m *mat.SymDense, n, k int) (*eigenPairs, error) {
	if k > n {
		return nil, fmt.Errorf("manifold: cannot take %d eigenvectors of a %dx%d matrix", k, n, n)
	}
	cols := make([]int, k)
	for c := range cols {
		cols[c] = n - 1 - c
	}
	return selectEigen(m, n, cols)
}

func selectEigen(m *mat.SymDense, n int, cols []int) (*eigenPairs, error) {
	var es mat.EigenSym
	if ok := es.Factorize(m, true); !ok {
		return nil, errEigenFailed
	}
	all := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	out := &eigenPairs{
		values:  make([]float64, len(cols)),
		vectors: make([][]float64, n),
	}
	for i := range out.vectors {
		out.vectors[i] = make([]float64, len(cols))
	}
	for c, col := range cols {
		out.values[c] = all[col]
		for i := 0; i < n; i++ {
			out.vectors[i][c] = vecs.At(i, col)
		}
	}
	flipSigns(out.vectors)
	return out, nil
}

// flipSigns makes the largest-magnitude entry of every column positive, so
// eigenvector sign, which the solver leaves arbitrary, is reproducible.
func flipSigns(m [][]float64) {
	if len(m) == 0 {
		return
	}
	for c := range m[0] {
		var pivot float64
		for i := range m {
			if math.Abs(m[i][c]) > math.Abs(pivot) {
				pivot = m[i][c]
			}
		}
		if pivot < 0 {
			for i := range m {
				m[i][c] = -m[i][c]
			}
		}
	}
}
