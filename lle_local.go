package manifold

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// localFrame returns the left singular vectors of the k x dims matrix z with
// their squared singular values, largest first. When k > dims a thin SVD is
// enough for the leading vectors; full asks for all k of them. With
// k <= dims the k x k Gram matrix z*z^T is diagonalized instead.
func localFrame(z *mat.Dense, full bool) (*mat.Dense, []float64, error) {
	k, dims := z.Dims()
	if k > dims {
		kind := mat.SVDThin
		if full {
			kind = mat.SVDFull
		}
		var svd mat.SVD
		if ok := svd.Factorize(z, kind); !ok {
			return nil, nil, fmt.Errorf("manifold: SVD of local neighborhood did not converge")
		}
		var u mat.Dense
		svd.UTo(&u)
		sv := svd.Values(nil)
		for c := range sv {
			sv[c] *= sv[c]
		}
		return &u, sv, nil
	}

	gram := mat.NewSymDense(k, nil)
	gram.SymOuterK(1, z)
	var es mat.EigenSym
	if ok := es.Factorize(gram, true); !ok {
		return nil, nil, errEigenFailed
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// EigenSym sorts ascending; reverse to match the SVD ordering.
	u := mat.NewDense(k, k, nil)
	for c := 0; c < k; c++ {
		u.SetCol(c, mat.Col(nil, k-1-c, &vecs))
	}
	slices.Reverse(vals)
	return u, vals, nil
}

// tangentBasis is the leading d columns of localFrame: an orthonormal basis
// of the neighborhood's local tangent space.
func tangentBasis(z *mat.Dense, d int) (*mat.Dense, error) {
	u, _, err := localFrame(z, false)
	if err != nil {
		return nil, err
	}
	if _, c := u.Dims(); c < d {
		return nil, fmt.Errorf("manifold: neighborhood spans %d directions, need %d", c, d)
	}
	k, _ := u.Dims()
	return mat.DenseCopyOf(u.Slice(0, k, 0, d)), nil
}

// hessianBlocks builds the Hessian eigenmaps alignment: per neighborhood, an
// orthonormal basis of the quadratic forms over the local tangent
// coordinates, orthogonalized against constants and linear terms by QR.
func hessianBlocks(flat []float64, dims int, nbrs [][]int, d int, tol float64, workers int) ([]localBlock, error) {
	dp := d * (d + 1) / 2
	n := len(nbrs)
	blocks := make([]localBlock, n)
	errs := make([]error, n)

	forEachRange(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			k := len(nbrs[i])
			u, err := tangentBasis(neighborhood(flat, dims, nbrs[i], nil), d)
			if err != nil {
				errs[i] = fmt.Errorf("manifold: sample %d: %w", i, err)
				continue
			}

			y := mat.NewDense(k, 1+d+dp, nil)
			for a := 0; a < k; a++ {
				y.Set(a, 0, 1)
			}
			for c := 0; c < d; c++ {
				y.SetCol(1+c, mat.Col(nil, c, u))
			}
			col := 1 + d
			for p := 0; p < d; p++ {
				for q := p; q < d; q++ {
					for a := 0; a < k; a++ {
						y.Set(a, col, u.At(a, p)*u.At(a, q))
					}
					col++
				}
			}

			var qr mat.QR
			qr.Factorize(y)
			var q mat.Dense
			qr.QTo(&q)
			w := mat.DenseCopyOf(q.Slice(0, k, d+1, 1+d+dp))
			for c := 0; c < dp; c++ {
				v := mat.Col(nil, c, w)
				s := floats.Sum(v)
				if math.Abs(s) < tol {
					s = 1
				}
				floats.Scale(1/s, v)
				w.SetCol(c, v)
			}
			blocks[i] = outerBlock(nbrs[i], w)
		}
	})
	return blocks, firstError(errs)
}

// ltsaBlocks builds the Local Tangent Space Alignment matrix: per
// neighborhood, M += I - G*G^T where G spans constants and the local
// tangent coordinates.
func ltsaBlocks(flat []float64, dims int, nbrs [][]int, d int, workers int) ([]localBlock, error) {
	n := len(nbrs)
	blocks := make([]localBlock, n)
	errs := make([]error, n)

	forEachRange(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			k := len(nbrs[i])
			u, err := tangentBasis(neighborhood(flat, dims, nbrs[i], nil), d)
			if err != nil {
				errs[i] = fmt.Errorf("manifold: sample %d: %w", i, err)
				continue
			}
			g := mat.NewDense(k, d+1, nil)
			inv := 1 / math.Sqrt(float64(k))
			for a := 0; a < k; a++ {
				g.Set(a, 0, inv)
			}
			for c := 0; c < d; c++ {
				g.SetCol(c+1, mat.Col(nil, c, u))
			}

			b := outerBlock(nbrs[i], g)
			for a := range b.vals {
				b.vals[a] = -b.vals[a]
			}
			for a := 0; a < k; a++ {
				b.vals[a*k+a]++
			}
			blocks[i] = b
		}
	})
	return blocks, firstError(errs)
}

// mlleFrame is the per-point state modified LLE needs between its two
// passes.
type mlleFrame struct {
	v     *mat.Dense // k x k local frame
	evals []float64  // squared singular values, descending
	wReg  []float64  // regularized barycenter weights
}

// modifiedBlocks builds the modified LLE alignment. Each neighborhood gets
// s_i weight vectors from the bottom of its local frame, where s_i is the
// size of its "almost null" space, so every point is reconstructed by
// several nearly orthogonal weight vectors instead of one.
func modifiedBlocks(flat []float64, dims int, nbrs [][]int, d int, reg, tol float64, workers int) ([]localBlock, error) {
	n := len(nbrs)
	frames := make([]mlleFrame, n)
	errs := make([]error, n)

	forEachRange(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			k := len(nbrs[i])
			z := neighborhood(flat, dims, nbrs[i], flat[i*dims:(i+1)*dims])
			v, evals, err := localFrame(z, true)
			if err != nil {
				errs[i] = fmt.Errorf("manifold: sample %d: %w", i, err)
				continue
			}
			evals = evals[:min(dims, k)]

			r := reg * floats.Sum(evals)
			tmp := make([]float64, k)
			for c := 0; c < k; c++ {
				tmp[c] = floats.Sum(mat.Col(nil, c, v))
				if c < len(evals) {
					tmp[c] /= evals[c] + r
				} else {
					tmp[c] /= r
				}
			}
			wReg := make([]float64, k)
			mat.NewVecDense(k, wReg).MulVec(v, mat.NewVecDense(k, tmp))
			floats.Scale(1/floats.Sum(wReg), wReg)

			frames[i] = mlleFrame{v: v, evals: evals, wReg: wReg}
		}
	})
	if err := firstError(errs); err != nil {
		return nil, err
	}

	// eta is the median ratio of trailing to leading local variance; it
	// sets how many bottom directions count as "almost null".
	rho := make([]float64, n)
	for i, f := range frames {
		rho[i] = floats.Sum(f.evals[d:]) / floats.Sum(f.evals[:d])
	}
	eta := median(rho)

	blocks := make([]localBlock, n)
	forEachRange(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			f := frames[i]
			k := len(nbrs[i])
			s := almostNullSize(f.evals, eta) + k - len(f.evals)
			s = max(s, 1)

			vi := f.v.Slice(0, k, k-s, k)
			colSums := make([]float64, s)
			for c := range colSums {
				colSums[c] = floats.Sum(mat.Col(nil, c, vi))
			}
			alpha := floats.Norm(colSums, 2) / math.Sqrt(float64(s))

			// Householder vector taking V_i^T 1 onto alpha*1.
			h := make([]float64, s)
			for c := range h {
				h[c] = alpha - colSums[c]
			}
			if norm := floats.Norm(h, 2); norm < tol {
				clear(h)
			} else {
				floats.Scale(1/norm, h)
			}
			var vh mat.VecDense
			vh.MulVec(vi, mat.NewVecDense(s, h))

			// W_hat over [i, nbrs...]: row 0 is -1, the rest
			// V_i H_i + (1 - alpha) w_reg.
			wHat := mat.NewDense(k+1, s, nil)
			for c := 0; c < s; c++ {
				wHat.Set(0, c, -1)
			}
			for a := 0; a < k; a++ {
				for c := 0; c < s; c++ {
					wHat.Set(a+1, c, vi.At(a, c)-2*vh.AtVec(a)*h[c]+(1-alpha)*f.wReg[a])
				}
			}
			blocks[i] = outerBlock(append([]int{i}, nbrs[i]...), wHat)
		}
	})
	return blocks, nil
}

// almostNullSize counts the trailing directions whose cumulative variance
// ratio stays below eta.
func almostNullSize(evals []float64, eta float64) int {
	nev := len(evals)
	cumsum := make([]float64, nev)
	floats.CumSum(cumsum, evals)
	total := cumsum[nev-1]
	s := 0
	for c := 0; c < nev-1; c++ {
		if total/cumsum[c]-1 < eta {
			s++
		}
	}
	return s
}

// median averages the middle pair for even lengths.
func median(x []float64) float64 {
	s := slices.Clone(x)
	slices.Sort(s)
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return (s[m-1] + s[m]) / 2
}
