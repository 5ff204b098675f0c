package manifold

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LLEMethod selects the Locally Linear Embedding variant.
type LLEMethod string

const (
	LLEStandard LLEMethod = "standard"
	LLEHessian  LLEMethod = "hessian"
	LLEModified LLEMethod = "modified"
	LLELTSA     LLEMethod = "ltsa"
)

// LLEConfig controls LocallyLinearEmbedding.
// Start with [DefaultLLEConfig] and override the fields you need.
type LLEConfig struct {
	// NNeighbors is the neighborhood size. Must be >= 1 and < n_samples.
	// Hessian LLE needs NNeighbors > NComponents*(NComponents+3)/2 and
	// modified LLE needs NNeighbors >= NComponents. Default: 5.
	NNeighbors int

	// NComponents is the output dimensionality. Must be <= the input
	// dimensionality. Default: 2.
	NComponents int

	// Method is one of "standard", "hessian", "modified", "ltsa".
	// Default: "standard".
	Method LLEMethod

	// Reg regularizes the local Gram matrices of the standard and modified
	// variants, scaled by their trace. Must be >= 0. Default: 1e-3.
	Reg float64

	// HessianTol leaves Hessian estimator columns whose sum is below it
	// unnormalized. Default: 1e-4.
	HessianTol float64

	// ModifiedTol is the Householder vector norm below which modified LLE
	// skips the reflection. Default: 1e-12.
	ModifiedTol float64

	// Neighbors configures the neighborhood search. Metric must stay
	// Euclidean-compatible for the local geometry to make sense.
	Neighbors NeighborsConfig

	// Workers bounds goroutines for neighbor search and local fits.
	// 0 means runtime.NumCPU().
	Workers int
}

// DefaultLLEConfig returns the standard-LLE defaults.
func DefaultLLEConfig() LLEConfig {
	return LLEConfig{
		NNeighbors:  5,
		NComponents: 2,
		Method:      LLEStandard,
		Reg:         1e-3,
		HessianTol:  1e-4,
		ModifiedTol: 1e-12,
		Neighbors:   DefaultNeighborsConfig(),
	}
}

func (cfg *LLEConfig) applyDefaults() {
	if cfg.Method == "" {
		cfg.Method = LLEStandard
	}
	if cfg.HessianTol == 0 {
		cfg.HessianTol = 1e-4
	}
	if cfg.ModifiedTol == 0 {
		cfg.ModifiedTol = 1e-12
	}
	cfg.Workers = resolveWorkers(cfg.Workers)
	if cfg.Neighbors.Workers == 0 {
		cfg.Neighbors.Workers = cfg.Workers
	}
	cfg.Neighbors.applyDefaults()
}

func (cfg *LLEConfig) validate() error {
	if cfg.NNeighbors < 1 {
		return fmt.Errorf("manifold: NNeighbors must be >= 1, got %d", cfg.NNeighbors)
	}
	if cfg.NComponents < 1 {
		return fmt.Errorf("manifold: NComponents must be >= 1, got %d", cfg.NComponents)
	}
	if cfg.Reg < 0 {
		return fmt.Errorf("manifold: Reg must be >= 0, got %g", cfg.Reg)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("manifold: Workers must be >= 0, got %d", cfg.Workers)
	}
	switch cfg.Method {
	case LLEStandard, LLELTSA:
	case LLEHessian:
		d := cfg.NComponents
		if cfg.NNeighbors <= d*(d+3)/2 {
			return fmt.Errorf("manifold: hessian LLE needs NNeighbors > NComponents*(NComponents+3)/2 = %d, got %d", d*(d+3)/2, cfg.NNeighbors)
		}
	case LLEModified:
		if cfg.NNeighbors < cfg.NComponents {
			return fmt.Errorf("manifold: modified LLE needs NNeighbors >= NComponents, got %d < %d", cfg.NNeighbors, cfg.NComponents)
		}
		if cfg.Reg == 0 {
			return fmt.Errorf("manifold: modified LLE needs Reg > 0")
		}
	default:
		return fmt.Errorf("manifold: invalid LLE Method %q", cfg.Method)
	}
	return cfg.Neighbors.validate()
}

// LocallyLinearEmbedding embeds data into cfg.NComponents dimensions with
// the selected LLE variant. Every variant builds a sparse symmetric
// alignment matrix M from per-neighborhood fits and returns the eigenvectors
// of M for the smallest non-trivial eigenvalues.
func LocallyLinearEmbedding(data [][]float64, cfg LLEConfig) (*Embedding, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	flat, n, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}
	if cfg.NComponents > dims {
		return nil, fmt.Errorf("manifold: NComponents (%d) must be <= input dimension (%d)", cfg.NComponents, dims)
	}
	if cfg.NNeighbors >= n {
		return nil, fmt.Errorf("manifold: NNeighbors (%d) must be < n_samples (%d)", cfg.NNeighbors, n)
	}
	if cfg.NComponents+1 > n {
		return nil, fmt.Errorf("manifold: need more than NComponents (%d) samples, got %d", cfg.NComponents, n)
	}

	nbrs := kNeighbors(flat, n, dims, cfg.NNeighbors, cfg.Neighbors).Indices

	var blocks []localBlock
	switch cfg.Method {
	case LLEStandard:
		blocks, err = standardBlocks(flat, dims, nbrs, cfg.Reg, cfg.Workers)
	case LLEHessian:
		blocks, err = hessianBlocks(flat, dims, nbrs, cfg.NComponents, cfg.HessianTol, cfg.Workers)
	case LLEModified:
		blocks, err = modifiedBlocks(flat, dims, nbrs, cfg.NComponents, cfg.Reg, cfg.ModifiedTol, cfg.Workers)
	case LLELTSA:
		blocks, err = ltsaBlocks(flat, dims, nbrs, cfg.NComponents, cfg.Workers)
	}
	if err != nil {
		return nil, err
	}

	pairs, err := bottomEigen(assemble(n, blocks), n, cfg.NComponents, 1)
	if err != nil {
		return nil, err
	}
	return &Embedding{
		Points:              pairs.vectors,
		ReconstructionError: floats.Sum(pairs.values),
	}, nil
}

// localBlock is one neighborhood's additive contribution to the alignment
// matrix: M[idx[a], idx[b]] += vals[a*len(idx)+b].
type localBlock struct {
	idx  []int
	vals []float64
}

// outerBlock builds the contribution W*W^T of a |idx| x m weight matrix.
func outerBlock(idx []int, w mat.Matrix) localBlock {
	var p mat.Dense
	p.Mul(w, w.T())
	return localBlock{idx: idx, vals: p.RawMatrix().Data}
}

// assemble sums the blocks, in order, into the dense symmetric alignment
// matrix.
func assemble(n int, blocks []localBlock) *mat.SymDense {
	m := make([]float64, n*n)
	for _, b := range blocks {
		k := len(b.idx)
		for a, ia := range b.idx {
			for c, ic := range b.idx {
				m[ia*n+ic] += b.vals[a*k+c]
			}
		}
	}
	return mat.NewSymDense(n, m)
}

// neighborhood copies the rows of idx from flat data into a |idx| x dims
// matrix, each row minus origin. A nil origin subtracts the rows' mean.
func neighborhood(flat []float64, dims int, idx []int, origin []float64) *mat.Dense {
	k := len(idx)
	z := mat.NewDense(k, dims, nil)
	for a, p := range idx {
		z.SetRow(a, flat[p*dims:(p+1)*dims])
	}
	if origin == nil {
		origin = make([]float64, dims)
		for j := 0; j < dims; j++ {
			origin[j] = floats.Sum(mat.Col(nil, j, z)) / float64(k)
		}
	}
	for a := 0; a < k; a++ {
		for j := 0; j < dims; j++ {
			z.Set(a, j, z.At(a, j)-origin[j])
		}
	}
	return z
}

// BarycenterWeights returns, for each point, the weights that best
// reconstruct it as an affine combination of its neighbors: the solution of
// (G + R*I) w = 1 normalized to sum 1, where G is the local Gram matrix and
// R = reg*trace(G) (reg alone when the trace is 0).
func BarycenterWeights(data [][]float64, neighbors [][]int, reg float64) ([][]float64, error) {
	flat, n, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}
	if len(neighbors) != n {
		return nil, fmt.Errorf("manifold: got %d neighbor lists for %d samples", len(neighbors), n)
	}
	out := make([][]float64, n)
	for i := range out {
		if out[i], err = barycenter(flat, dims, i, neighbors[i], reg); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func barycenter(flat []float64, dims, i int, nbrs []int, reg float64) ([]float64, error) {
	k := len(nbrs)
	z := neighborhood(flat, dims, nbrs, flat[i*dims:(i+1)*dims])

	g := mat.NewSymDense(k, nil)
	g.SymOuterK(1, z)
	trace := mat.Trace(g)
	r := reg
	if trace > 0 {
		r = reg * trace
	}
	for a := 0; a < k; a++ {
		g.SetSym(a, a, g.At(a, a)+r)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(g); !ok {
		return nil, fmt.Errorf("manifold: local Gram matrix of sample %d is singular; increase Reg", i)
	}
	ones := mat.NewVecDense(k, nil)
	for a := 0; a < k; a++ {
		ones.SetVec(a, 1)
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, ones); err != nil {
		return nil, fmt.Errorf("manifold: solving barycenter weights of sample %d: %w", i, err)
	}
	weights := make([]float64, k)
	for a := range weights {
		weights[a] = w.AtVec(a)
	}
	floats.Scale(1/floats.Sum(weights), weights)
	return weights, nil
}

// standardBlocks contributes (e_i - W_i)(e_i - W_i)^T per point, which sums
// to (I - W)^T (I - W).
func standardBlocks(flat []float64, dims int, nbrs [][]int, reg float64, workers int) ([]localBlock, error) {
	n := len(nbrs)
	blocks := make([]localBlock, n)
	errs := make([]error, n)
	forEachRange(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			w, err := barycenter(flat, dims, i, nbrs[i], reg)
			if err != nil {
				errs[i] = err
				continue
			}
			idx := append([]int{i}, nbrs[i]...)
			col := mat.NewDense(len(idx), 1, nil)
			col.Set(0, 0, 1)
			for a, v := range w {
				col.Set(a+1, 0, -v)
			}
			blocks[i] = outerBlock(idx, col)
		}
	})
	return blocks, firstError(errs)
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
