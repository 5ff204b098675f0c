package manifold

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// IsomapConfig controls Isomap.
// Start with [DefaultIsomapConfig] and override the fields you need.
type IsomapConfig struct {
	// NNeighbors is the neighborhood size of the graph. Must be >= 1 and
	// < n_samples. Default: 5.
	NNeighbors int

	// NComponents is the output dimensionality. Default: 2.
	NComponents int

	// PathMethod is "auto", "D" (Dijkstra from every node) or "FW"
	// (dense Floyd-Warshall). "auto" uses Dijkstra, which suits sparse kNN
	// graphs. Default: "auto".
	PathMethod PathMethod

	// Neighbors configures the graph's neighborhood search.
	Neighbors NeighborsConfig

	// Workers bounds goroutines for neighbor search and shortest paths.
	// 0 means runtime.NumCPU().
	Workers int
}

// DefaultIsomapConfig returns the Isomap defaults.
func DefaultIsomapConfig() IsomapConfig {
	return IsomapConfig{
		NNeighbors:  5,
		NComponents: 2,
		PathMethod:  PathAuto,
		Neighbors:   DefaultNeighborsConfig(),
	}
}

func (cfg *IsomapConfig) applyDefaults() {
	if cfg.PathMethod == "" {
		cfg.PathMethod = PathAuto
	}
	cfg.Workers = resolveWorkers(cfg.Workers)
	if cfg.Neighbors.Workers == 0 {
		cfg.Neighbors.Workers = cfg.Workers
	}
	cfg.Neighbors.applyDefaults()
}

func (cfg *IsomapConfig) validate() error {
	if cfg.NNeighbors < 1 {
		return fmt.Errorf("manifold: NNeighbors must be >= 1, got %d", cfg.NNeighbors)
	}
	if cfg.NComponents < 1 {
		return fmt.Errorf("manifold: NComponents must be >= 1, got %d", cfg.NComponents)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("manifold: Workers must be >= 0, got %d", cfg.Workers)
	}
	switch cfg.PathMethod {
	case PathAuto, PathDijkstra, PathFloydWarshall:
	default:
		return fmt.Errorf("manifold: invalid PathMethod %q", cfg.PathMethod)
	}
	return cfg.Neighbors.validate()
}

// Isomap embeds data by classical scaling of geodesic distances measured
// along the k-nearest-neighbor graph. The graph must be connected.
func Isomap(data [][]float64, cfg IsomapConfig) (*Embedding, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	flat, n, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}
	if cfg.NNeighbors >= n {
		return nil, fmt.Errorf("manifold: NNeighbors (%d) must be < n_samples (%d)", cfg.NNeighbors, n)
	}
	if cfg.NComponents > n {
		return nil, fmt.Errorf("manifold: NComponents (%d) must be <= n_samples (%d)", cfg.NComponents, n)
	}

	g := newNeighborGraph(kNeighbors(flat, n, dims, cfg.NNeighbors, cfg.Neighbors))
	if c := g.components(); c > 1 {
		return nil, fmt.Errorf("manifold: neighborhood graph has %d connected components; increase NNeighbors", c)
	}
	dist, err := g.shortestPaths(cfg.PathMethod, cfg.Workers)
	if err != nil {
		return nil, err
	}

	kernel := centeredKernel(dist, n)
	pairs, err := topEigen(kernel, n, cfg.NComponents)
	if err != nil {
		return nil, err
	}

	points := pairs.vectors
	for c, lambda := range pairs.values {
		scale := math.Sqrt(math.Max(lambda, 0))
		for i := range points {
			points[i][c] *= scale
		}
	}

	// ||K_c||_F^2 minus the captured spectrum, as in kernel PCA.
	frob := mat.Norm(kernel, 2)
	residual := frob*frob - floats.Dot(pairs.values, pairs.values)
	return &Embedding{
		Points:              points,
		ReconstructionError: math.Sqrt(math.Max(residual, 0)) / float64(n),
	}, nil
}

// centeredKernel turns a distance matrix into the double-centered Gram
// matrix -0.5 * J D^2 J of classical scaling.
func centeredKernel(dist []float64, n int) *mat.SymDense {
	k := make([]float64, n*n)
	for i, d := range dist {
		k[i] = -0.5 * d * d
	}

	rowMean := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		rowMean[i] = floats.Sum(k[i*n:(i+1)*n]) / float64(n)
		total += rowMean[i]
	}
	total /= float64(n)

	// K is symmetric, so column means equal row means.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			k[i*n+j] += total - rowMean[i] - rowMean[j]
		}
	}
	return mat.NewSymDense(n, k)
}
