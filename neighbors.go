package manifold

import (
	"fmt"
	"log"
	"slices"
)

// NeighborsAlgorithm selects how nearest neighbors are found.
type NeighborsAlgorithm string

const (
	NeighborsAuto     NeighborsAlgorithm = "auto"
	NeighborsBrute    NeighborsAlgorithm = "brute"
	NeighborsKDTree   NeighborsAlgorithm = "kd_tree"
	NeighborsBallTree NeighborsAlgorithm = "ball_tree"
)

// NeighborsConfig controls nearest-neighbor search.
type NeighborsConfig struct {
	// Algorithm picks the search strategy. "auto" uses a KD-tree for
	// axis-decomposable metrics in up to 60 dimensions, a ball tree for
	// other tree-compatible metrics and brute force otherwise.
	// Default: "auto".
	Algorithm NeighborsAlgorithm

	// Metric measures point distance. Default: EuclideanMetric.
	Metric DistanceMetric

	// LeafSize is the maximum number of points in a tree leaf. Default: 30.
	LeafSize int

	// Workers bounds goroutines for the brute-force distance matrix and for
	// tree queries. 0 means runtime.NumCPU().
	Workers int
}

// DefaultNeighborsConfig returns the default search settings.
func DefaultNeighborsConfig() NeighborsConfig {
	return NeighborsConfig{
		Algorithm: NeighborsAuto,
		Metric:    EuclideanMetric{},
		LeafSize:  30,
	}
}

func (cfg *NeighborsConfig) applyDefaults() {
	if cfg.Algorithm == "" {
		cfg.Algorithm = NeighborsAuto
	}
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 30
	}
	cfg.Workers = resolveWorkers(cfg.Workers)
}

func (cfg *NeighborsConfig) validate() error {
	if cfg.LeafSize < 1 {
		return fmt.Errorf("manifold: LeafSize must be >= 1, got %d", cfg.LeafSize)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("manifold: Workers must be >= 0, got %d", cfg.Workers)
	}
	switch cfg.Algorithm {
	case NeighborsAuto, NeighborsBrute:
	case NeighborsKDTree, NeighborsBallTree:
		// Cosine breaks the triangle inequality, so neither tree prunes
		// correctly with it.
		if !axisDecomposable(cfg.Metric) {
			return fmt.Errorf("manifold: metric %T is not supported by %q", cfg.Metric, cfg.Algorithm)
		}
	default:
		return fmt.Errorf("manifold: invalid neighbors Algorithm %q", cfg.Algorithm)
	}
	return nil
}

// resolve turns "auto" into a concrete strategy.
func (cfg *NeighborsConfig) resolve(dims int) NeighborsAlgorithm {
	if cfg.Algorithm != NeighborsAuto {
		return cfg.Algorithm
	}
	if !axisDecomposable(cfg.Metric) {
		return NeighborsBrute
	}
	if dims <= 60 {
		return NeighborsKDTree
	}
	return NeighborsBallTree
}

// Neighborhoods holds, for every point, its nearest other points sorted by
// (distance, index).
type Neighborhoods struct {
	Indices   [][]int
	Distances [][]float64
}

// KNeighbors finds the k nearest neighbors of every point in data, excluding
// the point itself. k must be in [1, n-1].
func KNeighbors(data [][]float64, k int, cfg NeighborsConfig) (*Neighborhoods, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	flat, n, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}
	if k < 1 || k >= n {
		return nil, fmt.Errorf("manifold: need 1 <= k < n_samples, got k=%d, n_samples=%d", k, n)
	}
	return kNeighbors(flat, n, dims, k, cfg), nil
}

// kNeighbors is KNeighbors on flat row-major data with a validated config.
func kNeighbors(flat []float64, n, dims, k int, cfg NeighborsConfig) *Neighborhoods {
	var indices [][]int
	var distances [][]float64

	switch algo := cfg.resolve(dims); algo {
	case NeighborsBrute:
		indices, distances = bruteKNN(flat, n, dims, k+1, cfg.Metric, cfg.Workers)
	default:
		var tree SpatialTree
		if algo == NeighborsKDTree {
			tree = NewKDTree(flat, n, dims, cfg.Metric, cfg.LeafSize)
		} else {
			tree = NewBallTree(flat, n, dims, cfg.Metric, cfg.LeafSize)
		}
		indices = make([][]int, n)
		distances = make([][]float64, n)
		forEachRange(n, cfg.Workers, func(start, end int) {
			idx, dist := tree.QueryKNN(flat[start*dims:end*dims], end-start, k+1)
			copy(indices[start:end], idx)
			copy(distances[start:end], dist)
		})
	}

	ambiguous := 0
	for i := range indices {
		var selfFound bool
		indices[i], distances[i], selfFound = dropSelf(i, indices[i], distances[i], k)
		if !selfFound {
			ambiguous++
		}
	}
	if ambiguous > 0 {
		log.Printf("manifold: %d point(s) have more than %d exact duplicates; self was not among their nearest candidates", ambiguous, k)
	}

	return &Neighborhoods{Indices: indices, Distances: distances}
}

// dropSelf removes i from its own candidate list of k+1 entries. When
// duplicates crowd i out, the farthest candidate is dropped instead.
func dropSelf(i int, idx []int, dist []float64, k int) ([]int, []float64, bool) {
	if pos := slices.Index(idx, i); pos >= 0 {
		idx = slices.Delete(idx, pos, pos+1)
		dist = slices.Delete(dist, pos, pos+1)
		return idx, dist, true
	}
	return idx[:min(k, len(idx))], dist[:min(k, len(dist))], false
}

// bruteKNN ranks every point against every other from the full distance
// matrix.
func bruteKNN(flat []float64, n, dims, k int, metric DistanceMetric, workers int) ([][]int, [][]float64) {
	distMatrix := ComputePairwiseDistancesParallel(flat, n, dims, metric, workers)
	indices := make([][]int, n)
	distances := make([][]float64, n)
	forEachRange(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			h := make(knnHeap, 0, k)
			row := distMatrix[i*n : (i+1)*n]
			for j, d := range row {
				h.offer(knnItem{index: j, dist: d}, k)
			}
			indices[i], distances[i] = h.drain()
		}
	})
	return indices, distances
}
