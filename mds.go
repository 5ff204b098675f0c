package manifold

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Dissimilarity says how MDS should read its input.
type Dissimilarity string

const (
	// DissimilarityEuclidean treats input rows as points and measures
	// Euclidean distance between them.
	DissimilarityEuclidean Dissimilarity = "euclidean"

	// DissimilarityPrecomputed treats the input as a square, symmetric,
	// zero-diagonal dissimilarity matrix.
	DissimilarityPrecomputed Dissimilarity = "precomputed"
)

// MDSConfig controls MDS.
// Start with [DefaultMDSConfig] and override the fields you need.
type MDSConfig struct {
	// NComponents is the output dimensionality. Default: 2.
	NComponents int

	// Metric selects metric SMACOF. When false, disparities are fitted by
	// isotonic regression on the dissimilarity ranks (non-metric MDS).
	// Default: true.
	Metric bool

	// NInit is the number of random restarts; the lowest-stress run wins.
	// Default: 4.
	NInit int

	// MaxIter caps SMACOF iterations per run. Default: 300.
	MaxIter int

	// Eps is the relative stress improvement below which a run stops.
	// Default: 1e-3.
	Eps float64

	// Seed drives the random initial configurations. Run r uses a stream
	// derived from Seed and r, so results do not depend on Workers.
	Seed uint64

	// Dissimilarity is "euclidean" or "precomputed". Default: "euclidean".
	Dissimilarity Dissimilarity

	// Workers bounds goroutines for the distance matrix and for running
	// restarts concurrently. 0 means runtime.NumCPU().
	Workers int
}

// DefaultMDSConfig returns the MDS defaults.
func DefaultMDSConfig() MDSConfig {
	return MDSConfig{
		NComponents:   2,
		Metric:        true,
		NInit:         4,
		MaxIter:       300,
		Eps:           1e-3,
		Dissimilarity: DissimilarityEuclidean,
	}
}

func (cfg *MDSConfig) applyDefaults() {
	if cfg.Dissimilarity == "" {
		cfg.Dissimilarity = DissimilarityEuclidean
	}
	cfg.Workers = resolveWorkers(cfg.Workers)
}

func (cfg *MDSConfig) validate() error {
	if cfg.NComponents < 1 {
		return fmt.Errorf("manifold: NComponents must be >= 1, got %d", cfg.NComponents)
	}
	if cfg.NInit < 1 {
		return fmt.Errorf("manifold: NInit must be >= 1, got %d", cfg.NInit)
	}
	if cfg.MaxIter < 1 {
		return fmt.Errorf("manifold: MaxIter must be >= 1, got %d", cfg.MaxIter)
	}
	if cfg.Eps < 0 {
		return fmt.Errorf("manifold: Eps must be >= 0, got %g", cfg.Eps)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("manifold: Workers must be >= 0, got %d", cfg.Workers)
	}
	switch cfg.Dissimilarity {
	case DissimilarityEuclidean, DissimilarityPrecomputed:
	default:
		return fmt.Errorf("manifold: invalid Dissimilarity %q", cfg.Dissimilarity)
	}
	return nil
}

// MDS embeds data so that Euclidean distances in the output approximate the
// input dissimilarities, minimizing raw stress with SMACOF (scaling by
// majorizing a complicated function).
func MDS(data [][]float64, cfg MDSConfig) (*Embedding, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	flat, n, dims, err := flatten(data)
	if err != nil {
		return nil, err
	}

	var diss []float64
	if cfg.Dissimilarity == DissimilarityPrecomputed {
		if err := checkDissimilarities(flat, n, dims); err != nil {
			return nil, err
		}
		diss = flat
	} else {
		diss = ComputePairwiseDistancesParallel(flat, n, dims, EuclideanMetric{}, cfg.Workers)
	}

	runs := make([]smacofRun, cfg.NInit)
	forEachRange(cfg.NInit, cfg.Workers, func(start, end int) {
		for r := start; r < end; r++ {
			src := rand.NewPCG(cfg.Seed, uint64(r))
			runs[r] = smacof(diss, n, cfg, src)
		}
	})

	best := runs[0]
	for _, r := range runs[1:] {
		if r.stress < best.stress {
			best = r
		}
	}
	return &Embedding{
		Points:     rows(best.x, n, cfg.NComponents),
		Stress:     best.stress,
		Iterations: best.iterations,
	}, nil
}

// checkDissimilarities validates a precomputed matrix.
func checkDissimilarities(d []float64, n, dims int) error {
	if n != dims {
		return fmt.Errorf("manifold: precomputed dissimilarities must be square, got %dx%d", n, dims)
	}
	for i := 0; i < n; i++ {
		if d[i*n+i] != 0 {
			return fmt.Errorf("manifold: precomputed dissimilarity diagonal must be 0, got %g at %d", d[i*n+i], i)
		}
		for j := i + 1; j < n; j++ {
			if a, b := d[i*n+j], d[j*n+i]; math.Abs(a-b) > 1e-12*math.Max(1, math.Abs(a)) {
				return fmt.Errorf("manifold: precomputed dissimilarities are not symmetric at (%d, %d)", i, j)
			}
			if d[i*n+j] < 0 {
				return fmt.Errorf("manifold: precomputed dissimilarities must be non-negative, got %g at (%d, %d)", d[i*n+j], i, j)
			}
		}
	}
	return nil
}

type smacofRun struct {
	x          []float64 // n x NComponents, row-major
	stress     float64
	iterations int
}

// smacof runs one SMACOF descent from a uniform [0, 1) start.
func smacof(diss []float64, n int, cfg MDSConfig, src rand.Source) smacofRun {
	p := cfg.NComponents
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: src}
	x := make([]float64, n*p)
	for i := range x {
		x[i] = uniform.Rand()
	}

	dis := make([]float64, n*n)
	disparities := diss
	if !cfg.Metric {
		disparities = make([]float64, n*n)
	}
	next := make([]float64, n*p)

	var stress, oldStress float64
	hasOld := false
	it := 0
	for it = 0; it < cfg.MaxIter; it++ {
		embeddedDistances(x, n, p, dis)
		if !cfg.Metric {
			isotonicDisparities(diss, dis, n, disparities)
		}

		stress = 0
		for i, d := range dis {
			r := d - disparities[i]
			stress += r * r
		}
		stress /= 2

		guttman(x, dis, disparities, n, p, next)
		x, next = next, x

		norm := 0.0
		for i := 0; i < n; i++ {
			norm += floats.Norm(x[i*p:(i+1)*p], 2)
		}
		if hasOld && oldStress-stress/norm < cfg.Eps {
			break
		}
		oldStress, hasOld = stress/norm, true
	}
	return smacofRun{x: x, stress: stress, iterations: min(it+1, cfg.MaxIter)}
}

// embeddedDistances fills dis with pairwise Euclidean distances of x.
func embeddedDistances(x []float64, n, p int, dis []float64) {
	for i := 0; i < n; i++ {
		dis[i*n+i] = 0
		xi := x[i*p : (i+1)*p]
		for j := i + 1; j < n; j++ {
			d := math.Sqrt(sumOfSquares(xi, x[j*p:(j+1)*p]))
			dis[i*n+j] = d
			dis[j*n+i] = d
		}
	}
}

// guttman applies the Guttman transform X' = B(X) X / n, where
// B[i][j] = -disparity/distance off the diagonal and each row of B sums to
// zero. Coincident points use distance 1e-5.
func guttman(x, dis, disparities []float64, n, p int, out []float64) {
	clear(out)
	for i := 0; i < n; i++ {
		xi := x[i*p : (i+1)*p]
		oi := out[i*p : (i+1)*p]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			d := dis[i*n+j]
			if d == 0 {
				d = 1e-5
			}
			ratio := disparities[i*n+j] / d
			xj := x[j*p : (j+1)*p]
			for c := range oi {
				oi[c] += ratio * (xi[c] - xj[c])
			}
		}
	}
	floats.Scale(1/float64(n), out)
}

// isotonicDisparities fits non-decreasing disparities to the embedded
// distances in dissimilarity order (pool adjacent violators) over the upper
// triangle, mirrors them, then rescales the full matrix so its squared sum
// is n(n-1)/2.
func isotonicDisparities(diss, dis []float64, n int, out []float64) {
	type pair struct {
		i, j int
		d    float64
	}
	pairs := make([]pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if diss[i*n+j] != 0 {
				pairs = append(pairs, pair{i, j, diss[i*n+j]})
			}
		}
	}
	slices.SortStableFunc(pairs, func(a, b pair) int {
		switch {
		case a.d < b.d:
			return -1
		case a.d > b.d:
			return 1
		}
		return 0
	})

	y := make([]float64, len(pairs))
	for a, pr := range pairs {
		y[a] = dis[pr.i*n+pr.j]
	}
	fit := poolAdjacentViolators(y)

	clear(out)
	var sq float64
	for a, pr := range pairs {
		out[pr.i*n+pr.j] = fit[a]
		out[pr.j*n+pr.i] = fit[a]
		sq += 2 * fit[a] * fit[a]
	}
	if sq == 0 {
		return
	}
	floats.Scale(math.Sqrt(float64(n*(n-1)/2)/sq), out)
}

// poolAdjacentViolators returns the least-squares non-decreasing fit of y.
func poolAdjacentViolators(y []float64) []float64 {
	type block struct {
		sum   float64
		count int
	}
	blocks := make([]block, 0, len(y))
	for _, v := range y {
		blocks = append(blocks, block{sum: v, count: 1})
		for len(blocks) > 1 {
			last, prev := blocks[len(blocks)-1], blocks[len(blocks)-2]
			if prev.sum/float64(prev.count) <= last.sum/float64(last.count) {
				break
			}
			blocks = blocks[:len(blocks)-1]
			blocks[len(blocks)-1] = block{sum: prev.sum + last.sum, count: prev.count + last.count}
		}
	}
	fit := make([]float64, 0, len(y))
	for _, b := range blocks {
		mean := b.sum / float64(b.count)
		for c := 0; c < b.count; c++ {
			fit = append(fit, mean)
		}
	}
	return fit
}
