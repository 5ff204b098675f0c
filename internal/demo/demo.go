// Package demo runs every manifold estimator on the severed sphere, timing
// each call.
package demo

import (
	"fmt"
	"io"
	"time"

	"github.com/TrevorS/manifold"
	"github.com/TrevorS/manifold/datasets"
)

// Step is one estimator run. Name is printed with the timing line and Label
// titles the figure panel.
type Step struct {
	Name  string
	Label string
	Run   func(points [][]float64, cfg Config) (*manifold.Embedding, error)
}

// Result is a finished step.
type Result struct {
	Name      string
	Label     string
	Embedding *manifold.Embedding
	Elapsed   time.Duration
}

// Steps returns the estimators in the order they run.
func Steps() []Step {
	steps := make([]Step, 0, 6)
	for _, m := range []struct {
		method manifold.LLEMethod
		label  string
	}{
		{manifold.LLEStandard, "LLE"},
		{manifold.LLELTSA, "LTSA"},
		{manifold.LLEHessian, "Hessian LLE"},
		{manifold.LLEModified, "Modified LLE"},
	} {
		steps = append(steps, Step{Name: string(m.method), Label: m.label, Run: lle(m.method)})
	}
	return append(steps,
		Step{Name: "ISO", Label: "Isomap", Run: isomap},
		Step{Name: "MDS", Label: "MDS", Run: mds},
	)
}

func lle(method manifold.LLEMethod) func([][]float64, Config) (*manifold.Embedding, error) {
	return func(points [][]float64, cfg Config) (*manifold.Embedding, error) {
		lcfg := manifold.DefaultLLEConfig()
		lcfg.NNeighbors = cfg.Neighbors
		lcfg.Method = method
		lcfg.Workers = cfg.Workers
		return manifold.LocallyLinearEmbedding(points, lcfg)
	}
}

func isomap(points [][]float64, cfg Config) (*manifold.Embedding, error) {
	icfg := manifold.DefaultIsomapConfig()
	icfg.NNeighbors = cfg.Neighbors
	icfg.Workers = cfg.Workers
	return manifold.Isomap(points, icfg)
}

// mds scales the Euclidean distance matrix of the sample.
func mds(points [][]float64, cfg Config) (*manifold.Embedding, error) {
	n := len(points)
	flat := make([]float64, 0, 3*n)
	for _, p := range points {
		flat = append(flat, p...)
	}
	dist := manifold.ComputePairwiseDistancesParallel(flat, n, 3, manifold.EuclideanMetric{}, cfg.Workers)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = dist[i*n : (i+1)*n]
	}

	mcfg := manifold.DefaultMDSConfig()
	mcfg.MaxIter = cfg.MDSMaxIter
	mcfg.NInit = 1
	mcfg.Seed = cfg.Seed
	mcfg.Dissimilarity = manifold.DissimilarityPrecomputed
	mcfg.Workers = cfg.Workers
	return manifold.MDS(rows, mcfg)
}

// Sample draws the severed sphere for cfg.
func Sample(cfg Config) (*datasets.Sphere, error) {
	scfg := datasets.DefaultSphereConfig()
	scfg.Samples = cfg.Samples
	scfg.Seed = cfg.Seed
	return datasets.SeveredSphere(scfg)
}

// Run draws the sample and runs steps in order, writing
// "<name>: <seconds> sec" to out after each one. The first failing step
// stops the run and nothing is returned but its error.
func Run(cfg Config, steps []Step, out io.Writer) (*datasets.Sphere, []Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	sphere, err := Sample(cfg)
	if err != nil {
		return nil, nil, err
	}

	results := make([]Result, 0, len(steps))
	for _, s := range steps {
		t0 := time.Now()
		emb, err := s.Run(sphere.Points, cfg)
		elapsed := time.Since(t0)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		if _, err := fmt.Fprintf(out, "%s: %.2g sec\n", s.Name, elapsed.Seconds()); err != nil {
			return nil, nil, err
		}
		results = append(results, Result{Name: s.Name, Label: s.Label, Embedding: emb, Elapsed: elapsed})
	}
	return sphere, results, nil
}
