package manifold

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// PathMethod selects the all-pairs shortest path algorithm used by Isomap.
type PathMethod string

const (
	PathAuto          PathMethod = "auto"
	PathDijkstra      PathMethod = "D"
	PathFloydWarshall PathMethod = "FW"
)

// neighborGraph is an undirected weighted kNN graph. When i lists j and j
// lists i with different distances, the shorter one is kept.
type neighborGraph struct {
	n     int
	edges map[[2]int]float64 // key has lo < hi
}

func newNeighborGraph(nb *Neighborhoods) *neighborGraph {
	g := &neighborGraph{n: len(nb.Indices), edges: make(map[[2]int]float64)}
	for i, idx := range nb.Indices {
		for a, j := range idx {
			if i == j {
				continue
			}
			key := [2]int{min(i, j), max(i, j)}
			d := nb.Distances[i][a]
			if old, ok := g.edges[key]; !ok || d < old {
				g.edges[key] = d
			}
		}
	}
	return g
}

// components counts connected components.
func (g *neighborGraph) components() int {
	uf := NewUnionFind(g.n)
	for key := range g.edges {
		uf.Union(key[0], key[1])
	}
	return uf.Count()
}

// shortestPaths returns the flat n*n geodesic distance matrix.
func (g *neighborGraph) shortestPaths(method PathMethod, workers int) ([]float64, error) {
	switch method {
	case PathAuto, PathDijkstra:
		return g.dijkstra(workers), nil
	case PathFloydWarshall:
		return g.floydWarshall(), nil
	default:
		return nil, fmt.Errorf("manifold: invalid PathMethod %q", method)
	}
}

// dijkstra runs a single-source search from every node, sources spread over
// workers. The graph is only read after construction.
func (g *neighborGraph) dijkstra(workers int) []float64 {
	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < g.n; i++ {
		wg.AddNode(simple.Node(i))
	}
	for key, d := range g.edges {
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(key[0]), simple.Node(key[1]), d))
	}

	n := g.n
	dist := make([]float64, n*n)
	forEachRange(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			sh := path.DijkstraFrom(simple.Node(i), wg)
			for j := 0; j < n; j++ {
				dist[i*n+j] = sh.WeightTo(int64(j))
			}
			dist[i*n+i] = 0
		}
	})
	return dist
}

// floydWarshall relaxes a dense matrix in place with a fixed k, i, j loop
// order. +Inf means no path.
func (g *neighborGraph) floydWarshall() []float64 {
	n := g.n
	dist := make([]float64, n*n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	for i := 0; i < n; i++ {
		dist[i*n+i] = 0
	}
	for key, d := range g.edges {
		dist[key[0]*n+key[1]] = d
		dist[key[1]*n+key[0]] = d
	}

	for k := 0; k < n; k++ {
		rowK := dist[k*n : (k+1)*n]
		for i := 0; i < n; i++ {
			dik := dist[i*n+k]
			if math.IsInf(dik, 1) {
				continue
			}
			rowI := dist[i*n : (i+1)*n]
			for j, dkj := range rowK {
				if via := dik + dkj; via < rowI[j] {
					rowI[j] = via
				}
			}
		}
	}
	return dist
}

// GeodesicDistances returns the flat n*n matrix of shortest-path distances
// over the k-nearest-neighbor graph of data. Unreachable pairs are +Inf.
func GeodesicDistances(data [][]float64, k int, method PathMethod, cfg NeighborsConfig) ([]float64, error) {
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
	g := newNeighborGraph(kNeighbors(flat, n, dims, k, cfg))
	return g.shortestPaths(method, cfg.Workers)
}
