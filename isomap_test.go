package manifold

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func linePoints(n int) [][]float64 {
	data := make([][]float64, n)
	for i := range data {
		data[i] = []float64{float64(i), 0, 0}
	}
	return data
}

func TestIsomap_LinePreservesDistances(t *testing.T) {
	data := linePoints(12)
	for _, method := range []PathMethod{PathAuto, PathDijkstra, PathFloydWarshall} {
		cfg := DefaultIsomapConfig()
		cfg.NNeighbors = 2
		cfg.NComponents = 1
		cfg.PathMethod = method
		emb, err := Isomap(data, cfg)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}
		for i := range data {
			for j := range data {
				got := math.Abs(emb.Points[i][0] - emb.Points[j][0])
				want := math.Abs(float64(i - j))
				if !almostEqual(got, want, 1e-8) {
					t.Fatalf("%s: |y%d - y%d| = %v, want %v", method, i, j, got, want)
				}
			}
		}
		if !almostEqual(emb.ReconstructionError, 0, 1e-5) {
			t.Errorf("%s: reconstruction error %v, want 0 for a line", method, emb.ReconstructionError)
		}
	}
}

func TestIsomap_SwissRollShape(t *testing.T) {
	data := generateSwissRoll(200)
	cfg := DefaultIsomapConfig()
	cfg.NNeighbors = 10
	emb, err := Isomap(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(emb.Points) != 200 {
		t.Fatalf("got %d rows", len(emb.Points))
	}
	for c := 0; c < 2; c++ {
		col := make([]float64, len(emb.Points))
		for i, p := range emb.Points {
			col[i] = p[c]
		}
		// Classical scaling centers the embedding.
		if m := floats.Sum(col) / float64(len(col)); !almostEqual(m, 0, 1e-8) {
			t.Errorf("column %d mean %v, want 0", c, m)
		}
	}
}

func TestIsomap_DisconnectedGraph(t *testing.T) {
	data := [][]float64{{0}, {1}, {2}, {100}, {101}, {102}}
	cfg := DefaultIsomapConfig()
	cfg.NNeighbors = 2
	cfg.NComponents = 1
	if _, err := Isomap(data, cfg); err == nil {
		t.Error("expected error for a disconnected neighborhood graph")
	}
}

func TestIsomap_InvalidConfig(t *testing.T) {
	data := linePoints(5)
	tests := []struct {
		name   string
		modify func(*IsomapConfig)
	}{
		{"zero neighbors", func(c *IsomapConfig) { c.NNeighbors = 0 }},
		{"too many neighbors", func(c *IsomapConfig) { c.NNeighbors = 5 }},
		{"zero components", func(c *IsomapConfig) { c.NComponents = 0 }},
		{"components over samples", func(c *IsomapConfig) { c.NNeighbors = 2; c.NComponents = 6 }},
		{"bad path method", func(c *IsomapConfig) { c.PathMethod = "BF" }},
		{"negative workers", func(c *IsomapConfig) { c.Workers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultIsomapConfig()
			tt.modify(&cfg)
			if _, err := Isomap(data, cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGeodesicDistances_DijkstraMatchesFloydWarshall(t *testing.T) {
	data := generateSwissRoll(120)
	d, err := GeodesicDistances(data, 6, PathDijkstra, DefaultNeighborsConfig())
	if err != nil {
		t.Fatal(err)
	}
	fw, err := GeodesicDistances(data, 6, PathFloydWarshall, DefaultNeighborsConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := range d {
		if math.IsInf(d[i], 1) != math.IsInf(fw[i], 1) {
			t.Fatalf("entry %d: dijkstra %v, floyd-warshall %v", i, d[i], fw[i])
		}
		if !math.IsInf(d[i], 1) && !almostEqual(d[i], fw[i], 1e-9) {
			t.Fatalf("entry %d: dijkstra %v, floyd-warshall %v", i, d[i], fw[i])
		}
	}
}

func TestGeodesicDistances_Unreachable(t *testing.T) {
	data := [][]float64{{0}, {1}, {10}, {11}}
	for _, method := range []PathMethod{PathDijkstra, PathFloydWarshall} {
		d, err := GeodesicDistances(data, 1, method, DefaultNeighborsConfig())
		if err != nil {
			t.Fatal(err)
		}
		if d[0*4+1] != 1 || d[2*4+3] != 1 {
			t.Errorf("%s: within-pair distances %v %v, want 1", method, d[1], d[11])
		}
		if !math.IsInf(d[0*4+2], 1) || !math.IsInf(d[3*4+1], 1) {
			t.Errorf("%s: cross-pair distances should be +Inf, got %v", method, d)
		}
		for i := 0; i < 4; i++ {
			if d[i*4+i] != 0 {
				t.Errorf("%s: diagonal %d = %v", method, i, d[i*4+i])
			}
		}
	}
}

func TestGeodesicDistances_InvalidK(t *testing.T) {
	data := linePoints(4)
	for _, k := range []int{0, 4} {
		if _, err := GeodesicDistances(data, k, PathAuto, DefaultNeighborsConfig()); err == nil {
			t.Errorf("k=%d: expected error", k)
		}
	}
	if _, err := GeodesicDistances(data, 1, "BF", DefaultNeighborsConfig()); err == nil {
		t.Error("expected error for unknown path method")
	}
}

func TestNeighborGraph_KeepsShorterEdge(t *testing.T) {
	nb := &Neighborhoods{
		Indices:   [][]int{{1}, {0}, {1}},
		Distances: [][]float64{{2}, {1.5}, {3}},
	}
	g := newNeighborGraph(nb)
	if len(g.edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(g.edges))
	}
	if d := g.edges[[2]int{0, 1}]; d != 1.5 {
		t.Errorf("edge 0-1 = %v, want 1.5", d)
	}
	if d := g.edges[[2]int{1, 2}]; d != 3 {
		t.Errorf("edge 1-2 = %v, want 3", d)
	}
	if c := g.components(); c != 1 {
		t.Errorf("components = %d, want 1", c)
	}
}

func TestCenteredKernel_RowsSumToZero(t *testing.T) {
	data := generateFlatData(15, 3)
	dist := ComputePairwiseDistances(data, 15, 3, EuclideanMetric{})
	k := centeredKernel(dist, 15)
	for i := 0; i < 15; i++ {
		var s float64
		for j := 0; j < 15; j++ {
			s += k.At(i, j)
		}
		if !almostEqual(s, 0, 1e-8) {
			t.Errorf("row %d sums to %v", i, s)
		}
	}
}
