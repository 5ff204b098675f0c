package manifold

import (
	"math"
	"math/rand/v2"
	"testing"
)

// squareWithCenter is a planar configuration SMACOF can reproduce exactly.
var squareWithCenter = [][]float64{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {1, 1}, {3, 1}}

func TestMDS_RecoversPlanarDistances(t *testing.T) {
	cfg := DefaultMDSConfig()
	cfg.Eps = 1e-12
	cfg.MaxIter = 1000
	cfg.Seed = 3
	emb, err := MDS(squareWithCenter, cfg)
	if err != nil {
		t.Fatal(err)
	}
	n := len(squareWithCenter)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			want := EuclideanMetric{}.Distance(squareWithCenter[i], squareWithCenter[j])
			got := EuclideanMetric{}.Distance(emb.Points[i], emb.Points[j])
			if !almostEqual(got, want, 1e-2) {
				t.Errorf("distance %d-%d = %v, want %v", i, j, got, want)
			}
		}
	}
	if emb.Stress < 0 || emb.Stress > 1e-3 {
		t.Errorf("stress = %v, want ~0", emb.Stress)
	}
	if emb.Iterations < 1 || emb.Iterations > cfg.MaxIter {
		t.Errorf("iterations = %d, want in [1, %d]", emb.Iterations, cfg.MaxIter)
	}
}

func TestMDS_DeterministicPerSeed(t *testing.T) {
	data := generateSwissRoll(60)
	run := func(seed uint64, workers int) *Embedding {
		cfg := DefaultMDSConfig()
		cfg.Seed = seed
		cfg.Workers = workers
		cfg.MaxIter = 50
		emb, err := MDS(data, cfg)
		if err != nil {
			t.Fatal(err)
		}
		return emb
	}

	a, b := run(7, 1), run(7, 4)
	for i := range a.Points {
		for c := range a.Points[i] {
			if a.Points[i][c] != b.Points[i][c] {
				t.Fatalf("point %d differs across worker counts: %v vs %v", i, a.Points[i], b.Points[i])
			}
		}
	}
	if a.Stress != b.Stress || a.Iterations != b.Iterations {
		t.Errorf("stress/iterations differ: %v/%d vs %v/%d", a.Stress, a.Iterations, b.Stress, b.Iterations)
	}

	c := run(8, 1)
	same := true
	for i := range a.Points {
		if a.Points[i][0] != c.Points[i][0] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical embeddings")
	}
}

func TestMDS_PrecomputedMatchesEuclidean(t *testing.T) {
	data := generateSwissRoll(40)
	flat, n, dims, err := flatten(data)
	if err != nil {
		t.Fatal(err)
	}
	d := rows(ComputePairwiseDistancesParallel(flat, n, dims, EuclideanMetric{}, 1), n, n)

	cfg := DefaultMDSConfig()
	cfg.NInit = 1
	cfg.MaxIter = 40
	cfg.Seed = 11
	fromPoints, err := MDS(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Dissimilarity = DissimilarityPrecomputed
	fromMatrix, err := MDS(d, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range fromPoints.Points {
		for c := range fromPoints.Points[i] {
			if fromPoints.Points[i][c] != fromMatrix.Points[i][c] {
				t.Fatalf("point %d: %v vs %v", i, fromPoints.Points[i], fromMatrix.Points[i])
			}
		}
	}
}

func TestMDS_BestOfRestarts(t *testing.T) {
	data := generateSwissRoll(50)
	cfg := DefaultMDSConfig()
	cfg.MaxIter = 30
	cfg.Seed = 5
	cfg.NInit = 4
	best, err := MDS(data, cfg)
	if err != nil {
		t.Fatal(err)
	}

	flat, n, dims, _ := flatten(data)
	diss := ComputePairwiseDistances(flat, n, dims, EuclideanMetric{})
	cfg.applyDefaults()
	for r := 0; r < cfg.NInit; r++ {
		run := smacof(diss, n, cfg, rand.NewPCG(cfg.Seed, uint64(r)))
		if run.stress < best.Stress {
			t.Errorf("run %d stress %v beats the returned %v", r, run.stress, best.Stress)
		}
	}
}

func TestMDS_NonMetric(t *testing.T) {
	data := generateSwissRoll(40)
	cfg := DefaultMDSConfig()
	cfg.Metric = false
	cfg.MaxIter = 50
	emb, err := MDS(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(emb.Points) != 40 {
		t.Fatalf("got %d rows", len(emb.Points))
	}
	for i, p := range emb.Points {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("row %d not finite: %v", i, p)
			}
		}
	}
	if emb.Stress < 0 || math.IsNaN(emb.Stress) {
		t.Errorf("stress = %v", emb.Stress)
	}
}

func TestMDS_InvalidInput(t *testing.T) {
	square := [][]float64{{0, 1, 2}, {1, 0, 1}, {2, 1, 0}}
	tests := []struct {
		name   string
		data   [][]float64
		modify func(*MDSConfig)
	}{
		{"zero components", square, func(c *MDSConfig) { c.NComponents = 0 }},
		{"zero restarts", square, func(c *MDSConfig) { c.NInit = 0 }},
		{"zero iterations", square, func(c *MDSConfig) { c.MaxIter = 0 }},
		{"negative eps", square, func(c *MDSConfig) { c.Eps = -1 }},
		{"negative workers", square, func(c *MDSConfig) { c.Workers = -1 }},
		{"bad dissimilarity", square, func(c *MDSConfig) { c.Dissimilarity = "cosine" }},
		{"empty", nil, func(*MDSConfig) {}},
		{"precomputed not square", [][]float64{{0, 1, 2}, {1, 0, 1}}, func(c *MDSConfig) {
			c.Dissimilarity = DissimilarityPrecomputed
		}},
		{"precomputed nonzero diagonal", [][]float64{{1, 1}, {1, 0}}, func(c *MDSConfig) {
			c.Dissimilarity = DissimilarityPrecomputed
		}},
		{"precomputed asymmetric", [][]float64{{0, 1}, {2, 0}}, func(c *MDSConfig) {
			c.Dissimilarity = DissimilarityPrecomputed
		}},
		{"precomputed negative", [][]float64{{0, -1}, {-1, 0}}, func(c *MDSConfig) {
			c.Dissimilarity = DissimilarityPrecomputed
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMDSConfig()
			tt.modify(&cfg)
			if _, err := MDS(tt.data, cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGuttman_FixedPointOfExactConfiguration(t *testing.T) {
	// When embedded distances equal the disparities, B(X)X/n is X centered.
	x := []float64{0, 0, 3, 0, 0, 4}
	n, p := 3, 2
	dis := make([]float64, n*n)
	embeddedDistances(x, n, p, dis)
	out := make([]float64, n*p)
	guttman(x, dis, dis, n, p, out)
	want := []float64{-1, -4.0 / 3, 2, -4.0 / 3, -1, 8.0 / 3}
	for i := range want {
		if !almostEqual(out[i], want[i], floatTol) {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestIsotonicDisparities(t *testing.T) {
	// Dissimilarity order is (0,1) < (0,2) < (1,2); embedded distances
	// violate it between the last two pairs.
	n := 3
	diss := []float64{0, 1, 2, 1, 0, 3, 2, 3, 0}
	dis := []float64{0, 1, 4, 1, 0, 2, 4, 2, 0}
	out := make([]float64, n*n)
	isotonicDisparities(diss, dis, n, out)

	if out[0*n+1] > out[0*n+2] || !almostEqual(out[0*n+2], out[1*n+2], floatTol) {
		t.Errorf("disparities not monotone in dissimilarity order: %v", out)
	}
	var sq float64
	for i := 0; i < n; i++ {
		if out[i*n+i] != 0 {
			t.Errorf("diagonal %d = %v", i, out[i*n+i])
		}
		for j := 0; j < n; j++ {
			if out[i*n+j] != out[j*n+i] {
				t.Errorf("asymmetric at %d,%d", i, j)
			}
			sq += out[i*n+j] * out[i*n+j]
		}
	}
	if !almostEqual(sq, float64(n*(n-1)/2), 1e-9) {
		t.Errorf("squared sum = %v, want %d", sq, n*(n-1)/2)
	}
}

func TestPoolAdjacentViolators(t *testing.T) {
	tests := []struct {
		y, want []float64
	}{
		{nil, []float64{}},
		{[]float64{1, 2, 3}, []float64{1, 2, 3}},
		{[]float64{1, 3, 2, 4}, []float64{1, 2.5, 2.5, 4}},
		{[]float64{3, 2, 1}, []float64{2, 2, 2}},
		{[]float64{1, 4, 2, 0, 5}, []float64{1, 2, 2, 2, 5}},
	}
	for _, tt := range tests {
		got := poolAdjacentViolators(tt.y)
		if len(got) != len(tt.want) {
			t.Fatalf("PAV(%v) = %v, want %v", tt.y, got, tt.want)
		}
		for i := range got {
			if !almostEqual(got[i], tt.want[i], floatTol) {
				t.Errorf("PAV(%v) = %v, want %v", tt.y, got, tt.want)
				break
			}
		}
	}
}
