package manifold

import (
	"math"
	"slices"
)

// KDTree indexes points for k-nearest-neighbor queries. Points live in a flat
// row-major array and are reordered through a permutation array.
//
// Nodes form an implicit binary tree: node i has children 2*i+1 and 2*i+2,
// and each node keeps its axis-aligned bounding box.
type KDTree struct {
	data     []float64
	n        int
	dims     int
	leafSize int
	metric   DistanceMetric
	idxArray []int
	nodes    []NodeData
	// boundsMin[node*dims+j] and boundsMax[node*dims+j] bound feature j.
	boundsMin []float64
	boundsMax []float64
	numNodes  int
}

// NewKDTree builds a KD-tree over n points of dimensionality dims. The data
// is copied. metric should be axis-decomposable (see KNeighbors).
func NewKDTree(data []float64, n, dims int, metric DistanceMetric, leafSize int) *KDTree {
	if leafSize < 1 {
		leafSize = 1
	}
	maxNodes := maxTreeNodes(n, leafSize)
	t := &KDTree{
		data:      slices.Clone(data),
		n:         n,
		dims:      dims,
		leafSize:  leafSize,
		metric:    metric,
		idxArray:  identityPermutation(n),
		nodes:     make([]NodeData, maxNodes),
		boundsMin: make([]float64, maxNodes*dims),
		boundsMax: make([]float64, maxNodes*dims),
	}
	if n > 0 {
		t.build(0, 0, n)
		t.numNodes = countTreeNodes(t.nodes, 0)
	}
	return t
}

func (t *KDTree) build(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.boundsMin = append(t.boundsMin, make([]float64, t.dims)...)
		t.boundsMax = append(t.boundsMax, make([]float64, t.dims)...)
	}
	t.fitBounds(nodeID, start, end)

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true}
		return
	}

	// Split at the median of the widest dimension.
	base := nodeID * t.dims
	splitDim, widest := 0, -1.0
	for d := 0; d < t.dims; d++ {
		if spread := t.boundsMax[base+d] - t.boundsMin[base+d]; spread > widest {
			widest, splitDim = spread, d
		}
	}
	sortIndicesByFeature(t.idxArray[start:end], t.data, t.dims, splitDim)
	mid := start + count/2

	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end}
	t.build(2*nodeID+1, start, mid)
	t.build(2*nodeID+2, mid, end)
}

func (t *KDTree) fitBounds(nodeID, start, end int) {
	base := nodeID * t.dims
	for d := 0; d < t.dims; d++ {
		t.boundsMin[base+d] = math.Inf(1)
		t.boundsMax[base+d] = math.Inf(-1)
	}
	for _, p := range t.idxArray[start:end] {
		for d := 0; d < t.dims; d++ {
			v := t.data[p*t.dims+d]
			t.boundsMin[base+d] = math.Min(t.boundsMin[base+d], v)
			t.boundsMax[base+d] = math.Max(t.boundsMax[base+d], v)
		}
	}
}

// sortIndicesByFeature orders idx by feature dim, ties by index so builds are
// reproducible.
func sortIndicesByFeature(idx []int, data []float64, dims, dim int) {
	slices.SortFunc(idx, func(a, b int) int {
		va, vb := data[a*dims+dim], data[b*dims+dim]
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		}
		return a - b
	})
}

func (t *KDTree) Data() []float64           { return t.data }
func (t *KDTree) NumPoints() int            { return t.n }
func (t *KDTree) NumFeatures() int          { return t.dims }
func (t *KDTree) IdxArray() []int           { return t.idxArray }
func (t *KDTree) NodeDataArray() []NodeData { return t.nodes }
func (t *KDTree) NumNodes() int             { return t.numNodes }

// QueryKNN finds the k nearest indexed points for each query row.
func (t *KDTree) QueryKNN(queryData []float64, queryRows, k int) ([][]int, [][]float64) {
	indices := make([][]int, queryRows)
	distances := make([][]float64, queryRows)
	for q := 0; q < queryRows; q++ {
		h := make(knnHeap, 0, k)
		if t.n > 0 && k > 0 {
			t.search(0, queryData[q*t.dims:(q+1)*t.dims], k, &h)
		}
		indices[q], distances[q] = h.drain()
	}
	return indices, distances
}

func (t *KDTree) search(nodeID int, query []float64, k int, h *knnHeap) {
	if nodeID >= len(t.nodes) {
		return
	}
	node := t.nodes[nodeID]
	if node.IdxStart == node.IdxEnd && nodeID != 0 {
		return
	}

	if node.IsLeaf {
		for _, p := range t.idxArray[node.IdxStart:node.IdxEnd] {
			d := t.metric.Distance(query, t.data[p*t.dims:(p+1)*t.dims])
			h.offer(knnItem{index: p, dist: d}, k)
		}
		return
	}

	near, far := 2*nodeID+1, 2*nodeID+2
	nearRdist, farRdist := t.MinRdistPoint(near, query), t.MinRdistPoint(far, query)
	if farRdist < nearRdist {
		near, far = far, near
		farRdist = nearRdist
	}

	t.search(near, query, k, h)
	// <= keeps equal-distance candidates reachable for the index tie-break.
	if !h.full(k) || farRdist <= t.metric.DistToRdist(h.worst()) {
		t.search(far, query, k, h)
	}
}

// MinRdistPoint is a lower bound, in reduced-distance space, on the distance
// from point to anything inside node's bounding box.
func (t *KDTree) MinRdistPoint(node int, point []float64) float64 {
	if node >= len(t.nodes) {
		return math.Inf(1)
	}
	base := node * t.dims
	gap := func(j int) float64 {
		lo, hi := t.boundsMin[base+j], t.boundsMax[base+j]
		switch {
		case point[j] < lo:
			return lo - point[j]
		case point[j] > hi:
			return point[j] - hi
		}
		return 0
	}

	var rdist float64
	if _, ok := t.metric.(ChebyshevMetric); ok {
		for j := 0; j < t.dims; j++ {
			rdist = math.Max(rdist, gap(j))
		}
		return rdist
	}
	p := metricPower(t.metric)
	for j := 0; j < t.dims; j++ {
		g := gap(j)
		if p == 2 {
			rdist += g * g
		} else {
			rdist += math.Pow(g, p)
		}
	}
	return rdist
}

// metricPower is the Minkowski exponent matching the metric's reduced
// distance: 2 for Euclidean, 1 for Manhattan.
func metricPower(m DistanceMetric) float64 {
	switch v := m.(type) {
	case ManhattanMetric:
		return 1
	case MinkowskiMetric:
		return v.P
	default:
		return 2
	}
}
