package manifold

import (
	"math"
	"slices"
)

// BallTree indexes points for k-nearest-neighbor queries with any metric
// that satisfies the triangle inequality. Each node keeps a centroid and the
// radius of the smallest centroid-centered ball holding its points.
//
// Nodes form an implicit binary tree: node i has children 2*i+1 and 2*i+2.
type BallTree struct {
	data      []float64
	n         int
	dims      int
	leafSize  int
	metric    DistanceMetric
	idxArray  []int
	nodes     []NodeData
	centroids []float64 // centroids[node*dims : (node+1)*dims]
	numNodes  int
}

// NewBallTree builds a ball tree over n points of dimensionality dims. The
// data is copied.
func NewBallTree(data []float64, n, dims int, metric DistanceMetric, leafSize int) *BallTree {
	if leafSize < 1 {
		leafSize = 1
	}
	maxNodes := maxTreeNodes(n, leafSize)
	t := &BallTree{
		data:      slices.Clone(data),
		n:         n,
		dims:      dims,
		leafSize:  leafSize,
		metric:    metric,
		idxArray:  identityPermutation(n),
		nodes:     make([]NodeData, maxNodes),
		centroids: make([]float64, maxNodes*dims),
	}
	if n > 0 {
		t.build(0, 0, n)
		t.numNodes = countTreeNodes(t.nodes, 0)
	}
	return t
}

func (t *BallTree) build(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, NodeData{})
		t.centroids = append(t.centroids, make([]float64, t.dims)...)
	}

	centroid := t.centroid(nodeID, start, end)
	var radius float64
	for _, p := range t.idxArray[start:end] {
		radius = math.Max(radius, t.metric.Distance(centroid, t.point(p)))
	}

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, IsLeaf: true, Radius: radius}
		return
	}
	t.nodes[nodeID] = NodeData{IdxStart: start, IdxEnd: end, Radius: radius}

	sortIndicesByFeature(t.idxArray[start:end], t.data, t.dims, t.widestFeature(start, end))
	mid := start + count/2
	t.build(2*nodeID+1, start, mid)
	t.build(2*nodeID+2, mid, end)
}

func (t *BallTree) point(p int) []float64 { return t.data[p*t.dims : (p+1)*t.dims] }

// centroid stores and returns the mean of idxArray[start:end].
func (t *BallTree) centroid(nodeID, start, end int) []float64 {
	c := t.centroids[nodeID*t.dims : (nodeID+1)*t.dims]
	clear(c)
	for _, p := range t.idxArray[start:end] {
		for d, v := range t.point(p) {
			c[d] += v
		}
	}
	count := float64(end - start)
	for d := range c {
		c[d] /= count
	}
	return c
}

func (t *BallTree) widestFeature(start, end int) int {
	best, bestSpread := 0, -1.0
	for d := 0; d < t.dims; d++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range t.idxArray[start:end] {
			v := t.data[p*t.dims+d]
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		if hi-lo > bestSpread {
			best, bestSpread = d, hi-lo
		}
	}
	return best
}

func (t *BallTree) Data() []float64           { return t.data }
func (t *BallTree) NumPoints() int            { return t.n }
func (t *BallTree) NumFeatures() int          { return t.dims }
func (t *BallTree) IdxArray() []int           { return t.idxArray }
func (t *BallTree) NodeDataArray() []NodeData { return t.nodes }
func (t *BallTree) NumNodes() int             { return t.numNodes }

// QueryKNN finds the k nearest indexed points for each query row.
func (t *BallTree) QueryKNN(queryData []float64, queryRows, k int) ([][]int, [][]float64) {
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

func (t *BallTree) search(nodeID int, query []float64, k int, h *knnHeap) {
	if nodeID >= len(t.nodes) {
		return
	}
	node := t.nodes[nodeID]
	if node.IdxStart == node.IdxEnd && nodeID != 0 {
		return
	}

	if node.IsLeaf {
		for _, p := range t.idxArray[node.IdxStart:node.IdxEnd] {
			h.offer(knnItem{index: p, dist: t.metric.Distance(query, t.point(p))}, k)
		}
		return
	}

	near, far := 2*nodeID+1, 2*nodeID+2
	nearDist, farDist := t.MinDistPoint(near, query), t.MinDistPoint(far, query)
	if farDist < nearDist {
		near, far = far, near
		farDist = nearDist
	}

	t.search(near, query, k, h)
	if !h.full(k) || farDist <= h.worst() {
		t.search(far, query, k, h)
	}
}

// MinDistPoint is a lower bound on the distance from point to anything
// inside node's ball.
func (t *BallTree) MinDistPoint(node int, point []float64) float64 {
	if node >= len(t.nodes) {
		return math.Inf(1)
	}
	c := t.centroids[node*t.dims : (node+1)*t.dims]
	return math.Max(0, t.metric.Distance(point, c)-t.nodes[node].Radius)
}

// MinRdistPoint is MinDistPoint in reduced-distance space.
func (t *BallTree) MinRdistPoint(node int, point []float64) float64 {
	return t.metric.DistToRdist(t.MinDistPoint(node, point))
}
