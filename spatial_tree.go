package manifold

// NodeData describes one node of a spatial index.
type NodeData struct {
	IdxStart, IdxEnd int
	IsLeaf           bool
	Radius           float64 // ball tree only
}

// SpatialTree is the query side shared by KDTree and BallTree.
type SpatialTree interface {
	// QueryKNN returns the k nearest indexed points for each of the
	// queryRows rows of queryData, sorted by (distance, index).
	QueryKNN(queryData []float64, queryRows, k int) (indices [][]int, distances [][]float64)

	Data() []float64
	NumPoints() int
	NumFeatures() int

	// IdxArray maps tree-order positions back to original point indices.
	IdxArray() []int

	NodeDataArray() []NodeData
}

// maxTreeNodes bounds the node count of an array-backed binary tree over n
// points with the given leaf size.
func maxTreeNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	leaves := (n + leafSize - 1) / leafSize
	depth := 0
	for v := 1; v < leaves; v *= 2 {
		depth++
	}
	return (1 << (depth + 1)) - 1 + 2
}

// countTreeNodes counts nodes the build actually initialized below nodeID.
func countTreeNodes(nodes []NodeData, nodeID int) int {
	if nodeID >= len(nodes) {
		return 0
	}
	nd := nodes[nodeID]
	if nd.IdxStart == 0 && nd.IdxEnd == 0 && nodeID != 0 {
		return 0
	}
	if nd.IsLeaf {
		return 1
	}
	return 1 + countTreeNodes(nodes, 2*nodeID+1) + countTreeNodes(nodes, 2*nodeID+2)
}

// identityPermutation returns [0, 1, ..., n-1].
func identityPermutation(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
