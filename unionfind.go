package manifold

// UnionFind is a disjoint-set forest with path compression and union by
// size. Isomap uses it to count connected components of the neighborhood
// graph.
type UnionFind struct {
	parent []int
	size   []int
	sets   int
}

// NewUnionFind creates n singleton sets.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	size := make([]int, n)
	for i := range parent {
		parent[i] = -1 // root
		size[i] = 1
	}
	return &UnionFind{parent: parent, size: size, sets: n}
}

// Find returns the root of x's set.
func (uf *UnionFind) Find(x int) int {
	root := x
	for uf.parent[root] != -1 {
		root = uf.parent[root]
	}
	for uf.parent[x] != -1 {
		x, uf.parent[x] = uf.parent[x], root
	}
	return root
}

// Union merges the sets of x and y, attaching the smaller under the larger,
// and returns the surviving root.
func (uf *UnionFind) Union(x, y int) int {
	rootX, rootY := uf.Find(x), uf.Find(y)
	if rootX == rootY {
		return rootX
	}
	if uf.size[rootX] < uf.size[rootY] {
		rootX, rootY = rootY, rootX
	}
	uf.parent[rootY] = rootX
	uf.size[rootX] += uf.size[rootY]
	uf.sets--
	return rootX
}

// Size returns the number of elements in x's set.
func (uf *UnionFind) Size(x int) int { return uf.size[uf.Find(x)] }

// Count returns the number of disjoint sets.
func (uf *UnionFind) Count() int { return uf.sets }
