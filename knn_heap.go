package manifold

import "container/heap"

type knnItem struct {
	index int
	dist  float64
}

// before orders neighbors by distance, then by index, so that equal-distance
// candidates resolve the same way no matter how a tree was traversed.
func (a knnItem) before(b knnItem) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.index < b.index
}

// knnHeap is a bounded max-heap: the worst kept neighbor sits at the root.
type knnHeap []knnItem

func (h knnHeap) Len() int           { return len(h) }
func (h knnHeap) Less(i, j int) bool { return h[j].before(h[i]) }
func (h knnHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x any)        { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// offer keeps item if the heap has room or item beats the current worst.
func (h *knnHeap) offer(item knnItem, k int) {
	if h.Len() < k {
		heap.Push(h, item)
		return
	}
	if item.before((*h)[0]) {
		(*h)[0] = item
		heap.Fix(h, 0)
	}
}

// full reports whether k neighbors are held.
func (h *knnHeap) full(k int) bool { return h.Len() >= k }

// worst is the distance of the root; only valid when the heap is non-empty.
func (h *knnHeap) worst() float64 { return (*h)[0].dist }

// drain empties the heap into ascending (distance, index) order.
func (h *knnHeap) drain() ([]int, []float64) {
	n := h.Len()
	idx := make([]int, n)
	dist := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		item := heap.Pop(h).(knnItem)
		idx[i] = item.index
		dist[i] = item.dist
	}
	return idx, dist
}
