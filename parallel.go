package manifold

import (
	"runtime"
	"sync"
)

// forEachRange splits [0, n) into at most numWorkers contiguous ranges and
// runs fn on each in its own goroutine. Ranges never overlap, so fn may
// write to disjoint rows of a shared result without locking. With
// numWorkers <= 1 fn runs once, inline, over the whole range.
func forEachRange(n, numWorkers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if numWorkers <= 1 || n == 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	rowsPerWorker := (n + numWorkers - 1) / numWorkers
	for start := 0; start < n; start += rowsPerWorker {
		end := min(start+rowsPerWorker, n)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// resolveWorkers maps 0 to runtime.NumCPU().
func resolveWorkers(workers int) int {
	if workers == 0 {
		return runtime.NumCPU()
	}
	return workers
}

// ComputePairwiseDistancesParallel is ComputePairwiseDistances spread over
// numWorkers goroutines. The result is bitwise identical to the sequential
// version.
func ComputePairwiseDistancesParallel(data []float64, n, dims int, metric DistanceMetric, numWorkers int) []float64 {
	if numWorkers <= 1 || n <= 1 {
		return ComputePairwiseDistances(data, n, dims, metric)
	}

	// Each worker owns full rows [start, end) and fills every column, so
	// row ownership is exclusive; symmetry comes from recomputing d(j, i).
	result := make([]float64, n*n)
	forEachRange(n, numWorkers, func(start, end int) {
		for i := start; i < end; i++ {
			pi := data[i*dims : (i+1)*dims]
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				a, b := pi, data[j*dims:(j+1)*dims]
				if j < i {
					// Match the sequential path, which always evaluates
					// Distance(lower, higher).
					a, b = b, a
				}
				result[i*n+j] = metric.Distance(a, b)
			}
		}
	})
	return result
}
