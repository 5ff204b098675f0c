// Package manifold implements nonlinear dimensionality reduction: Locally
// Linear Embedding and its Hessian, modified and LTSA variants, Isomap, and
// SMACOF multidimensional scaling.
//
// Every estimator takes row-major samples and returns an [Embedding] with
// one row of NComponents coordinates per sample, in input order.
//
// Basic usage:
//
//	cfg := manifold.DefaultLLEConfig()
//	cfg.NNeighbors = 10
//	cfg.Method = manifold.LLEModified
//	emb, err := manifold.LocallyLinearEmbedding(data, cfg)
//	// emb.Points[i] is the 2D position of data[i]
//
//	iso, err := manifold.Isomap(data, manifold.DefaultIsomapConfig())
//
//	mcfg := manifold.DefaultMDSConfig()
//	mcfg.Dissimilarity = manifold.DissimilarityPrecomputed
//	emb, err = manifold.MDS(distances, mcfg)
//
// # Neighbor search
//
// LLE and Isomap find neighborhoods with [KNeighbors]. By default
// (Algorithm: "auto") a KD-tree is used for axis-decomposable metrics in
// low dimensions, a ball tree otherwise, and a brute-force distance matrix
// for metrics neither tree can prune with. Set NeighborsConfig.Algorithm to
// force one:
//
//	cfg.Neighbors.Algorithm = manifold.NeighborsBrute
//	cfg.Neighbors.Algorithm = manifold.NeighborsKDTree
//	cfg.Neighbors.Algorithm = manifold.NeighborsBallTree
//
// Neighbor ties are broken by index and eigenvector signs are normalized,
// so every estimator is deterministic for a given input and seed regardless
// of Workers.
package manifold
