package figure

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/plot/plotter"
)

// project maps 3D points onto the screen plane of a camera at the given
// elevation and azimuth (degrees), looking at the origin. order lists point
// indices from farthest to nearest, ties by index.
func project(points [][]float64, elevation, azimuth float64) (xys plotter.XYs, order []int) {
	e := elevation * math.Pi / 180
	a := azimuth * math.Pi / 180
	se, ce := math.Sincos(e)
	sa, ca := math.Sincos(a)

	xys = make(plotter.XYs, len(points))
	depth := make([]float64, len(points))
	for i, p := range points {
		x, y, z := p[0], p[1], p[2]
		xys[i].X = -sa*x + ca*y
		xys[i].Y = -se*ca*x - se*sa*y + ce*z
		depth[i] = ce*ca*x + ce*sa*y + se*z
	}

	order = make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(i, j int) int {
		if c := cmp.Compare(depth[i], depth[j]); c != 0 {
			return c
		}
		return cmp.Compare(i, j)
	})
	return xys, order
}
