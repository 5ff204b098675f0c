package demo

import (
	"fmt"

	"github.com/TrevorS/manifold/datasets"
	"github.com/TrevorS/manifold/internal/figure"
)

// Figure lays out the sample and one panel per result.
func Figure(cfg Config, sphere *datasets.Sphere, results []Result) *figure.Figure {
	title := fmt.Sprintf("Manifold Learning with %d points, %d neighbors", cfg.Samples, cfg.Neighbors)
	f := figure.New(title, sphere.Points, sphere.Azimuth)
	f.SetView(figure.DefaultElevation, figure.DefaultAzimuth)
	for _, r := range results {
		f.Add(figure.Panel{Label: r.Label, Points: r.Embedding.Points, Elapsed: r.Elapsed})
	}
	return f
}
