// Package datasets generates synthetic point clouds for manifold learning.
package datasets

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// SphereConfig controls SeveredSphere.
// Start with [DefaultSphereConfig] and override the fields you need.
type SphereConfig struct {
	// Samples is the number of candidate points drawn before filtering.
	// Default: 1000.
	Samples int

	// Seed makes the draw reproducible. Default: 0.
	Seed uint64

	// AzimuthSpan is the width of the azimuth range [0, AzimuthSpan). The
	// missing wedge (2*pi - AzimuthSpan) is the longitudinal cut.
	// Default: 2*pi - 0.55.
	AzimuthSpan float64

	// PolarCut is the colatitude removed around each pole. Points are kept
	// when PolarCut < colatitude < pi - PolarCut. Default: pi/8.
	PolarCut float64
}

// DefaultSphereConfig returns the severed sphere used by the demo.
func DefaultSphereConfig() SphereConfig {
	return SphereConfig{
		Samples:     1000,
		Seed:        0,
		AzimuthSpan: 2*math.Pi - 0.55,
		PolarCut:    math.Pi / 8,
	}
}

func (cfg SphereConfig) validate() error {
	if cfg.Samples < 0 {
		return fmt.Errorf("datasets: Samples must be >= 0, got %d", cfg.Samples)
	}
	if !(cfg.AzimuthSpan > 0) || cfg.AzimuthSpan > 2*math.Pi {
		return fmt.Errorf("datasets: AzimuthSpan must be in (0, 2*pi], got %g", cfg.AzimuthSpan)
	}
	if !(cfg.PolarCut >= 0) || cfg.PolarCut >= math.Pi/2 {
		return fmt.Errorf("datasets: PolarCut must be in [0, pi/2), got %g", cfg.PolarCut)
	}
	return nil
}

// Sphere is a point cloud on the unit sphere. All slices share one order.
type Sphere struct {
	// Points holds the (x, y, z) coordinates.
	Points [][]float64

	// Azimuth is each point's longitude in radians, used as its color.
	Azimuth []float64

	// Colatitude is each point's angle from the +z pole in radians.
	Colatitude []float64
}

// Len returns the number of points.
func (s *Sphere) Len() int { return len(s.Points) }

// Flat returns a row-major copy of Points.
func (s *Sphere) Flat() []float64 {
	out := make([]float64, 0, 3*len(s.Points))
	for _, p := range s.Points {
		out = append(out, p...)
	}
	return out
}

// SeveredSphere samples points on the unit sphere with both polar caps and
// a longitudinal wedge removed. The wedge and caps keep the surface from
// closing on itself, so it can be unrolled into the plane.
func SeveredSphere(cfg SphereConfig) (*Sphere, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	azimuth, colatitude := sampleAngles(cfg)

	s := &Sphere{}
	for i, t := range colatitude {
		if !(cfg.PolarCut < t && t < math.Pi-cfg.PolarCut) {
			continue
		}
		p := azimuth[i]
		s.Points = append(s.Points, []float64{
			math.Sin(t) * math.Cos(p),
			math.Sin(t) * math.Sin(p),
			math.Cos(t),
		})
		s.Azimuth = append(s.Azimuth, p)
		s.Colatitude = append(s.Colatitude, t)
	}
	return s, nil
}

// sampleAngles draws every azimuth first, then every colatitude, from one
// stream seeded by cfg.Seed.
func sampleAngles(cfg SphereConfig) (azimuth, colatitude []float64) {
	src := rand.NewPCG(cfg.Seed, 0)
	p := distuv.Uniform{Min: 0, Max: cfg.AzimuthSpan, Src: src}
	t := distuv.Uniform{Min: 0, Max: math.Pi, Src: src}

	azimuth = make([]float64, cfg.Samples)
	for i := range azimuth {
		azimuth[i] = p.Rand()
	}
	colatitude = make([]float64, cfg.Samples)
	for i := range colatitude {
		colatitude[i] = t.Rand()
	}
	return azimuth, colatitude
}
