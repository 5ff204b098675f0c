package datasets

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeveredSphereRetainedCount(t *testing.T) {
	cfg := DefaultSphereConfig()
	s, err := SeveredSphere(cfg)
	require.NoError(t, err)

	_, colatitude := sampleAngles(cfg)
	want := 0
	for _, th := range colatitude {
		if math.Pi/8 < th && th < math.Pi-math.Pi/8 {
			want++
		}
	}
	require.Equal(t, want, s.Len(), "retained count must match the band filter over the raw draws")
	require.Len(t, s.Azimuth, s.Len())
	require.Len(t, s.Colatitude, s.Len())

	// A 3/4 band of a uniform draw: well inside (0, 1000).
	assert.Greater(t, s.Len(), 600)
	assert.Less(t, s.Len(), 900)
}

func TestSeveredSphereUnitNorm(t *testing.T) {
	s, err := SeveredSphere(DefaultSphereConfig())
	require.NoError(t, err)

	for i, p := range s.Points {
		require.Len(t, p, 3)
		norm := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
		assert.InDelta(t, 1.0, norm, 1e-12, "point %d", i)
	}
}

func TestSeveredSphereBands(t *testing.T) {
	cfg := DefaultSphereConfig()
	s, err := SeveredSphere(cfg)
	require.NoError(t, err)

	for i := range s.Points {
		th := s.Colatitude[i]
		assert.True(t, math.Pi/8 < th && th < math.Pi-math.Pi/8, "colatitude %g of point %d outside band", th, i)
		assert.GreaterOrEqual(t, s.Azimuth[i], 0.0)
		assert.Less(t, s.Azimuth[i], cfg.AzimuthSpan, "point %d falls in the removed wedge", i)

		// Coordinates are consistent with the stored angles.
		assert.InDelta(t, math.Cos(th), s.Points[i][2], 1e-12)
		assert.InDelta(t, math.Atan2(s.Points[i][1], s.Points[i][0]), wrapAngle(s.Azimuth[i]), 1e-9)
	}
}

func TestSeveredSphereDeterministic(t *testing.T) {
	a, err := SeveredSphere(DefaultSphereConfig())
	require.NoError(t, err)
	b, err := SeveredSphere(DefaultSphereConfig())
	require.NoError(t, err)

	require.Equal(t, a.Len(), b.Len())
	require.Equal(t, a.Points, b.Points, "same seed must give bitwise identical points")
	require.Equal(t, a.Azimuth, b.Azimuth)
	require.Equal(t, a.Flat(), b.Flat())
}

func TestSeveredSphereSeedChangesDraw(t *testing.T) {
	cfg := DefaultSphereConfig()
	a, err := SeveredSphere(cfg)
	require.NoError(t, err)
	cfg.Seed = 1
	b, err := SeveredSphere(cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.Flat(), b.Flat())
}

func TestSeveredSphereFlat(t *testing.T) {
	s, err := SeveredSphere(SphereConfig{Samples: 50, Seed: 7, AzimuthSpan: math.Pi, PolarCut: 0})
	require.NoError(t, err)

	flat := s.Flat()
	require.Len(t, flat, 3*s.Len())
	for i, p := range s.Points {
		assert.Equal(t, p, flat[3*i:3*i+3])
	}
	flat[0] = 42
	assert.NotEqual(t, 42.0, s.Points[0][0], "Flat must return a copy")
}

func TestSeveredSphereZeroSamples(t *testing.T) {
	cfg := DefaultSphereConfig()
	cfg.Samples = 0
	s, err := SeveredSphere(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Flat())
}

func TestSeveredSphereInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SphereConfig)
	}{
		{"negative samples", func(c *SphereConfig) { c.Samples = -1 }},
		{"zero span", func(c *SphereConfig) { c.AzimuthSpan = 0 }},
		{"span over full turn", func(c *SphereConfig) { c.AzimuthSpan = 7 }},
		{"NaN span", func(c *SphereConfig) { c.AzimuthSpan = math.NaN() }},
		{"negative cut", func(c *SphereConfig) { c.PolarCut = -0.1 }},
		{"cut past equator", func(c *SphereConfig) { c.PolarCut = math.Pi / 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSphereConfig()
			tt.modify(&cfg)
			_, err := SeveredSphere(cfg)
			require.Error(t, err)
		})
	}
}

func wrapAngle(a float64) float64 {
	if a > math.Pi {
		return a - 2*math.Pi
	}
	return a
}
