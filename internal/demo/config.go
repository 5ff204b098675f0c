package demo

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the demo settings. Every field can be set from the
// environment; command-line flags override it.
type Config struct {
	Samples    int    `env:"MANIFOLD_SAMPLES" envDefault:"1000"`
	Neighbors  int    `env:"MANIFOLD_NEIGHBORS" envDefault:"10"`
	Seed       uint64 `env:"MANIFOLD_SEED" envDefault:"0"`
	Output     string `env:"MANIFOLD_OUTPUT" envDefault:"manifold_sphere.png"`
	Workers    int    `env:"MANIFOLD_WORKERS" envDefault:"0"`
	MDSMaxIter int    `env:"MANIFOLD_MDS_MAX_ITER" envDefault:"100"`
}

// DefaultConfig returns the fixed demo: 1000 samples, 10 neighbors, seed 0.
func DefaultConfig() Config {
	return Config{
		Samples:    1000,
		Neighbors:  10,
		Output:     "manifold_sphere.png",
		MDSMaxIter: 100,
	}
}

// LoadConfig reads Config from the environment, falling back to defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Samples < 1 {
		return fmt.Errorf("demo: samples must be >= 1, got %d", cfg.Samples)
	}
	if cfg.Neighbors < 1 {
		return fmt.Errorf("demo: neighbors must be >= 1, got %d", cfg.Neighbors)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("demo: workers must be >= 0, got %d", cfg.Workers)
	}
	if cfg.MDSMaxIter < 1 {
		return fmt.Errorf("demo: mds max iterations must be >= 1, got %d", cfg.MDSMaxIter)
	}
	return nil
}
