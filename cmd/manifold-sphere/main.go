// Command manifold-sphere projects a severed sphere to 2D with every
// manifold estimator, prints each one's timing and saves a comparison
// figure.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TrevorS/manifold/internal/demo"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "manifold-sphere:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command. Flag defaults come from the environment,
// so flags override environment variables, which override built-in
// defaults.
func newRootCmd(stdout io.Writer) *cobra.Command {
	cfg, envErr := demo.LoadConfig()

	cmd := &cobra.Command{
		Use:   "manifold-sphere",
		Short: "Compare manifold learning methods on a severed sphere",
		Long: `
Sample points on the unit sphere with the poles and a thin longitudinal
slice removed, embed them in 2D with standard, LTSA, Hessian and modified
LLE, Isomap and MDS, print each method's wall-clock time and write the
results as a PNG grid.

Environment:
  MANIFOLD_SAMPLES, MANIFOLD_NEIGHBORS, MANIFOLD_SEED, MANIFOLD_OUTPUT,
  MANIFOLD_WORKERS, MANIFOLD_MDS_MAX_ITER set the defaults of the matching
  flags.
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envErr != nil {
				return envErr
			}
			return run(cfg, cmd.OutOrStdout())
		},
	}
	cmd.SetOut(stdout)

	f := cmd.Flags()
	f.IntVar(&cfg.Samples, "samples", cfg.Samples, "points drawn before the poles are cut")
	f.IntVar(&cfg.Neighbors, "neighbors", cfg.Neighbors, "neighborhood size for LLE and Isomap")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for the sample and MDS")
	f.StringVarP(&cfg.Output, "output", "o", cfg.Output, "PNG file to write")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "goroutines per estimator (0 = all CPUs)")
	f.IntVar(&cfg.MDSMaxIter, "mds-max-iter", cfg.MDSMaxIter, "SMACOF iteration cap")
	return cmd
}

func run(cfg demo.Config, stdout io.Writer) error {
	sphere, results, err := demo.Run(cfg, demo.Steps(), stdout)
	if err != nil {
		return err
	}
	return demo.Figure(cfg, sphere, results).Save(cfg.Output)
}
