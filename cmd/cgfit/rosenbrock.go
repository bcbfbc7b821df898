package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/curioloop/conjugate/cg"
	"github.com/curioloop/conjugate/hypothesis"
)

func newRosenbrockCmd(opts *options) *cobra.Command {
	var (
		x0   []float64
		a, b float64
	)

	cmd := &cobra.Command{
		Use:   "rosenbrock",
		Short: "Minimize the Rosenbrock function (a - x)² + b(y - x²)²",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(x0) != 2 {
				return fmt.Errorf("x0 needs 2 values, got %d", len(x0))
			}

			opt, _, err := opts.optimizer(cmd)
			if err != nil {
				return err
			}

			f := hypothesis.FunctionValue{H: hypothesis.Rosenbrock{}, Theta: []float64{a, b}}
			res := opt.Minimize(cg.Problem{Func: f, Init: x0})

			slog.Info("Minimization complete", "status", res.Status.String(),
				"iterations", res.NumIter, "evaluations", res.NumCost+res.NumGrad)
			fmt.Fprintln(cmd.OutOrStdout(), renderResult("rosenbrock", res))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64SliceVar(&x0, "x0", []float64{-1, 1}, "Starting point x,y")
	flags.Float64Var(&a, "a", 1, "Coefficient a")
	flags.Float64Var(&b, "b", 100, "Coefficient b")
	return cmd
}
