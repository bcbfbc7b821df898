package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/curioloop/conjugate/cg"
	"github.com/curioloop/conjugate/hypothesis"
	"github.com/curioloop/conjugate/numdiff"
	"github.com/curioloop/conjugate/objective"
)

type fitOptions struct {
	*options
	dataPath string
	model    string
	gradient string
	starts   int
	parallel int
	seed     uint64
	spread   float64
}

func newFitCmd(opts *options) *cobra.Command {
	fo := &fitOptions{options: opts}

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a model to CSV data by least squares",
		Long: `Reads rows of x1,...,xk,y from a CSV file and fits the selected model by
minimizing the mean of squared residuals. Additional random starts run in parallel
and the lowest cost wins.`,
		RunE: fo.run,
	}

	flags := cmd.Flags()
	flags.StringVar(&fo.dataPath, "data", "", "CSV data path (required)")
	flags.StringVar(&fo.model, "model", "linear", "Model: linear, exponential")
	flags.StringVar(&fo.gradient, "gradient", "analytic", "Gradient: analytic, forward or central finite differences")
	flags.IntVar(&fo.starts, "starts", 1, "Number of starting points")
	flags.IntVar(&fo.parallel, "parallel", 0, "Max concurrent runs (0 = unlimited)")
	flags.Uint64Var(&fo.seed, "seed", 42, "Random seed for additional starts")
	flags.Float64Var(&fo.spread, "spread", 1, "Half width of the random perturbation of additional starts")

	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func (fo *fitOptions) run(cmd *cobra.Command, args []string) error {
	f, err := os.Open(fo.dataPath)
	if err != nil {
		return fmt.Errorf("failed to open data: %w", err)
	}
	defer f.Close()

	data, err := hypothesis.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("failed to parse data: %w", err)
	}
	k := len(data[0].Inputs)
	slog.Info("Loaded data", "points", len(data), "inputs", k)

	var h hypothesis.Hypothesis
	var init []float64
	switch fo.model {
	case "linear":
		h, init = hypothesis.Linear{}, make([]float64, k+1)
	case "exponential":
		if k != 1 {
			return fmt.Errorf("exponential model needs exactly one input, got %d", k)
		}
		h, init = hypothesis.Exponential{}, []float64{0, 1, 1}
	default:
		return fmt.Errorf("unknown model %q, want linear or exponential", fo.model)
	}

	if fo.starts < 1 {
		return fmt.Errorf("starts must be at least 1, got %d", fo.starts)
	}

	cost := hypothesis.SumOfSquares{H: h, Data: data}
	objectiveFor, err := fo.objective(cost)
	if err != nil {
		return err
	}

	opt, _, err := fo.optimizer(cmd)
	if err != nil {
		return err
	}

	problems := make([]cg.Problem, fo.starts)
	rng := rand.New(rand.NewPCG(fo.seed, fo.seed^0x9e3779b97f4a7c15))
	for i := range problems {
		x0 := append([]float64(nil), init...)
		if i > 0 {
			for j := range x0 {
				x0[j] += fo.spread * (2*rng.Float64() - 1)
			}
		}
		problems[i] = cg.Problem{Func: objectiveFor(), Init: x0}
	}

	start := time.Now()
	results, err := cg.MinimizeAll(cmd.Context(), opt, problems, fo.parallel)
	if err != nil {
		return fmt.Errorf("fit interrupted: %w", err)
	}

	best := cg.Best(results)
	if best == nil {
		return fmt.Errorf("no start produced a finite cost")
	}
	slog.Info("Fit complete", "model", fo.model, "starts", fo.starts,
		"cost", best.F, "status", best.Status.String(), "elapsed", time.Since(start))

	fmt.Fprintln(cmd.OutOrStdout(), renderResult(fmt.Sprintf("%s fit", fo.model), best))
	return nil
}

// objective returns a constructor of the minimized function. Finite difference
// gradients keep a workspace, so every start gets its own instance.
func (fo *fitOptions) objective(cost hypothesis.SumOfSquares) (func() objective.Function, error) {
	var method numdiff.Method
	switch strings.ToLower(fo.gradient) {
	case "analytic":
		return func() objective.Function { return cost }, nil
	case "forward":
		method = numdiff.Forward
	case "central":
		method = numdiff.Central
	default:
		return nil, fmt.Errorf("unknown gradient %q, want analytic, forward or central", fo.gradient)
	}
	slog.Debug("Using finite difference gradient", "method", method.String())
	return func() objective.Function { return objective.Numeric(cost.Cost, method) }, nil
}
