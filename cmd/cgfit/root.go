package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/curioloop/conjugate/cg"
	"github.com/curioloop/conjugate/internal/config"
)

// options shared by every subcommand.
type options struct {
	logLevel   string
	configPath string
	method     string
	search     string
	maxIter    int
	tolerance  float64
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cgfit",
		Short: "Nonlinear conjugate gradient minimizer and curve fitter",
		Long: `cgfit minimizes smooth functions with the nonlinear conjugate gradient method
(Fletcher-Reeves, Polak-Ribiere or Hager-Zhang) using a secant, Hager-Zhang or More-Thuente line search.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var level slog.Level
			switch opts.logLevel {
			case "debug":
				level = slog.LevelDebug
			case "info":
				level = slog.LevelInfo
			case "warn":
				level = slog.LevelWarn
			case "error":
				level = slog.LevelError
			default:
				level = slog.LevelInfo
			}

			handler := slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.configPath, "config", "", "YAML file with optimizer settings")
	flags.StringVar(&opts.method, "method", "", "Beta strategy: fr, pr, hz (overrides config)")
	flags.StringVar(&opts.search, "search", "", "Line search: secant, hz, mt (overrides config)")
	flags.IntVar(&opts.maxIter, "max-iter", 0, "Max iterations (overrides config)")
	flags.Float64Var(&opts.tolerance, "tol", 0, "Relative residual tolerance (overrides config)")

	root.AddCommand(newFitCmd(opts), newRosenbrockCmd(opts), newVersionCmd())
	return root
}

// optimizer loads the configuration, applies the flag overrides and builds the optimizer.
func (o *options) optimizer(cmd *cobra.Command) (*cg.Optimizer, config.Config, error) {
	c, err := config.Load(o.configPath)
	if err != nil {
		return nil, c, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		c.Method = o.method
	}
	if flags.Changed("search") {
		c.Search = o.search
	}
	if flags.Changed("max-iter") {
		c.Stop.MaxIterations = o.maxIter
	}
	if flags.Changed("tol") {
		c.Stop.ErrorTolerance = o.tolerance
	}
	c.Normalize()

	var logger *cg.Logger
	if o.logLevel == "debug" {
		logger = &cg.Logger{Level: cg.LogEval, Msg: cmd.ErrOrStderr(), Out: cmd.ErrOrStderr()}
	}

	opt, err := c.Optimizer(logger)
	if err != nil {
		return nil, c, fmt.Errorf("invalid optimizer settings: %w", err)
	}

	slog.Debug("Optimizer ready", "method", c.Method, "search", c.Search,
		"max_iterations", c.Stop.MaxIterations, "error_tolerance", c.Stop.ErrorTolerance)
	return opt, c, nil
}
