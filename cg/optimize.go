// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cg minimizes differentiable functions with the nonlinear conjugate gradient method.
//
// Each iteration moves along the search direction 𝐝ₖ by a step αₖ found by a line search
//
//	𝐱ₖ₊₁ = 𝐱ₖ + αₖ𝐝ₖ
//	𝐝ₖ₊₁ = 𝐫ₖ₊₁ + βₖ𝐝ₖ,  𝐫ₖ₊₁ = -∇𝒇(𝐱ₖ₊₁)
//
// where the beta strategy decides βₖ. The direction is reset to the residual every n
// iterations and whenever the strategy loses descent.
package cg

import (
	"errors"
	"math"
	"os"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/conjugate/linesearch"
	"github.com/curioloop/conjugate/objective"
)

// InvalidArgumentError reports a tunable outside its documented range.
type InvalidArgumentError = linesearch.InvalidArgumentError

// Termination specifies the stopping criteria for the optimization algorithm.
type Termination struct {
	// The iteration stop when the number of iteration exceeds limit.
	MaxIterations int `yaml:"max_iterations"`
	// The iteration will stop when the residual satisfied:
	//   ‖𝐫ₖ‖² ≤ ε²‖𝐫₀‖²
	ErrorTolerance float64 `yaml:"error_tolerance"`
}

// DefaultTermination returns 1000 iterations with ε = 1e-10.
func DefaultTermination() Termination {
	return Termination{
		MaxIterations:  1000,
		ErrorTolerance: 1e-10,
	}
}

// Validate reports the first setting outside its allowed range.
func (t Termination) Validate() (err error) {
	switch {
	case t.MaxIterations <= 0:
		err = linesearch.Invalid("max iterations", t.MaxIterations, "(0, ∞)")
	case math.IsNaN(t.ErrorTolerance) || t.ErrorTolerance <= 0 || t.ErrorTolerance > 1:
		err = linesearch.Invalid("error tolerance", t.ErrorTolerance, "(0, 1]")
	}
	return
}

// Problem specifies one minimization run.
type Problem struct {
	Func objective.Function // Objective function and gradient
	Init []float64          // Initial guess
}

// Optimizer implemented using the nonlinear conjugate gradient algorithm.
// It is immutable after New and serves concurrent Minimize calls.
type Optimizer struct {
	method Method
	search linesearch.Searcher
	stop   Termination
	logger Logger
}

// New creates a CG optimizer with the beta strategy method and the line search.
func New(method Method, search linesearch.Searcher, stop Termination, logger *Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = new(Logger)
		logger.Level = LogNoop
	}
	if logger.Msg == nil {
		logger.Msg = os.Stdout
	}
	if logger.Out == nil {
		logger.Out = os.Stderr
	}

	switch {
	case method == nil:
		err = errors.New("beta strategy is required")
	case search == nil:
		err = errors.New("line search is required")
	default:
		err = stop.Validate()
	}

	if v, ok := method.(interface{ Validate() error }); ok && err == nil {
		err = v.Validate()
	}

	if err != nil {
		return
	}

	optimizer = &Optimizer{
		method: method,
		search: search,
		stop:   stop,
		logger: *logger,
	}
	return
}

// Result contains the final result of the optimization process.
type Result struct {
	OK      bool      // Whether the optimization was converged.
	F       float64   // Final function value.
	X       []float64 // Final solution.
	Summary           // Optimization summary.
}

// Summary contains a summary of the optimization process.
type Summary struct {
	Status   Status // Final task status after optimization.
	NumIter  int    // Number of iterations performed.
	NumCost  int    // Number of function evaluations performed.
	NumGrad  int    // Number of gradient evaluations performed.
	NumReset int    // Number of direction restarts.
}

// run is the state of one minimization, owned by the calling goroutine.
type run struct {
	opt    *Optimizer
	f      *objective.Counter
	search linesearch.Searcher
	state  State

	x, r, d   []float64
	xp, rp    []float64
	delta     float64
	alpha     float64
	iter      int
	resets    int
	restarted bool
}

// Minimize runs the optimization process from p.Init, which is never modified.
func (o *Optimizer) Minimize(p Problem) *Result {

	if p.Func == nil {
		panic("objective function is required")
	}
	if len(p.Init) == 0 {
		panic("initial x must not be empty")
	}

	search := o.search
	if f, ok := search.(linesearch.Forker); ok {
		search = f.Fork()
	}

	r := &run{
		opt:    o,
		f:      objective.Count(p.Func),
		search: search,
		x:      slices.Clone(p.Init),
	}

	status := r.mainLoop()
	f := r.f.Cost(r.x)
	r.printExit(status, f)

	return &Result{
		OK: status&iterConv > 0,
		F:  f, X: r.x,
		Summary: Summary{
			Status:   status,
			NumIter:  r.iter,
			NumCost:  r.f.NumCost,
			NumGrad:  r.f.NumGrad,
			NumReset: r.resets,
		},
	}
}

func (r *run) mainLoop() Status {

	n := len(r.x)
	untilReset := n

	r.r = make([]float64, n)
	r.xp = make([]float64, n)
	r.rp = make([]float64, n)
	r.residual()

	r.state, r.d = r.opt.method.Start(r.x, r.r)
	r.delta = floats.Dot(r.r, r.r)
	delta0 := r.delta

	r.printInit()

	if delta0 == 0 {
		return ConvStationary
	}

	eps := r.opt.stop.ErrorTolerance
	prevAlpha := 0.0
	for r.iter < r.opt.stop.MaxIterations {

		if r.delta <= eps*eps*delta0 {
			return ConvResidual
		}
		r.iter++
		r.restarted = false

		r.alpha = r.search.Search(r.f, r.x, r.d, prevAlpha)
		if !r.step() {
			// degenerate step, restart without moving
			r.reset(&untilReset)
			prevAlpha = 0
			r.printIter()
			continue
		}
		prevAlpha = r.alpha

		var ok bool
		r.d, r.delta, ok = r.state.Update(r.x, r.r, r.d, r.delta)

		if untilReset--; untilReset == 0 || !ok {
			r.reset(&untilReset)
			prevAlpha = 0
		}
		r.printIter()
	}

	if r.delta <= eps*eps*delta0 {
		return ConvResidual
	}
	return OverIterLimit
}

// step moves to x + αd and refreshes the residual.
// A non-finite α or residual leaves x and r untouched and reports false.
func (r *run) step() bool {
	if math.IsNaN(r.alpha) || math.IsInf(r.alpha, 0) {
		return false
	}
	copy(r.xp, r.x)
	copy(r.rp, r.r)

	floats.AddScaled(r.x, r.alpha, r.d) // x = x + αd
	r.residual()

	for _, v := range r.r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			copy(r.x, r.xp)
			copy(r.r, r.rp)
			return false
		}
	}
	return true
}

// residual stores r = -∇𝒇(𝐱).
func (r *run) residual() {
	r.f.Gradient(r.x, r.r)
	floats.Scale(-1, r.r)
}

// reset restarts along the normalized residual.
func (r *run) reset(untilReset *int) {
	if len(r.d) != len(r.r) {
		r.d = make([]float64, len(r.r))
	}
	copy(r.d, r.r)
	normalize(r.d)
	*untilReset = len(r.x)
	r.resets++
	r.restarted = true
}
