// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linesearch

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/conjugate/objective"
)

// SecantTol specifies the secant method line search.
type SecantTol struct {
	// MaxIterations bounds the number of secant steps.
	MaxIterations int `yaml:"max_iterations"`
	// StepSize is the probe distance used for the first secant.
	StepSize float64 `yaml:"step_size"`
	// Tolerance stops the search once the step satisfies α²‖𝐝‖² ≤ 𝚝𝚘𝚕².
	Tolerance float64 `yaml:"tolerance"`
}

// DefaultSecantTol returns the default secant method settings.
func DefaultSecantTol() SecantTol {
	return SecantTol{
		MaxIterations: 40,
		StepSize:      1e-5,
		Tolerance:     1e-10,
	}
}

// Validate reports the first setting outside its allowed range.
func (t SecantTol) Validate() (err error) {
	switch {
	case t.MaxIterations <= 0:
		err = Invalid("max iterations", t.MaxIterations, "(0, ∞)")
	case !finite(t.StepSize) || t.StepSize <= 0:
		err = Invalid("step size", t.StepSize, "(0, ∞)")
	case !finite(t.Tolerance) || t.Tolerance <= 0 || t.Tolerance > 1:
		err = Invalid("tolerance", t.Tolerance, "(0, 1]")
	}
	return
}

// New creates a secant method line search.
func (t SecantTol) New() (*Secant, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Secant{tol: t}, nil
}

// Secant locates the root of the directional derivative η(α) = ∇𝒇(𝐱 + α𝐝)ᵀ𝐝
// by the secant method, i.e. an exact line minimizer under a local quadratic model.
// It is cheap but not globally robust, and expects ‖𝐝‖₂ = 1.
type Secant struct {
	tol  SecantTol
	last Stats
}

// Tol returns the settings of the search.
func (s *Secant) Tol() SecantTol { return s.tol }

// Fork returns a copy with its own statistics.
func (s *Secant) Fork() Searcher { return &Secant{tol: s.tol} }

// Last returns the statistics of the last search.
func (s *Secant) Last() Stats { return s.last }

// Search returns the cumulative step taken by the secant iterations.
// The prevStep is ignored.
func (s *Secant) Search(f objective.Function, x, d []float64, _ float64) float64 {

	n := len(x)
	if len(d) != n {
		panic("direction dimension not match location")
	}

	step := s.tol.StepSize
	tolSq := s.tol.Tolerance * s.tol.Tolerance

	t := make([]float64, n)
	g := make([]float64, n)

	// η at the probe point x + step⋅d
	floats.AddScaledTo(t, x, step, d)
	f.Gradient(t, g)
	etaPrev := floats.Dot(g, d)
	copy(t, x)

	dd := floats.Dot(d, d)
	alpha, total := -step, 0.0

	stats := Stats{Evals: 1}
	for j := 0; j < s.tol.MaxIterations; j++ {
		if alpha*alpha*dd <= tolSq {
			break
		}

		f.Gradient(t, g)
		eta := floats.Dot(g, d)
		stats.Evals++
		stats.Iterations++

		change := etaPrev - eta
		etaPrev = eta
		if change == 0 {
			break
		}

		alpha = alpha * eta / change
		if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
			break
		}

		floats.AddScaled(t, alpha, d) // t = t + αd
		total += alpha
	}

	s.last = stats
	return total
}
