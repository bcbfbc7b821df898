// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linesearch

import (
	"math"

	"github.com/curioloop/conjugate/objective"
)

const (
	mtBisect   = 0.66
	mtExtrapLo = 1.1
	mtExtrapHi = 4.0
)

// MoreThuenteTol specifies the Moré–Thuente line search (minpack dcsrch).
//
// Reference:
//   - J. J. Moré and D. J. Thuente, Line search algorithms with guaranteed sufficient decrease,
//     ACM Trans. Math. Software, 20 (1994), pp. 286-307.
type MoreThuenteTol struct {
	// μ of the sufficient decrease condition φ(α) ≤ φ(0) + μαφ′(0), range (0, 1).
	Decrease float64 `yaml:"decrease"`
	// η of the curvature condition |φ′(α)| ≤ η|φ′(0)|, range (0, 1).
	Curvature float64 `yaml:"curvature"`
	// StepTol stops the search once the relative width of the bracket falls below it, range [0, ∞).
	StepTol float64 `yaml:"step_tol"`
	// MinStep and MaxStep bound the step, 0 ≤ MinStep < MaxStep.
	MinStep float64 `yaml:"min_step"`
	MaxStep float64 `yaml:"max_step"`
	// Alpha0 is the first trial step of a run, range [MinStep, MaxStep].
	Alpha0 float64 `yaml:"alpha0"`
	// MaxIterations bounds the number of trial steps.
	MaxIterations int `yaml:"max_iterations"`
}

// DefaultMoreThuenteTol returns strong Wolfe settings suited to conjugate gradient directions.
func DefaultMoreThuenteTol() MoreThuenteTol {
	return MoreThuenteTol{
		Decrease:      1e-4,
		Curvature:     0.1,
		StepTol:       1e-10,
		MinStep:       0,
		MaxStep:       1e10,
		Alpha0:        1,
		MaxIterations: 40,
	}
}

// Validate reports the first setting outside its allowed range.
func (t MoreThuenteTol) Validate() (err error) {
	switch {
	case !(t.Decrease > 0 && t.Decrease < 1):
		err = Invalid("decrease", t.Decrease, "(0, 1)")
	case !(t.Curvature > 0 && t.Curvature < 1):
		err = Invalid("curvature", t.Curvature, "(0, 1)")
	case !finite(t.StepTol) || t.StepTol < 0:
		err = Invalid("step tolerance", t.StepTol, "[0, ∞)")
	case !finite(t.MinStep) || t.MinStep < 0:
		err = Invalid("min step", t.MinStep, "[0, ∞)")
	case !finite(t.MaxStep) || t.MaxStep <= t.MinStep:
		err = Invalid("max step", t.MaxStep, "(min step, ∞)")
	case !(t.Alpha0 > 0 && t.Alpha0 >= t.MinStep && t.Alpha0 <= t.MaxStep):
		err = Invalid("α₀", t.Alpha0, "(0, ∞) ∩ [min step, max step]")
	case t.MaxIterations <= 0:
		err = Invalid("max iterations", t.MaxIterations, "(0, ∞)")
	}
	return
}

// New creates a Moré–Thuente line search.
func (t MoreThuenteTol) New() (*MoreThuente, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &MoreThuente{tol: t}, nil
}

// MoreThuente finds a step satisfying the strong Wolfe conditions by safeguarded
// cubic and quadratic interpolation on an interval that brackets a minimizer.
type MoreThuente struct {
	tol  MoreThuenteTol
	last Stats
}

// Tol returns the settings of the search.
func (mt *MoreThuente) Tol() MoreThuenteTol { return mt.tol }

// Fork returns a copy with its own statistics.
func (mt *MoreThuente) Fork() Searcher { return &MoreThuente{tol: mt.tol} }

// Last returns the statistics of the last search.
func (mt *MoreThuente) Last() Stats { return mt.last }

// Search returns a strong Wolfe step, or the best step found once the budget is exhausted.
// The first trial is prevStep, or α₀ when prevStep is 0.
func (mt *MoreThuente) Search(f objective.Function, x, d []float64, prevStep float64) float64 {

	s := &mtSearch{line: newLine(f, x, d), tol: &mt.tol}

	stp := mt.tol.Alpha0
	if prevStep > 0 {
		stp = math.Min(math.Max(prevStep, mt.tol.MinStep), mt.tol.MaxStep)
	}

	alpha := s.minimize(stp)
	s.stats.Evals = s.evals

	mt.last = s.stats
	return alpha
}

// endpoint is a step with its cost and slope.
type endpoint struct {
	st, f, g float64
}

type mtSearch struct {
	*line
	tol *MoreThuenteTol

	f0, g0     float64
	sx, sy     endpoint // sx holds the lowest cost, sy the other end of the interval
	bracketed  bool
	wolfe      bool // the sufficient decrease held with a non-negative slope
	stmin      float64
	stmax      float64
	ceil       float64 // steps at or above ceil left the domain of 𝒇
	width      float64
	widthPrior float64
	stats      Stats
}

func (s *mtSearch) minimize(stp float64) float64 {

	tol := s.tol
	s.f0, s.g0 = s.phi(0), s.der(0)

	// no descent along d, stay where we are
	if !(s.g0 < 0) || !finite(s.f0) {
		return 0
	}

	s.sx = endpoint{0, s.f0, s.g0}
	s.sy = s.sx
	s.width = tol.MaxStep - tol.MinStep
	s.widthPrior = 2 * s.width
	s.stmin, s.stmax = 0, stp+mtExtrapHi*stp
	s.ceil = math.Inf(1)

	gTest := tol.Decrease * s.g0
	for i := 0; i < tol.MaxIterations; i++ {
		s.stats.Iterations++

		f, g := s.phi(stp), s.der(stp)
		if !finite(f) || !finite(g) {
			// retreat toward the best step
			s.ceil = stp
			stp = s.sx.st + (stp-s.sx.st)/2
			continue
		}

		fTest := s.f0 + stp*gTest
		switch {
		case s.bracketed && (stp <= s.stmin || stp >= s.stmax):
			return s.settle(stp, f, fTest) // rounding errors prevent progress
		case s.bracketed && s.stmax-s.stmin <= tol.StepTol*s.stmax:
			return s.settle(stp, f, fTest)
		case stp == tol.MaxStep && f <= fTest && g <= gTest:
			return stp
		case stp == tol.MinStep && (f > fTest || g >= gTest):
			return s.settle(stp, f, fTest)
		case f <= fTest && math.Abs(g) <= tol.Curvature*(-s.g0):
			return stp
		}

		stp = s.next(endpoint{stp, f, g}, fTest, gTest)
	}

	return s.sx.st
}

// settle returns stp when it satisfies the sufficient decrease condition and the best step otherwise.
func (s *mtSearch) settle(stp, f, fTest float64) float64 {
	if f <= fTest {
		return stp
	}
	return s.sx.st
}

// next updates the interval with the trial p and returns the following trial step.
func (s *mtSearch) next(p endpoint, fTest, gTest float64) float64 {

	tol := s.tol

	if !s.wolfe && p.f <= fTest && p.g >= 0 {
		s.wolfe = true
	}

	var stp float64
	if !s.wolfe && p.f <= s.sx.f && p.f > fTest {
		// interpolate the modified function ψ(α) = φ(α) - μαφ′(0)
		shift := func(e endpoint, sign float64) endpoint {
			return endpoint{e.st, e.f + sign*e.st*gTest, e.g + sign*gTest}
		}
		x, y := shift(s.sx, -1), shift(s.sy, -1)
		stp = cstep(&x, &y, shift(p, -1), &s.bracketed, s.stmin, s.stmax)
		s.sx, s.sy = shift(x, 1), shift(y, 1)
	} else {
		stp = cstep(&s.sx, &s.sy, p, &s.bracketed, s.stmin, s.stmax)
	}

	// force sufficient shrinkage of the interval
	if s.bracketed {
		if math.Abs(s.sy.st-s.sx.st) >= mtBisect*s.widthPrior {
			stp = s.sx.st + (s.sy.st-s.sx.st)/2
		}
		s.widthPrior = s.width
		s.width = math.Abs(s.sy.st - s.sx.st)
	}

	if s.bracketed {
		s.stmin = math.Min(s.sx.st, s.sy.st)
		s.stmax = math.Max(s.sx.st, s.sy.st)
	} else {
		s.stmin = stp + mtExtrapLo*(stp-s.sx.st)
		s.stmax = stp + mtExtrapHi*(stp-s.sx.st)
	}

	stp = math.Min(math.Max(stp, tol.MinStep), tol.MaxStep)

	if s.bracketed && (stp <= s.stmin || stp >= s.stmax || s.stmax-s.stmin <= tol.StepTol*s.stmax) {
		stp = s.sx.st
	}
	if stp >= s.ceil {
		stp = s.sx.st + (s.ceil-s.sx.st)/2
	}
	return stp
}

// cubic returns θ and γ of the cubic interpolating (u, fu, du) and (v, fv, dv).
func cubic(u, fu, du, v, fv, dv float64) (theta, gamma float64) {
	theta = 3*(fu-fv)/(v-u) + du + dv
	s := max(math.Abs(theta), math.Abs(du), math.Abs(dv))
	gamma = s * math.Sqrt(math.Max(0, (theta/s)*(theta/s)-(du/s)*(dv/s)))
	return
}

// cstep (minpack dcstep) computes a safeguarded trial step and updates the
// interval [x, y] that contains a step satisfying the Wolfe conditions.
// The slope at x must point toward p.
func cstep(x, y *endpoint, p endpoint, bracketed *bool, stmin, stmax float64) float64 {

	var stpf float64
	sgnd := p.g * math.Copysign(1, x.g)

	switch {
	case p.f > x.f:
		// higher cost, a minimizer is bracketed.
		// Take the cubic step when closer to x, else the mean of cubic and quadratic.
		theta, gamma := cubic(x.st, x.f, x.g, p.st, p.f, p.g)
		if p.st < x.st {
			gamma = -gamma
		}
		r := ((gamma - x.g) + theta) / (((gamma - x.g) + gamma) + p.g)
		stpc := x.st + r*(p.st-x.st)
		stpq := x.st + (x.g/((x.f-p.f)/(p.st-x.st)+x.g))/2*(p.st-x.st)
		if math.Abs(stpc-x.st) < math.Abs(stpq-x.st) {
			stpf = stpc
		} else {
			stpf = stpc + (stpq-stpc)/2
		}
		*bracketed = true

	case sgnd < 0:
		// lower cost and slopes of opposite sign, a minimizer is bracketed.
		// Take the cubic step when farther from p, else the secant step.
		theta, gamma := cubic(x.st, x.f, x.g, p.st, p.f, p.g)
		if p.st > x.st {
			gamma = -gamma
		}
		r := ((gamma - p.g) + theta) / (((gamma - p.g) + gamma) + x.g)
		stpc := p.st + r*(x.st-p.st)
		stpq := p.st + p.g/(p.g-x.g)*(x.st-p.st)
		if math.Abs(stpc-p.st) > math.Abs(stpq-p.st) {
			stpf = stpc
		} else {
			stpf = stpq
		}
		*bracketed = true

	case math.Abs(p.g) < math.Abs(x.g):
		// lower cost, slopes of the same sign and the slope magnitude decreases.
		// The cubic step is used only when it tends to infinity toward the step
		// or its minimizer lies beyond p, otherwise it becomes stmin or stmax.
		theta, gamma := cubic(x.st, x.f, x.g, p.st, p.f, p.g)
		if p.st > x.st {
			gamma = -gamma
		}
		r := ((gamma - p.g) + theta) / ((gamma + (x.g - p.g)) + gamma)
		var stpc float64
		switch {
		case r < 0 && gamma != 0:
			stpc = p.st + r*(x.st-p.st)
		case p.st > x.st:
			stpc = stmax
		default:
			stpc = stmin
		}
		stpq := p.st + p.g/(p.g-x.g)*(x.st-p.st)

		if *bracketed {
			if math.Abs(stpc-p.st) < math.Abs(stpq-p.st) {
				stpf = stpc
			} else {
				stpf = stpq
			}
			if p.st > x.st {
				stpf = math.Min(p.st+mtBisect*(y.st-p.st), stpf)
			} else {
				stpf = math.Max(p.st+mtBisect*(y.st-p.st), stpf)
			}
		} else {
			if math.Abs(stpc-p.st) > math.Abs(stpq-p.st) {
				stpf = stpc
			} else {
				stpf = stpq
			}
			stpf = math.Max(stmin, math.Min(stmax, stpf))
		}

	default:
		// lower cost, slopes of the same sign and the slope magnitude does not decrease.
		switch {
		case *bracketed:
			theta, gamma := cubic(p.st, p.f, p.g, y.st, y.f, y.g)
			if p.st > y.st {
				gamma = -gamma
			}
			r := ((gamma - p.g) + theta) / (((gamma - p.g) + gamma) + y.g)
			stpf = p.st + r*(y.st-p.st)
		case p.st > x.st:
			stpf = stmax
		default:
			stpf = stmin
		}
	}

	// update the interval
	if p.f > x.f {
		*y = p
	} else {
		if sgnd < 0 {
			*y = *x
		}
		*x = p
	}

	return stpf
}
