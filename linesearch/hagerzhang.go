// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linesearch

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/conjugate/objective"
)

// HagerZhangTol specifies the Hager-Zhang line search.
//
// # Reference:
//
//   - W. W. Hager and H. Zhang, A new conjugate gradient method with guaranteed descent and an efficient line search,
//     SIAM J. Optim., 16 (2005), pp. 170-192.
//   - W. W. Hager and H. Zhang, Algorithm 851: CG_DESCENT, a conjugate gradient method with guaranteed descent,
//     ACM Trans. Math. Software, 32 (2006), pp. 113-137.
type HagerZhangTol struct {
	// δ used in the Wolfe conditions, range (0, 0.5).
	Delta float64 `yaml:"delta"`
	// σ used in the Wolfe conditions, range (δ, 1).
	Sigma float64 `yaml:"sigma"`
	// ε error tolerance of the approximate Wolfe conditions, range [0, ∞).
	Epsilon float64 `yaml:"epsilon"`
	// ω controls the switch to the approximate Wolfe conditions, range [0, 1].
	Omega float64 `yaml:"omega"`
	// Δ decay factor of the running cost average Qₖ, range [0, 1].
	Decay float64 `yaml:"decay"`
	// θ bisection weight of the U3 update rule, range (0, 1).
	Theta float64 `yaml:"theta"`
	// γ required bracket shrink factor per secant step, range (0, 1).
	Gamma float64 `yaml:"gamma"`
	// ρ expansion factor of the bracketing phase, range (1, ∞).
	Rho float64 `yaml:"rho"`
	// ψ₀ scale of the first initial step, range (0, 1).
	Psi0 float64 `yaml:"psi0"`
	// ψ₁ probe factor of QuadStep, range (0, 1).
	Psi1 float64 `yaml:"psi1"`
	// ψ₂ factor multiplying the previous step, range (1, ∞).
	Psi2 float64 `yaml:"psi2"`
	// QuadStep enables the quadratic interpolation of the initial step.
	QuadStep bool `yaml:"quad_step"`
	// α₀ fixed first step, range (0, ∞). NaN leaves it to the heuristic.
	Alpha0 float64 `yaml:"alpha0"`
	// AdaptiveWolfe accepts the approximate Wolfe conditions only once
	// |𝒇ₖ - 𝒇ₖ₋₁| ≤ ωCₖ. Otherwise both conditions are always accepted.
	AdaptiveWolfe bool `yaml:"adaptive_wolfe"`
	// MaxBracketing bounds the number of bracketing iterations.
	MaxBracketing int `yaml:"max_bracketing"`
	// MaxIterations bounds the number of secant and bisection iterations.
	MaxIterations int `yaml:"max_iterations"`
}

// DefaultHagerZhangTol returns the settings recommended by CG_DESCENT.
func DefaultHagerZhangTol() HagerZhangTol {
	return HagerZhangTol{
		Delta:         0.1,
		Sigma:         0.9,
		Epsilon:       1e-6,
		Omega:         1e-3,
		Decay:         0.7,
		Theta:         0.5,
		Gamma:         0.66,
		Rho:           5,
		Psi0:          0.01,
		Psi1:          0.1,
		Psi2:          2,
		QuadStep:      true,
		Alpha0:        math.NaN(),
		MaxBracketing: 50,
		MaxIterations: 250,
	}
}

// Validate reports the first setting outside its allowed range.
func (t HagerZhangTol) Validate() (err error) {
	open := func(v, lo, hi float64) bool { return finite(v) && v > lo && v < hi }
	closed := func(v, lo, hi float64) bool { return finite(v) && v >= lo && v <= hi }
	switch {
	case !open(t.Delta, 0, 0.5):
		err = Invalid("δ", t.Delta, "(0, 0.5)")
	case !open(t.Sigma, t.Delta, 1):
		err = Invalid("σ", t.Sigma, "(δ, 1)")
	case !finite(t.Epsilon) || t.Epsilon < 0:
		err = Invalid("ε", t.Epsilon, "[0, ∞)")
	case !closed(t.Omega, 0, 1):
		err = Invalid("ω", t.Omega, "[0, 1]")
	case !closed(t.Decay, 0, 1):
		err = Invalid("Δ", t.Decay, "[0, 1]")
	case !open(t.Theta, 0, 1):
		err = Invalid("θ", t.Theta, "(0, 1)")
	case !open(t.Gamma, 0, 1):
		err = Invalid("γ", t.Gamma, "(0, 1)")
	case !finite(t.Rho) || t.Rho <= 1:
		err = Invalid("ρ", t.Rho, "(1, ∞)")
	case !open(t.Psi0, 0, 1):
		err = Invalid("ψ₀", t.Psi0, "(0, 1)")
	case !open(t.Psi1, 0, 1):
		err = Invalid("ψ₁", t.Psi1, "(0, 1)")
	case !finite(t.Psi2) || t.Psi2 <= 1:
		err = Invalid("ψ₂", t.Psi2, "(1, ∞)")
	case !math.IsNaN(t.Alpha0) && (math.IsInf(t.Alpha0, 0) || t.Alpha0 <= 0):
		err = Invalid("α₀", t.Alpha0, "(0, ∞)")
	case t.MaxBracketing <= 0:
		err = Invalid("max bracketing", t.MaxBracketing, "(0, ∞)")
	case t.MaxIterations <= 0:
		err = Invalid("max iterations", t.MaxIterations, "(0, ∞)")
	}
	return
}

// New creates a Hager-Zhang line search.
func (t HagerZhangTol) New() (*HagerZhang, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &HagerZhang{tol: t}, nil
}

// HagerZhang finds a step satisfying either the original Wolfe conditions
//
//	φ(α) - φ(0) ≤ δαφ′(0)  and  φ′(α) ≥ σφ′(0)
//
// or the approximate Wolfe conditions
//
//	(2δ - 1)φ′(0) ≥ φ′(α) ≥ σφ′(0)  and  φ(α) ≤ φ(0) + ε
//
// which remain reliable near a minimum where rounding errors dominate the
// sufficient decrease test.
//
// A HagerZhang is not safe for concurrent use; Fork one per run.
type HagerZhang struct {
	tol  HagerZhangTol
	mem  wolfeMemory
	last Stats
}

// wolfeMemory tracks the running average Cₖ of |𝒇| used to switch to approximate Wolfe.
type wolfeMemory struct {
	q, c, f float64
	seen    bool
	approx  bool
}

// Tol returns the settings of the search.
func (hz *HagerZhang) Tol() HagerZhangTol { return hz.tol }

// Fork returns a copy with fresh memory.
func (hz *HagerZhang) Fork() Searcher { return &HagerZhang{tol: hz.tol} }

// Last returns the statistics of the last search.
func (hz *HagerZhang) Last() Stats { return hz.last }

// bracket is an interval [a, b] on the step axis.
// While valid φ′(a) < 0 and φ′(b) ≥ 0.
type bracket struct {
	a, b float64
}

func (br bracket) width() float64 { return br.b - br.a }

// hzSearch holds the working variables of one search.
type hzSearch struct {
	*line
	tol    *HagerZhangTol
	phi0   float64
	der0   float64
	g0     []float64
	approx bool
	stats  Stats
}

// Search returns a step satisfying the (approximate) Wolfe conditions, or a best effort
// step once the iteration budget is exhausted. Pass prevStep = 0 on the first search of a run.
func (hz *HagerZhang) Search(f objective.Function, x, d []float64, prevStep float64) float64 {

	s := newSearch(&hz.tol, f, x, d)
	s.approx = hz.switchApprox(s.phi0)

	alpha := s.minimize(x, prevStep)
	s.stats.Evals = s.evals + 1

	hz.last = s.stats
	return alpha
}

// switchApprox updates Qₖ and Cₖ and reports whether approximate Wolfe may be used.
func (hz *HagerZhang) switchApprox(f float64) bool {
	if !hz.tol.AdaptiveWolfe {
		return true
	}
	m := &hz.mem
	if m.seen && !m.approx && math.Abs(f-m.f) <= hz.tol.Omega*m.c {
		m.approx = true
	}
	m.q = 1 + hz.tol.Decay*m.q
	m.c += (math.Abs(f) - m.c) / m.q
	m.f, m.seen = f, true
	return m.approx
}

func newSearch(tol *HagerZhangTol, f objective.Function, x, d []float64) *hzSearch {
	s := &hzSearch{line: newLine(f, x, d), tol: tol, approx: true}
	s.phi0 = s.phi(0)
	s.g0 = make([]float64, len(x))
	f.Gradient(x, s.g0)
	s.der0 = floats.Dot(s.g0, d)
	z := s.sample(0)
	z.der, z.hasDer = s.der0, true
	return s
}

func (s *hzSearch) minimize(x []float64, prevStep float64) float64 {

	// no descent along d, stay where we are
	if !(s.der0 < 0) || !finite(s.phi0) {
		return 0
	}

	c := s.initialStep(x, prevStep)
	if s.terminate(c) {
		return c
	}

	br := s.bracketStart(c)
	if s.terminate(br.a) {
		return br.a
	}
	if s.terminate(br.b) {
		return br.b
	}

	gamma := s.tol.Gamma
	for i := 0; i < s.tol.MaxIterations; i++ {
		s.stats.Iterations++

		// L1: the double secant step shrinks the bracket
		next := s.doubleSecant(br)
		if s.terminate(next.a) {
			return next.a
		}
		if s.terminate(next.b) {
			return next.b
		}

		// L2: bisect when the secant made too little progress
		if next.width() > gamma*br.width() {
			c = (next.a + next.b) / 2
			if s.terminate(c) {
				return c
			}
			next = s.update(next, c)
		}

		// L3
		br = next
	}

	return s.bestEffort(br)
}

// bestEffort picks the endpoint with the lower cost, preferring a nonzero step.
// An endpoint with a non-finite cost or slope is never returned.
func (s *hzSearch) bestEffort(br bracket) float64 {
	pb := s.phi(br.b)
	if !finite(pb) || !finite(s.der(br.b)) {
		return br.a
	}
	if br.a <= 0 || pb < s.phi(br.a) {
		return br.b
	}
	return br.a
}

// initialStep selects the first trial step.
func (s *hzSearch) initialStep(x []float64, prevStep float64) float64 {

	tol := s.tol

	if prevStep == 0 {
		// user-defined starting value
		if !math.IsNaN(tol.Alpha0) {
			return tol.Alpha0
		}
		// α = ψ₀‖𝐱‖∞ / ‖∇𝒇(𝐱)‖∞
		if xNorm := floats.Norm(x, math.Inf(1)); xNorm > 0 {
			if gNorm := floats.Norm(s.g0, math.Inf(1)); gNorm > 0 {
				return tol.Psi0 * xNorm / gNorm
			}
		}
		// α = ψ₀|𝒇(𝐱)| / ‖∇𝒇(𝐱)‖²
		if fAbs := math.Abs(s.phi0); fAbs > 0 {
			if gg := floats.Dot(s.g0, s.g0); gg > 0 {
				return tol.Psi0 * fAbs / gg
			}
		}
		return 1
	}

	if tol.QuadStep {
		// Fit q(α) = φ(0) + φ′(0)α + aα² through φ(r) with r = ψ₁αₖ₋₁.
		// Only trust the fit when φ(r) ≤ φ(0) and q is convex.
		r := tol.Psi1 * prevStep
		if phiR := s.phi(r); phiR <= s.phi0 {
			den := s.phi0 - phiR + r*s.der0
			a := -den / (r * r)
			if a > 0 {
				if rMin := 0.5 * r * r * s.der0 / den; finite(rMin) && rMin >= 0 {
					return rMin
				}
			}
		}
	}

	return tol.Psi2 * prevStep
}

// terminate tests the Wolfe and approximate Wolfe conditions at α.
func (s *hzSearch) terminate(alpha float64) bool {

	if !finite(alpha) {
		return false
	}

	phi, der := s.phi(alpha), s.der(alpha)
	if !finite(phi) || !finite(der) {
		return false
	}

	delta, sigma := s.tol.Delta, s.tol.Sigma
	phi0, der0 := s.phi0, s.der0

	// sufficient decrease and curvature
	if phi-phi0 <= delta*alpha*der0 && der >= sigma*der0 {
		return true
	}

	return s.approx &&
		(2*delta-1)*der0 >= der &&
		der >= sigma*der0 &&
		phi <= phi0+s.tol.Epsilon
}

// bracketStart expands [0, c] geometrically until it brackets a step satisfying the conditions.
func (s *hzSearch) bracketStart(c float64) bracket {

	rho, eps := s.tol.Rho, s.tol.Epsilon
	bound := s.phi0 + eps

	// B0: track the trial steps visited so far
	history := make([]float64, 0, 8)
	for j := 0; j < s.tol.MaxBracketing; j++ {
		s.stats.Bracketing++

		// c left the domain of 𝒇, treat it as an increase of the cost
		if !finite(s.phi(c)) || !finite(s.der(c)) {
			return s.bisect(0, c)
		}

		// B1: ascending at c, backtrack to the most recent step with an acceptable cost
		if s.der(c) >= 0 {
			for k := len(history) - 1; k >= 0; k-- {
				if s.phi(history[k]) <= bound {
					return bracket{history[k], c}
				}
			}
			return bracket{0, c}
		}

		// B2: still descending but the cost grew, a minimizer lies in [0, c]
		if s.phi(c) > bound {
			return s.bisect(0, c)
		}

		// B3: keep expanding
		history = append(history, c)
		c = rho * c
	}

	return bracket{0, c}
}

// update applies the rules U0 to U3 on [a, b] with the trial step c.
func (s *hzSearch) update(br bracket, c float64) bracket {

	// U0: c outside the bracket
	if !finite(c) || c < br.a || c > br.b {
		return br
	}

	// U1
	if s.der(c) >= 0 {
		return bracket{br.a, c}
	}

	// U2
	if s.phi(c) <= s.phi0+s.tol.Epsilon {
		return bracket{c, br.b}
	}

	// U3
	return s.bisect(br.a, c)
}

// bisect shrinks [a, b] with weighted bisection until φ′ turns non-negative (rule U3).
func (s *hzSearch) bisect(a, b float64) bracket {

	theta := s.tol.Theta
	bound := s.phi0 + s.tol.Epsilon

	for i := 0; i < s.tol.MaxIterations; i++ {
		// U3a
		d := (1-theta)*a + theta*b
		if s.der(d) >= 0 {
			return bracket{a, d}
		}
		if s.phi(d) <= bound {
			a = d // U3b
		} else {
			b = d // U3c
		}
	}

	return bracket{a, b}
}

// secant returns the root of the linear interpolation of φ′ on [a, b].
// A flat φ′ leaves the left endpoint unchanged.
func (s *hzSearch) secant(a, b float64) float64 {
	da, db := s.der(a), s.der(b)
	if db == da {
		return a
	}
	c := (a*db - b*da) / (db - da)
	if !finite(c) {
		return a
	}
	return c
}

// doubleSecant performs the secant step S1 and, when it lands on an edge of
// the updated bracket, a second secant step on the corresponding half.
func (s *hzSearch) doubleSecant(br bracket) bracket {

	// S1
	c := s.secant(br.a, br.b)
	next := s.update(br, c)

	switch c {
	case next.b: // S2
		return s.update(next, s.secant(br.b, next.b))
	case next.a: // S3
		return s.update(next, s.secant(br.a, next.a))
	}

	// S4
	return next
}
