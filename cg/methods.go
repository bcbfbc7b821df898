// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/conjugate/linesearch"
)

// Method is a beta strategy choosing the conjugate search direction.
type Method interface {
	// Start returns the per-run state and the first search direction
	// for the location x with residual r = -∇𝒇(𝐱).
	Start(x, r []float64) (State, []float64)
}

// State is the private memory of a beta strategy during one run.
type State interface {
	// Update returns the next direction and the new squared residual δ given the
	// previous direction d and δ. A false ok requests a restart along r.
	// The input d may be reused as the returned direction.
	Update(x, r, d []float64, delta float64) (dir []float64, next float64, ok bool)
}

func normalize(v []float64) []float64 {
	if n := floats.Norm(v, 2); n > 0 {
		floats.Scale(1/n, v)
	}
	return v
}

func methodName(m Method) string {
	switch m.(type) {
	case FletcherReeves, *FletcherReeves:
		return "FR"
	case PolakRibiere, *PolakRibiere:
		return "PR"
	case HagerZhang, *HagerZhang:
		return "HZ"
	default:
		return fmt.Sprintf("%T", m)
	}
}

// FletcherReeves computes
//
//	βₖ = rₖᵀrₖ / rₖ₋₁ᵀrₖ₋₁
//
// and keeps the direction normalized.
type FletcherReeves struct{}

func (FletcherReeves) Start(_, r []float64) (State, []float64) {
	return fletcherReeves{}, normalize(append([]float64(nil), r...))
}

type fletcherReeves struct{}

func (fletcherReeves) Update(_, r, d []float64, delta float64) ([]float64, float64, bool) {
	next := floats.Dot(r, r)
	beta := next / delta
	// d = r + βd
	floats.AddScaledTo(d, r, beta, d)
	normalize(d)
	return d, next, floats.Dot(r, d) > 0
}

// PolakRibiere computes the preconditioned
//
//	βₖ = (rₖᵀzₖ - rₖᵀzₖ₋₁) / δₖ₋₁,  zₖ = 𝐌⁻¹rₖ
//
// and restarts whenever βₖ ≤ 0.
type PolakRibiere struct {
	// Preconditioner returns 𝐌 at x. Nil stands for the identity.
	Preconditioner func(x []float64) mat.Matrix
}

func (p PolakRibiere) Start(x, r []float64) (State, []float64) {
	s := &polakRibiere{precond: p.Preconditioner}
	z, ok := s.solve(x, r)
	if !ok {
		z = append(z[:0], r...)
	}
	s.prevZ = z
	return s, append([]float64(nil), z...)
}

type polakRibiere struct {
	precond func(x []float64) mat.Matrix
	prevZ   []float64
}

// solve returns 𝐌⁻¹r, or false when 𝐌 is singular.
func (s *polakRibiere) solve(x, r []float64) ([]float64, bool) {
	z := make([]float64, len(r))
	if s.precond == nil {
		copy(z, r)
		return z, true
	}
	var v mat.VecDense
	if err := v.SolveVec(s.precond(x), mat.NewVecDense(len(r), append([]float64(nil), r...))); err != nil {
		return z, false
	}
	copy(z, v.RawVector().Data)
	for _, v := range z {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return z, false
		}
	}
	return z, true
}

func (s *polakRibiere) Update(x, r, d []float64, delta float64) ([]float64, float64, bool) {
	mid := floats.Dot(r, s.prevZ)
	z, ok := s.solve(x, r)
	if !ok {
		copy(s.prevZ, r)
		return d, floats.Dot(r, r), false
	}
	next := floats.Dot(r, z)
	beta := (next - mid) / delta
	s.prevZ = z
	if !(beta > 0) {
		return d, next, false
	}
	// d = r + βd
	floats.AddScaledTo(d, r, beta, d)
	return d, next, true
}

// HagerZhang computes the CG_DESCENT
//
//	βᴺₖ = (𝐲ₖ - 2𝐝ₖ‖𝐲ₖ‖²/𝐝ₖᵀ𝐲ₖ)ᵀ𝐠ₖ₊₁ / 𝐝ₖᵀ𝐲ₖ,  𝐲ₖ = 𝐠ₖ₊₁ - 𝐠ₖ
//
// truncated below by ηₖ = -1 / ‖𝐝ₖ‖ min(η, ‖𝐠ₖ‖), which guarantees descent.
type HagerZhang struct {
	// Eta is the η of the lower bound, range (0, ∞).
	Eta float64 `yaml:"eta"`
}

// DefaultHagerZhang returns η = 0.01.
func DefaultHagerZhang() HagerZhang {
	return HagerZhang{Eta: 0.01}
}

// Validate reports η outside its range.
func (h HagerZhang) Validate() error {
	if math.IsNaN(h.Eta) || math.IsInf(h.Eta, 0) || h.Eta <= 0 {
		return linesearch.Invalid("η", h.Eta, "(0, ∞)")
	}
	return nil
}

func (h HagerZhang) Start(_, r []float64) (State, []float64) {
	g := make([]float64, len(r))
	floats.ScaleTo(g, -1, r)
	return &hagerZhang{eta: h.Eta, prevG: g}, normalize(append([]float64(nil), r...))
}

type hagerZhang struct {
	eta   float64
	prevG []float64
}

func (s *hagerZhang) Update(_, r, d []float64, _ float64) ([]float64, float64, bool) {
	n := len(r)
	g := make([]float64, n)
	floats.ScaleTo(g, -1, r)

	y := make([]float64, n)
	floats.SubTo(y, g, s.prevG)
	s.prevG = g

	next := floats.Dot(g, g)
	dy := floats.Dot(d, y)
	if dy == 0 {
		return d, next, false
	}

	// β = (y - 2d‖y‖²/dᵀy)ᵀg / dᵀy
	yy := floats.Dot(y, y)
	beta := (floats.Dot(y, g) - 2*yy/dy*floats.Dot(d, g)) / dy

	etaK := -1 / (floats.Norm(d, 2) * math.Min(s.eta, math.Sqrt(next)))
	beta = math.Max(beta, etaK)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return d, next, false
	}

	// d = -g + βd
	floats.AddScaledTo(d, r, beta, d)
	return d, next, floats.Dot(r, d) > 0
}
