// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linesearch finds step lengths along descent directions.
//
// Given a location 𝐱 and a descent direction 𝐝 a line search minimizes the
// one dimensional function
//
//	φ(α) = 𝒇(𝐱 + α𝐝),  φ′(α) = ∇𝒇(𝐱 + α𝐝)ᵀ𝐝
//
// until some stopping criterion is met.
package linesearch

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/conjugate/objective"
)

// Searcher computes a step length α along d starting from x.
//
// The prevStep is the step returned by the previous search of the same run,
// or 0 on the first search and after every restart.
// Implementations never modify x or d.
type Searcher interface {
	Search(f objective.Function, x, d []float64, prevStep float64) float64
}

// Forker is implemented by searchers carrying memory across the searches of one run.
// Fork returns an independent searcher with fresh memory sharing the same tolerances.
type Forker interface {
	Fork() Searcher
}

// Stats summarize the last search performed by a searcher.
type Stats struct {
	Evals      int // Number of φ and φ′ evaluations.
	Iterations int // Number of main loop iterations.
	Bracketing int // Number of bracketing iterations.
}

// Reporter is implemented by searchers exposing statistics of their last search.
type Reporter interface {
	Last() Stats
}

// InvalidArgumentError reports a tunable outside its documented range.
type InvalidArgumentError struct {
	Name  string
	Value any
	Range string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %v: outside allowed range %s", e.Name, e.Value, e.Range)
}

// Invalid returns an InvalidArgumentError annotated with a stack trace.
func Invalid(name string, value any, rng string) error {
	return errors.WithStack(&InvalidArgumentError{Name: name, Value: value, Range: rng})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// sample holds memoized values of φ and φ′ at one step.
type sample struct {
	phi, der       float64
	hasPhi, hasDer bool
}

// line evaluates φ and φ′ along x + αd.
// Values are memoized for the lifetime of one search.
type line struct {
	f      objective.Function
	x, d   []float64
	xa, ga []float64
	memo   map[float64]*sample
	evals  int
}

func newLine(f objective.Function, x, d []float64) *line {
	if len(x) != len(d) {
		panic("direction dimension not match location")
	}
	return &line{
		f: f, x: x, d: d,
		xa:   make([]float64, len(x)),
		ga:   make([]float64, len(x)),
		memo: make(map[float64]*sample),
	}
}

func (l *line) sample(alpha float64) *sample {
	s, ok := l.memo[alpha]
	if !ok {
		s = new(sample)
		l.memo[alpha] = s
	}
	return s
}

func (l *line) at(alpha float64) []float64 {
	floats.AddScaledTo(l.xa, l.x, alpha, l.d) // xₐ = x + αd
	return l.xa
}

// phi returns φ(α).
func (l *line) phi(alpha float64) float64 {
	s := l.sample(alpha)
	if !s.hasPhi {
		s.phi, s.hasPhi = l.f.Cost(l.at(alpha)), true
		l.evals++
	}
	return s.phi
}

// der returns φ′(α).
func (l *line) der(alpha float64) float64 {
	s := l.sample(alpha)
	if !s.hasDer {
		l.f.Gradient(l.at(alpha), l.ga)
		s.der, s.hasDer = floats.Dot(l.ga, l.d), true
		l.evals++
	}
	return s.der
}
