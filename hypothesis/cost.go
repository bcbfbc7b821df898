// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hypothesis

import (
	"gonum.org/v1/gonum/floats"
)

// SumOfSquares is the least squares cost of H over Data
//
//	𝒇(θ) = Σ (h(θ, 𝐱ᵢ) - yᵢ)² / 2N
//	∇𝒇(θ) = Σ (h(θ, 𝐱ᵢ) - yᵢ) ∂h/∂θ / N
//
// It is safe for concurrent use as long as Data is not modified.
type SumOfSquares struct {
	H    Hypothesis
	Data []DataPoint
}

func (s SumOfSquares) Cost(theta []float64) float64 {
	if len(s.Data) == 0 {
		return 0
	}
	var sum float64
	for _, p := range s.Data {
		e := s.H.Evaluate(theta, p.Inputs) - p.Output
		sum += e * e
	}
	return sum / float64(2*len(s.Data))
}

func (s SumOfSquares) Gradient(theta, g []float64) {
	if len(g) != len(theta) {
		panic("gradient dimension not match coefficients")
	}
	for i := range g {
		g[i] = 0
	}
	if len(s.Data) == 0 {
		return
	}
	dh := make([]float64, len(theta))
	for _, p := range s.Data {
		e := s.H.Evaluate(theta, p.Inputs) - p.Output
		s.H.CoefficientGradient(theta, p.Inputs, dh)
		floats.AddScaled(g, e, dh)
	}
	floats.Scale(1/float64(len(s.Data)), g)
}

// FunctionValue minimizes h(θ, 𝐱) over the inputs 𝐱 with fixed coefficients θ.
type FunctionValue struct {
	H     InputDifferentiable
	Theta []float64
}

func (f FunctionValue) Cost(x []float64) float64 {
	return f.H.Evaluate(f.Theta, x)
}

func (f FunctionValue) Gradient(x, g []float64) {
	f.H.InputGradient(f.Theta, x, g)
}
