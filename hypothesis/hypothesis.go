// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hypothesis provides parametric models fitted by least squares.
package hypothesis

import (
	"math"
)

// DataPoint is one observation of the inputs 𝐱 and the output y.
type DataPoint struct {
	Inputs []float64
	Output float64
}

// Hypothesis is a model h(θ, 𝐱) differentiable with respect to its coefficients θ.
type Hypothesis interface {
	// Evaluate returns h(θ, 𝐱).
	Evaluate(theta, x []float64) float64
	// CoefficientGradient stores ∂h/∂θ into g, where len(g) == len(theta).
	CoefficientGradient(theta, x, g []float64)
}

// InputDifferentiable is a hypothesis also differentiable with respect to its inputs.
type InputDifferentiable interface {
	Hypothesis
	// InputGradient stores ∂h/∂𝐱 into g, where len(g) == len(x).
	InputGradient(theta, x, g []float64)
}

// Linear is the affine model h(θ, 𝐱) = θ₀ + Σθᵢxᵢ with len(θ) = len(𝐱) + 1.
type Linear struct{}

func (Linear) Evaluate(theta, x []float64) float64 {
	h := theta[0]
	for i, v := range x {
		h += theta[i+1] * v
	}
	return h
}

func (Linear) CoefficientGradient(_, x, g []float64) {
	g[0] = 1
	copy(g[1:], x)
}

func (Linear) InputGradient(theta, _, g []float64) {
	copy(g, theta[1:])
}

// Rosenbrock is h(θ, 𝐱) = (a - x)² + b(y - x²)² with θ = (a, b) and 𝐱 = (x, y).
type Rosenbrock struct{}

func (Rosenbrock) Evaluate(theta, x []float64) float64 {
	a, b := theta[0], theta[1]
	u, v := a-x[0], x[1]-x[0]*x[0]
	return u*u + b*v*v
}

func (Rosenbrock) CoefficientGradient(theta, x, g []float64) {
	v := x[1] - x[0]*x[0]
	g[0] = 2 * (theta[0] - x[0])
	g[1] = v * v
}

func (Rosenbrock) InputGradient(theta, x, g []float64) {
	a, b := theta[0], theta[1]
	v := x[1] - x[0]*x[0]
	g[0] = -2*(a-x[0]) - 4*b*x[0]*v
	g[1] = 2 * b * v
}

// Exponential is the univariate power curve h(θ, x) = θ₀ + θ₁x^θ₂, defined for x > 0.
type Exponential struct{}

func (Exponential) Evaluate(theta, x []float64) float64 {
	return theta[0] + theta[1]*math.Pow(x[0], theta[2])
}

func (Exponential) CoefficientGradient(theta, x, g []float64) {
	p := math.Pow(x[0], theta[2])
	g[0] = 1
	g[1] = p
	g[2] = theta[1] * p * math.Log(x[0])
}

func (Exponential) InputGradient(theta, x, g []float64) {
	g[0] = theta[1] * theta[2] * math.Pow(x[0], theta[2]-1)
}
