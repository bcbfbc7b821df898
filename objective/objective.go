// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package objective defines the contract between minimizers and the
// differentiable functions they minimize.
package objective

import (
	"github.com/curioloop/conjugate/numdiff"
)

// Function is a differentiable scalar objective 𝒇(𝐱) : ℝⁿ → ℝ.
//
// Both methods must be deterministic and free of side effects for the same x,
// and must not retain x or g after returning.
type Function interface {
	// Cost evaluates 𝒇(𝐱).
	Cost(x []float64) float64
	// Gradient stores ∇𝒇(𝐱) into g, where len(g) == len(x).
	Gradient(x, g []float64)
}

// Func adapts a pair of plain functions to Function.
type Func struct {
	F func(x []float64) float64
	G func(x, g []float64)
}

func (f Func) Cost(x []float64) float64 { return f.F(x) }

func (f Func) Gradient(x, g []float64) { f.G(x, g) }

// Counter wraps a Function and counts its evaluations.
// A Counter is not safe for concurrent use.
type Counter struct {
	Function
	NumCost int
	NumGrad int
}

// Count returns a Counter wrapping f.
func Count(f Function) *Counter {
	return &Counter{Function: f}
}

func (c *Counter) Cost(x []float64) float64 {
	c.NumCost++
	return c.Function.Cost(x)
}

func (c *Counter) Gradient(x, g []float64) {
	c.NumGrad++
	c.Function.Gradient(x, g)
}

// Numeric builds a Function whose gradient is approximated by finite differences of cost.
// The result is not safe for concurrent use since it reuses its differencing workspace.
func Numeric(cost func(x []float64) float64, method numdiff.Method) Function {
	return &numeric{cost: cost, spec: numdiff.GradSpec{Object: cost, Method: method}}
}

type numeric struct {
	cost func(x []float64) float64
	spec numdiff.GradSpec
}

func (n *numeric) Cost(x []float64) float64 { return n.cost(x) }

func (n *numeric) Gradient(x, g []float64) {
	n.spec.N = len(x)
	if err := n.spec.Grad(x, g); err != nil {
		panic(err)
	}
}
