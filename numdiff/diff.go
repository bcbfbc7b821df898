package numdiff

import (
	"errors"
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference.
	Central
)

func (m Method) String() string {
	switch m {
	case Forward:
		return "forward"
	case Central:
		return "central"
	default:
		return "unknown"
	}
}

// GradSpec estimates the gradient of a scalar function by finite differences.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
//
// # License
//
//   - https://github.com/scipy/scipy/blob/main/LICENSE.txt
type GradSpec struct {
	N int
	// Function of which to estimate the gradient.
	// The argument x passed to this function is an n-vector and must not be retained.
	Object func(x []float64) float64
	// Finite difference method to use.
	Method Method
	// Relative step size used to compute absolute step size.
	// The default absolute step size is computed as h = RelStep * sign(x0) * max(1, abs(x0)) with RelStep being selected automatically.
	// Otherwise, absolute step size is computed as h = RelStep * sign(x0) * abs(x0) when RelStep is provided.
	RelStep float64
	// Absolute step size to use.
	// The RelStep is used when AbsStep is not provide.
	// For Central method the sign of AbsStep is ignored.
	AbsStep float64
	gradCtx
}

type gradCtx struct {
	x       []float64
	absStep []float64
}

// Check the parameters and initialize gradCtx.
func (gs *GradSpec) Check(x0, grad []float64) (err error) {

	switch {
	case gs.N <= 0:
		err = errors.New("negative dimensions")
	case gs.Method != Forward && gs.Method != Central:
		err = errors.New("unknown method")
	case gs.Object == nil:
		err = errors.New("object function is required")
	case gs.N != len(x0):
		err = errors.New("invalid x0 dimensions")
	case gs.N != len(grad):
		err = errors.New("invalid gradient dimensions")
	case math.IsNaN(gs.RelStep) || math.IsInf(gs.RelStep, 0):
		err = errors.New("relative step must be finite")
	case math.IsNaN(gs.AbsStep) || math.IsInf(gs.AbsStep, 0):
		err = errors.New("absolute step must be finite")
	}

	if len(gs.x) != gs.N {
		gs.x = make([]float64, gs.N)
	}
	if len(gs.absStep) != gs.N {
		gs.absStep = make([]float64, gs.N)
	}
	return
}

// Grad calculate approximation of the gradient at x0 by finite differences.
// The x0 is never modified.
func (gs *GradSpec) Grad(x0, grad []float64) error {

	if err := gs.Check(x0, grad); err != nil {
		return err
	}

	copy(gs.x, x0)
	gs.absoluteStep(x0)

	if gs.Method == Central {
		gs.approxCentral(grad)
	} else {
		gs.approxForward(grad)
	}
	return nil
}

func (gs *GradSpec) absoluteStep(x0 []float64) {
	h := gs.absStep
	if len(h) != len(x0) {
		panic("bound check error")
	}

	var eps float64
	switch gs.Method {
	case Forward:
		eps = sqrtEps
	case Central:
		eps = cubeEps
	default:
		panic("unknown method")
	}

	abs, rel := gs.AbsStep, gs.RelStep
	for i, v := range x0 {
		var s float64
		switch {
		case abs != 0:
			s = abs
		case rel != 0:
			s = math.Copysign(rel, v) * math.Abs(v)
		}
		// fallback when the step vanishes in floating point arithmetic
		if (v+s)-v == 0 {
			s = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
		if gs.Method == Central {
			s = math.Abs(s)
		}
		h[i] = s
	}
}

func (gs *GradSpec) approxForward(g []float64) {

	x, h := gs.x, gs.absStep
	if len(h) != len(x) || len(g) != len(x) {
		panic("bound check error")
	}

	fun := gs.Object
	f0 := fun(x)
	for i, s := range h {
		t := x[i]
		x[i] = t + s
		// the actual step may differ from s after rounding
		g[i] = (fun(x) - f0) / (x[i] - t)
		x[i] = t
	}
}

func (gs *GradSpec) approxCentral(g []float64) {

	x, h := gs.x, gs.absStep
	if len(h) != len(x) || len(g) != len(x) {
		panic("bound check error")
	}

	fun := gs.Object
	for i, s := range h {
		t := x[i]
		x[i] = t - s
		f1 := fun(x)
		x[i] = t + s
		f2 := fun(x)
		g[i] = (f2 - f1) / (2 * s)
		x[i] = t
	}
}
