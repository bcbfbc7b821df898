// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linesearch

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// strongWolfe reports whether α satisfies the strong Wolfe conditions along d.
func strongWolfe(tol MoreThuenteTol, l *line, alpha float64) bool {
	phi0, der0 := l.phi(0), l.der(0)
	return l.phi(alpha) <= phi0+tol.Decrease*alpha*der0 &&
		math.Abs(l.der(alpha)) <= tol.Curvature*math.Abs(der0)
}

func TestMoreThuenteQuadratic(t *testing.T) {
	// φ(α) = (α - 3)²
	f := quadratic([]float64{2}, []float64{3})

	ls, err := DefaultMoreThuenteTol().New()
	require.NoError(t, err)

	alpha := ls.Search(f, []float64{0}, []float64{1}, 0)
	assert.InDelta(t, 3, alpha, 1e-12)
	assert.Equal(t, 2, ls.Last().Iterations)
	assert.Equal(t, 6, ls.Last().Evals)
}

func TestMoreThuenteRosenbrock(t *testing.T) {
	x := []float64{-1.5, 0.6}
	d := steepest(rosenbrock, x)

	ls, err := DefaultMoreThuenteTol().New()
	require.NoError(t, err)

	alpha := ls.Search(rosenbrock, x, d, 0)
	assert.Greater(t, alpha, 0.0)
	assert.True(t, strongWolfe(ls.Tol(), newLine(rosenbrock, x, d), alpha), "α=%v", alpha)
	assert.Equal(t, []float64{-1.5, 0.6}, x)
}

func TestMoreThuenteWolfe(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 9))
	ls, err := DefaultMoreThuenteTol().New()
	require.NoError(t, err)

	prev := 0.0
	for k := 0; k < 50; k++ {
		n := 1 + rng.IntN(6)
		w, m, x := make([]float64, n), make([]float64, n), make([]float64, n)
		for i := range w {
			w[i] = 0.1 + 10*rng.Float64()
			m[i] = 10*rng.Float64() - 5
			x[i] = 10*rng.Float64() - 5
		}
		f := quadratic(w, m)
		d := steepest(f, x)

		alpha := ls.Search(f, x, d, prev)
		prev = alpha
		assert.True(t, strongWolfe(ls.Tol(), newLine(f, x, d), alpha), "case %d: α=%v", k, alpha)
	}
}

func TestMoreThuenteDomainEdge(t *testing.T) {
	tol := DefaultMoreThuenteTol()
	tol.Alpha0 = 10
	ls, err := tol.New()
	require.NoError(t, err)

	// trials at 10, 5 and 2.5 are undefined, 1.25 brackets the minimizer at 1
	alpha := ls.Search(truncated, []float64{0}, []float64{1}, 0)
	assert.InDelta(t, 1, alpha, 1e-12)
	assert.Equal(t, 5, ls.Last().Iterations)

	// exhausting the budget inside the undefined region keeps the start
	tol.MaxIterations = 2
	ls, err = tol.New()
	require.NoError(t, err)
	assert.Zero(t, ls.Search(truncated, []float64{0}, []float64{1}, 0))
}

func TestMoreThuenteAscent(t *testing.T) {
	f := quadratic([]float64{1, 1}, []float64{0, 0})
	x := []float64{1, 1}
	d := steepest(f, x)
	floats.Scale(-1, d)

	ls, err := DefaultMoreThuenteTol().New()
	require.NoError(t, err)
	assert.Zero(t, ls.Search(f, x, d, 0))
}

func TestMoreThuenteMaxStep(t *testing.T) {
	// φ decreases without bound, the search stops at the upper limit
	f := quadratic([]float64{0}, []float64{0})
	f.F = func(x []float64) float64 { return -x[0] }
	f.G = func(x, g []float64) { g[0] = -1 }

	tol := DefaultMoreThuenteTol()
	tol.MaxStep = 100
	ls, err := tol.New()
	require.NoError(t, err)
	assert.Equal(t, 100.0, ls.Search(f, []float64{0}, []float64{1}, 0))
}

func TestCstepBrackets(t *testing.T) {
	// higher cost at p brackets a minimizer between x and p
	x := endpoint{0, 1, -2}
	y := x
	bracketed := false
	stp := cstep(&x, &y, endpoint{2, 3, 2}, &bracketed, 0, 10)
	assert.True(t, bracketed)
	assert.Greater(t, stp, 0.0)
	assert.Less(t, stp, 2.0)
	assert.Equal(t, endpoint{0, 1, -2}, x)
	assert.Equal(t, endpoint{2, 3, 2}, y)

	// lower cost with a still negative slope moves x forward
	x, y = endpoint{0, 1, -2}, endpoint{0, 1, -2}
	bracketed = false
	stp = cstep(&x, &y, endpoint{1, 0.5, -1}, &bracketed, 1.1, 5)
	assert.False(t, bracketed)
	assert.Equal(t, endpoint{1, 0.5, -1}, x)
	assert.GreaterOrEqual(t, stp, 1.1)
	assert.LessOrEqual(t, stp, 5.0)
}

func TestMoreThuenteValidate(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*MoreThuenteTol)
	}{
		{"decrease", func(t *MoreThuenteTol) { t.Decrease = 0 }},
		{"decrease", func(t *MoreThuenteTol) { t.Decrease = 1 }},
		{"curvature", func(t *MoreThuenteTol) { t.Curvature = math.NaN() }},
		{"step tolerance", func(t *MoreThuenteTol) { t.StepTol = -1 }},
		{"min step", func(t *MoreThuenteTol) { t.MinStep = -1 }},
		{"max step", func(t *MoreThuenteTol) { t.MaxStep = 0 }},
		{"max step", func(t *MoreThuenteTol) { t.MaxStep = math.Inf(1) }},
		{"α₀", func(t *MoreThuenteTol) { t.Alpha0 = 0 }},
		{"α₀", func(t *MoreThuenteTol) { t.MaxStep = 0.5 }},
		{"max iterations", func(t *MoreThuenteTol) { t.MaxIterations = 0 }},
	}
	require.NoError(t, DefaultMoreThuenteTol().Validate())
	for _, c := range cases {
		tol := DefaultMoreThuenteTol()
		c.mod(&tol)
		_, err := tol.New()
		var invalid *InvalidArgumentError
		require.True(t, errors.As(err, &invalid), c.name)
		assert.Equal(t, c.name, invalid.Name)
	}

	ls, err := DefaultMoreThuenteTol().New()
	require.NoError(t, err)
	fork := ls.Fork().(*MoreThuente)
	assert.Equal(t, ls.Tol(), fork.Tol())
	assert.NotSame(t, ls, fork)
}
