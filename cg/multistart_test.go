// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cg

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/conjugate/hypothesis"
	"github.com/curioloop/conjugate/linesearch"
	"github.com/curioloop/conjugate/objective"
)

func TestMinimizeAll(t *testing.T) {
	f := hypothesis.FunctionValue{H: hypothesis.Rosenbrock{}, Theta: []float64{1, 100}}

	search, err := linesearch.DefaultHagerZhangTol().New()
	require.NoError(t, err)
	opt, err := New(DefaultHagerZhang(), search, Termination{MaxIterations: 10000, ErrorTolerance: 1e-8}, nil)
	require.NoError(t, err)

	var problems []Problem
	for _, x0 := range [][]float64{{-1, 1}, {-1.5, 0.6}, {0, 0}, {2, 2}, {-1.2, 1}} {
		problems = append(problems, Problem{Func: f, Init: x0})
	}

	results, err := MinimizeAll(context.Background(), opt, problems, 2)
	require.NoError(t, err)
	require.Len(t, results, len(problems))

	for i, res := range results {
		require.NotNil(t, res, "problem %d", i)
		// results keep the order of the problems
		seq := opt.Minimize(problems[i])
		assert.Equal(t, seq.X, res.X, "problem %d", i)
		assert.Equal(t, seq.NumIter, res.NumIter, "problem %d", i)
	}

	best := Best(results)
	require.NotNil(t, best)
	for _, res := range results {
		assert.LessOrEqual(t, best.F, res.F)
	}
	assert.InDeltaSlice(t, []float64{1, 1}, best.X, 1e-5)
}

func TestMinimizeAllCancel(t *testing.T) {
	var calls atomic.Int32
	f := objective.Func{
		F: func(x []float64) float64 { calls.Add(1); return x[0] * x[0] },
		G: func(x, g []float64) { calls.Add(1); g[0] = 2 * x[0] },
	}

	search, err := linesearch.DefaultSecantTol().New()
	require.NoError(t, err)
	opt, err := New(FletcherReeves{}, search, DefaultTermination(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	problems := []Problem{{Func: f, Init: []float64{1}}, {Func: f, Init: []float64{2}}}
	results, err := MinimizeAll(ctx, opt, problems, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []*Result{nil, nil}, results)
	assert.Zero(t, calls.Load())
}

func TestBest(t *testing.T) {
	a := &Result{F: 3}
	b := &Result{F: math.NaN()}
	c := &Result{F: 1}
	d := &Result{F: math.Inf(-1)}

	assert.Same(t, c, Best([]*Result{a, b, nil, c, d}))
	assert.Nil(t, Best([]*Result{nil, b}))
	assert.Nil(t, Best(nil))
}
