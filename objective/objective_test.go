// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package objective

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/conjugate/numdiff"
)

func sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func sphereGrad(x, g []float64) {
	for i, v := range x {
		g[i] = 2 * v
	}
}

func TestCounter(t *testing.T) {
	c := Count(Func{F: sphere, G: sphereGrad})

	x := []float64{1, 2, 3}
	g := make([]float64, 3)

	assert.Equal(t, 14.0, c.Cost(x))
	c.Gradient(x, g)
	c.Gradient(x, g)

	assert.Equal(t, []float64{2, 4, 6}, g)
	assert.Equal(t, 1, c.NumCost)
	assert.Equal(t, 2, c.NumGrad)
}

func TestNumeric(t *testing.T) {
	x := []float64{0.5, -1.5, 3}
	want := make([]float64, 3)
	sphereGrad(x, want)

	for _, method := range []numdiff.Method{numdiff.Forward, numdiff.Central} {
		f := Numeric(sphere, method)
		g := make([]float64, 3)
		f.Gradient(x, g)

		assert.InDeltaSlice(t, want, g, 1e-6, method.String())
		assert.Equal(t, sphere(x), f.Cost(x))
	}
}

func TestNumericDimensionMismatch(t *testing.T) {
	f := Numeric(sphere, numdiff.Central)
	require.Panics(t, func() {
		f.Gradient([]float64{1, 2}, make([]float64, 3))
	})
}
