// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cg

// Status reports why a run stopped.
type Status int

const (
	iterLoop Status = 0

	// ConvResidual the relative residual satisfied ‖rₖ‖² ≤ ε²‖r₀‖².
	ConvResidual Status = 1 << iota
	// ConvStationary the start point is already stationary, ‖r₀‖ = 0.
	ConvStationary
	// OverIterLimit the number of iterations exceeds limit.
	OverIterLimit

	iterConv = ConvResidual | ConvStationary
	iterStop = OverIterLimit
)

func (s Status) String() string {
	switch s {
	case iterLoop:
		return "RUNNING"
	case ConvResidual:
		return "CONVERGENCE: REL_RESIDUAL_<=_TOL"
	case ConvStationary:
		return "CONVERGENCE: INITIAL_RESIDUAL_IS_ZERO"
	case OverIterLimit:
		return "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT"
	default:
		return "UNKNOWN TASK"
	}
}
