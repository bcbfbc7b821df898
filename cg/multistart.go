// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cg

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// MinimizeAll runs every problem with o using at most parallel goroutines (≤ 0 means unlimited).
// Results are returned in the order of problems.
//
// Cancelling ctx skips the runs not yet started and returns ctx.Err() with the
// partial results, where skipped runs are nil. A started run is never interrupted.
// The objectives must be safe for concurrent use when they are shared between problems.
func MinimizeAll(ctx context.Context, o *Optimizer, problems []Problem, parallel int) ([]*Result, error) {

	results := make([]*Result, len(problems))

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for i, p := range problems {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.Minimize(p)
			return nil
		})
	}

	err := g.Wait()
	if err == nil && !allDone(results) {
		err = ctx.Err()
	}
	return results, err
}

func allDone(results []*Result) bool {
	for _, r := range results {
		if r == nil {
			return false
		}
	}
	return true
}

// Best returns the result with the lowest finite cost, or nil when there is none.
func Best(results []*Result) *Result {
	var best *Result
	for _, r := range results {
		if r == nil || math.IsNaN(r.F) || math.IsInf(r.F, 0) {
			continue
		}
		if best == nil || r.F < best.F {
			best = r
		}
	}
	return best
}
