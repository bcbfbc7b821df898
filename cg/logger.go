// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cg

import (
	"fmt"
	"io"
	"math"

	"github.com/curioloop/conjugate/linesearch"
)

// LogLevel controls the frequency and type of logger output
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only the exit summary
	LogLast LogLevel = 0
	// LogEval print also f and ‖r‖ every `level` iterations for any (0 < level < 99)
	LogEval LogLevel = 1
	// LogTrace print details of every iteration including line search statistics
	LogTrace LogLevel = 99
	// LogVerbose print also x and d of every iteration (level > 99)
	LogVerbose LogLevel = 100
)

// Logger handles logging output for the optimizer.
// Note the writers must be thread-safe when runs share a logger.
type Logger struct {
	Level LogLevel
	Msg   io.Writer // Writer to output log messages.
	Out   io.Writer // Writer for output data.
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

func (l *Logger) out(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Out, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Out, format)
	}
}

func (l *Logger) vector(name string, v []float64) {
	l.log("\n %s =", name)
	for i, x := range v {
		l.log(" %.2e", x)
		if (i+1)%6 == 0 {
			l.log("\n     ")
		}
	}
	l.log("\n")
}

func (r *run) printInit() {
	log := &r.opt.logger
	if !log.enable(LogLast) {
		return
	}
	log.log("RUNNING THE CG CODE\n")
	log.log("           * * *\n")
	log.log("N = %d    METHOD = %s\n", len(r.x), methodName(r.opt.method))
	if log.enable(LogEval) {
		log.out("\n   it   nf   ng  reset      step        |r|          f\n")
		if log.enable(LogVerbose) {
			log.vector("X0", r.x)
		}
	}
}

func (r *run) printIter() {
	log := &r.opt.logger
	if !log.enable(LogEval) {
		return
	}

	var f float64
	if log.enable(LogTrace) || r.iter%int(log.Level) == 0 {
		f = r.f.Function.Cost(r.x)
	} else {
		return
	}

	if log.enable(LogTrace) {
		log.log("\n\nITERATION %5d\n", r.iter)
		if rep, ok := r.search.(linesearch.Reporter); ok {
			s := rep.Last()
			log.log("LINE SEARCH %d evals %d iterations %d bracketing; step = %12.5e\n",
				s.Evals, s.Iterations, s.Bracketing, r.alpha)
		}
		if r.restarted {
			log.log("Restarting along the residual.\n")
		}
		if log.enable(LogVerbose) {
			log.vector("X", r.x)
			log.vector("D", r.d)
		}
	}

	log.log("At iterate %5d    f= %12.5e    |r|= %12.5e\n", r.iter, f, math.Sqrt(r.delta))
	log.out("%5d %4d %4d %6d %10.3e %10.3e %10.3e\n",
		r.iter, r.f.NumCost, r.f.NumGrad, r.resets, r.alpha, math.Sqrt(r.delta), f)
}

func (r *run) printExit(status Status, f float64) {
	log := &r.opt.logger
	if !log.enable(LogLast) {
		return
	}

	log.log("\n           * * *\n")
	log.log("Tit   = total number of iterations\n")
	log.log("Tnf   = total number of function evaluations\n")
	log.log("Tng   = total number of gradient evaluations\n")
	log.log("Rst   = number of restarts\n")
	log.log("Res   = norm of the final residual\n")
	log.log("F     = final function value\n")
	log.log("\n           * * *\n")
	log.log("\n   N      Tit      Tnf      Tng    Rst      Res         F\n")
	log.log("%5d %6d %8d %8d %6d %6.2e %9.5e\n",
		len(r.x), r.iter, r.f.NumCost, r.f.NumGrad, r.resets, math.Sqrt(r.delta), f)

	if log.enable(LogVerbose) {
		log.vector("X", r.x)
	}
	log.log("\n%s\n", status)
	if status&iterStop > 0 {
		log.log("\n Warning:  stopped before the residual test was met.\n")
	}
}
