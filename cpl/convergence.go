// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

import (
	"math"

	"github.com/cpmech/gosl/io"
)

// Status is the outcome of a coupled solve
type Status int

const (
	// Converged means the residual criterion was met
	Converged Status = iota

	// MaxIterExceeded means the iteration limit was reached first
	MaxIterExceeded

	// Diverged means the residual grew for too many consecutive iterations
	Diverged

	// Failure means a unit evaluation failed mid-iteration
	Failure
)

// String returns a human readable status
func (o Status) String() string {
	switch o {
	case Converged:
		return "converged"
	case MaxIterExceeded:
		return "max-iterations-exceeded"
	case Diverged:
		return "diverged"
	case Failure:
		return "failure"
	}
	return io.Sf("unknown-status(%d)", int(o))
}

// ConvState tracks the residual history of one fixed-point iteration
type ConvState struct {
	It     int       // iteration counter
	Resid  float64   // current residual norm
	Resid0 float64   // first residual norm
	Hist   []float64 // residual norm of every iteration so far
	ndvg   int       // consecutive residual increases
	rprev  float64   // previous residual norm
}

// Update records one residual and reports whether the iteration meets the
// convergence criterion, counting consecutive increases for divergence
// control
func (o *ConvState) Update(resid, atol, rtol float64) (converged bool) {
	if o.It == 0 {
		o.Resid0 = resid
	} else if resid > o.rprev {
		o.ndvg++
	} else {
		o.ndvg = 0
	}
	o.rprev = resid
	o.Resid = resid
	o.Hist = append(o.Hist, resid)
	o.It++
	return resid < atol || resid < rtol*o.Resid0
}

// Diverging reports whether the residual grew ndvgMax times in a row
func (o *ConvState) Diverging(ndvgMax int) bool {
	return ndvgMax > 0 && o.ndvg >= ndvgMax
}

// Trace formats the residual history for failure messages
func (o *ConvState) Trace() string {
	l := ""
	for i, r := range o.Hist {
		if i > 0 {
			l += " "
		}
		l += io.Sf("%.3e", r)
	}
	return l
}

// Aitken performs the Kuettler-Wall Delta-squared update of the relaxation
// factor from two consecutive residual vectors
type Aitken struct {
	Omega float64   // current relaxation factor
	rold  []float64 // residual of the previous update
	nupd  int       // updates since Reset
}

// Reset restarts the relaxation with factor omegaIni for residuals of size n
func (o *Aitken) Reset(omegaIni float64, n int) {
	o.Omega = omegaIni
	if len(o.rold) != n {
		o.rold = make([]float64, n)
	}
	o.nupd = 0
}

// Update recomputes the relaxation factor from the new residual and clamps
// it to [omin, omax]. The first call after Reset only records the residual.
func (o *Aitken) Update(r []float64, omin, omax float64) float64 {
	if o.nupd > 0 {
		var num, den float64
		for i, ri := range r {
			dr := ri - o.rold[i]
			num += o.rold[i] * dr
			den += dr * dr
		}
		if den > 0 {
			o.Omega = -o.Omega * num / den
		}
		o.Omega = math.Max(omin, math.Min(omax, o.Omega))
	}
	copy(o.rold, r)
	o.nupd++
	return o.Omega
}
