// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"

	"github.com/mfkiwl/mphys/inp"
)

// GaussSeidel solves the coupled problem by nonlinear block Gauss-Seidel
// iteration on the feedback variable, with optional Aitken relaxation and
// a startup ramp on the relaxation factor
type GaussSeidel struct {

	// essential
	Dat  *inp.SolverData // solver input data
	scn  *Scenario
	ramp inp.Func // startup ramp; may be nil

	// state
	fv         *Variable // feedback variable
	uold       []float64 // feedback value at start of iteration
	r          []float64 // residual over one sweep
	aitken     Aitken    // relaxation factor update
	Conv       ConvState // residual history of the last Run
	LastResid  float64   // residual norm of the last Run
	LastNiter  int       // iterations taken by the last Run
	LastStatus Status    // outcome of the last Run
}

// Init prepares the solver for one scenario
func (o *GaussSeidel) Init(scn *Scenario, sd *inp.SolverData, ramp inp.Func) (err error) {
	o.scn = scn
	o.Dat = sd
	o.ramp = ramp
	o.fv = scn.Sol.Get(scn.Feedback)
	if o.fv == nil {
		return chk.Err("gs: scenario %q has no feedback variable %q", scn.Name, scn.Feedback)
	}
	n := o.fv.Length
	o.uold = make([]float64, n)
	o.r = make([]float64, n)
	return
}

// Run iterates the coupling loop until the residual criterion is met. The
// residual is the change of the feedback variable over one sweep of the
// loop units; convergence is r < Atol or r < Rtol·r0.
func (o *GaussSeidel) Run() (status Status, err error) {
	sd := o.Dat
	o.Conv = ConvState{}
	o.aitken.Reset(sd.OmegaIni, o.fv.Length)
	status = MaxIterExceeded
	for it := 0; it < sd.NmaxIt; it++ {

		// one sweep of the loop
		la.Vector(o.uold).Apply(1, o.fv.Val)
		for _, u := range o.scn.LoopUnits {
			if err = u.Eval(); err != nil {
				o.LastStatus = Failure
				return Failure, err
			}
		}

		// residual
		for i := 0; i < o.fv.Length; i++ {
			o.r[i] = o.fv.Val[i] - o.uold[i]
		}
		resid := la.Vector(o.r).Norm()
		converged := o.Conv.Update(resid, sd.Atol, sd.Rtol)
		if sd.ShowR {
			io.Pf("%6d%23.15e\n", it, resid)
		}
		if converged {
			status = Converged
			break
		}
		if sd.DvgCtrl && o.Conv.Diverging(sd.NdvgMax) {
			status = Diverged
			break
		}

		// relaxation factor (Kuettler-Wall update)
		w := 1.0
		if sd.Aitken {
			w = o.aitken.Update(o.r, sd.OmegaMin, sd.OmegaMax)
		}

		// startup ramp keeps early updates small without moving the
		// fixed point
		if o.ramp != nil && sd.NitRamp > 0 {
			w *= math.Min(1, o.ramp.F(float64(it+1)/float64(sd.NitRamp), nil))
		}

		// relaxed update
		for i := 0; i < o.fv.Length; i++ {
			o.fv.Val[i] = o.uold[i] + w*o.r[i]
		}
	}
	o.LastResid = o.Conv.Resid
	o.LastNiter = o.Conv.It
	o.LastStatus = status
	if status == Diverged {
		return status, chk.Err("gs: scenario %q diverged after %d iterations: resid=%g\n  history: %s", o.scn.Name, o.Conv.It, o.Conv.Resid, o.Conv.Trace())
	}
	if status == MaxIterExceeded {
		return status, chk.Err("gs: scenario %q did not converge within %d iterations: resid=%g (r0=%g)\n  history: %s", o.scn.Name, sd.NmaxIt, o.Conv.Resid, o.Conv.Resid0, o.Conv.Trace())
	}
	return
}

// add "gs" to database of nonlinear coupling solvers
func init() {
	SetSolverAllocator("gs", func() Solver { return new(GaussSeidel) })
}
