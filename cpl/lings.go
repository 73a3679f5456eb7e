// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"

	"github.com/mfkiwl/mphys/inp"
)

// LinGaussSeidel solves the linearised coupled problem by block
// Gauss-Seidel sweeps over the linear operators of the loop units, about
// the point of the last nonlinear solve. The sweeps reuse the same Aitken
// relaxation as the nonlinear solver, applied to the feedback seed.
//
// In tangent mode the caller fixes seeds on given data (mesh coordinates,
// condition variables) and the sweeps converge the directional values of
// the coupled state; the post operators then yield function directional
// values. In reverse mode the caller fixes adjoint seeds on function
// outputs and the sweeps converge the adjoint of the feedback variable;
// the given-data seeds then hold the accumulated gradient contributions.
type LinGaussSeidel struct {

	// essential
	Dat *inp.SolverData // solver input data
	scn *Scenario

	// derived
	fv      *Variable      // feedback variable
	fdbkIdx int            // index of the feedback producer in LoopUnits
	lin     []Linearizable // loop unit linear operators, in loop order
	post    []Linearizable // post unit linear operators

	// state
	prev   []float64 // feedback seed at start of sweep
	diff   []float64 // feedback seed change
	aitken Aitken    // relaxation factor update
	Conv   ConvState // residual history of the last Solve
}

// Init prepares the linearised solver for one scenario. All loop and
// post units must expose their linear operators.
func (o *LinGaussSeidel) Init(scn *Scenario, sd *inp.SolverData) (err error) {
	o.scn = scn
	o.Dat = sd
	o.fv = scn.Sol.Get(scn.Feedback)
	if o.fv == nil {
		return chk.Err("lings: scenario %q has no feedback variable %q", scn.Name, scn.Feedback)
	}
	o.fdbkIdx = -1
	o.lin = make([]Linearizable, len(scn.LoopUnits))
	for i, u := range scn.LoopUnits {
		l, ok := u.(Linearizable)
		if !ok {
			return chk.Err("lings: unit %q in scenario %q has no linear operator", u.Name(), scn.Name)
		}
		o.lin[i] = l
		if u.Name() == o.fv.Producer {
			o.fdbkIdx = i
		}
	}
	if o.fdbkIdx < 0 {
		return chk.Err("lings: producer %q of feedback variable %q is not a loop unit of scenario %q", o.fv.Producer, scn.Feedback, scn.Name)
	}
	o.post = make([]Linearizable, len(scn.PostUnits))
	for i, u := range scn.PostUnits {
		l, ok := u.(Linearizable)
		if !ok {
			return chk.Err("lings: unit %q in scenario %q has no linear operator", u.Name(), scn.Name)
		}
		o.post[i] = l
	}
	n := o.fv.Length
	o.prev = make([]float64, n)
	o.diff = make([]float64, n)
	return
}

// Solve runs the sweeps until the feedback seed stops changing, then
// finalises the downstream (tangent) or upstream (reverse) seeds
func (o *LinGaussSeidel) Solve(mode string, sds *Seeds) (status Status, err error) {
	switch mode {
	case Fwd:
		return o.solveFwd(sds)
	case Rev:
		return o.solveRev(sds)
	}
	return Failure, chk.Err("lings: unknown linear mode %q", mode)
}

// solveFwd converges the tangent of the coupled state. Each sweep runs
// the loop operators in loop order; a unit's output seeds are cleared
// just before its operator accumulates them, so the feedback seed of the
// previous sweep is consumed first and replaced last.
func (o *LinGaussSeidel) solveFwd(sds *Seeds) (status Status, err error) {
	sd := o.Dat
	o.Conv = ConvState{}
	o.aitken.Reset(sd.OmegaIni, o.fv.Length)
	du := sds.Of(o.fv)
	status = MaxIterExceeded
	for it := 0; it < sd.LinNmaxIt; it++ {
		la.Vector(o.prev).Apply(1, du)
		for i, u := range o.scn.LoopUnits {
			for _, spec := range u.Outputs() {
				sds.ZeroVar(spec.Name)
			}
			if err = o.lin[i].ApplyLinear(Fwd, sds); err != nil {
				return Failure, err
			}
		}
		for i := 0; i < o.fv.Length; i++ {
			o.diff[i] = du[i] - o.prev[i]
		}
		resid := la.Vector(o.diff).Norm()
		converged := o.Conv.Update(resid, sd.LinAtol, sd.LinRtol)
		if sd.ShowR {
			io.Pf("lin %4d%23.15e\n", it, resid)
		}
		if converged {
			status = Converged
			break
		}

		// relaxed update of the feedback seed
		if sd.Aitken {
			w := o.aitken.Update(o.diff, sd.OmegaMin, sd.OmegaMax)
			for i := 0; i < o.fv.Length; i++ {
				du[i] = o.prev[i] + w*o.diff[i]
			}
		}
	}
	if status != Converged {
		return status, chk.Err("lings: tangent solve of scenario %q did not converge within %d sweeps: resid=%g\n  history: %s", o.scn.Name, sd.LinNmaxIt, o.Conv.Resid, o.Conv.Trace())
	}

	// tangent of the scalar functions
	for i, u := range o.scn.PostUnits {
		for _, spec := range u.Outputs() {
			sds.ZeroVar(spec.Name)
		}
		if err = o.post[i].ApplyLinear(Fwd, sds); err != nil {
			return Failure, err
		}
	}
	return
}

// solveRev converges the adjoint of the feedback variable. Each sweep
// feeds the previous adjoint through the feedback producer, clears all
// other working seeds, injects the fixed function seeds through the post
// operators and accumulates a fresh adjoint through the remaining loop
// operators in reverse loop order. One extra sweep after convergence
// leaves the given-data seeds consistent with the converged adjoint.
func (o *LinGaussSeidel) solveRev(sds *Seeds) (status Status, err error) {
	sd := o.Dat
	o.Conv = ConvState{}
	o.aitken.Reset(sd.OmegaIni, o.fv.Length)
	lam := make([]float64, o.fv.Length)
	status = MaxIterExceeded
	for it := 0; it < sd.LinNmaxIt; it++ {
		la.Vector(lam).Apply(1, sds.Of(o.fv))
		if err = o.revSweep(sds, lam); err != nil {
			return Failure, err
		}
		du := sds.Of(o.fv)
		for i := 0; i < o.fv.Length; i++ {
			o.diff[i] = du[i] - lam[i]
		}
		resid := la.Vector(o.diff).Norm()
		converged := o.Conv.Update(resid, sd.LinAtol, sd.LinRtol)
		if sd.ShowR {
			io.Pf("adj %4d%23.15e\n", it, resid)
		}
		if converged {
			status = Converged
			break
		}

		// relaxed update of the adjoint guess
		if sd.Aitken {
			w := o.aitken.Update(o.diff, sd.OmegaMin, sd.OmegaMax)
			for i := 0; i < o.fv.Length; i++ {
				du[i] = lam[i] + w*o.diff[i]
			}
		}
	}
	if status != Converged {
		return status, chk.Err("lings: adjoint solve of scenario %q did not converge within %d sweeps: resid=%g\n  history: %s", o.scn.Name, sd.LinNmaxIt, o.Conv.Resid, o.Conv.Trace())
	}

	// final sweep with the converged adjoint finalises the given-data
	// seeds
	la.Vector(lam).Apply(1, sds.Of(o.fv))
	err = o.revSweep(sds, lam)
	return
}

// revSweep performs one reverse sweep with adjoint guess lam
func (o *LinGaussSeidel) revSweep(sds *Seeds, lam []float64) (err error) {

	// clear working seeds, then feed the guess through the feedback
	// producer; its contributions to given-data seeds survive the sweep
	sds.ZeroAll()
	la.Vector(sds.Of(o.fv)).Apply(1, lam)
	if err = o.lin[o.fdbkIdx].ApplyLinear(Rev, sds); err != nil {
		return
	}
	sds.ZeroVar(o.fv.Name)

	// fixed function seeds enter through the post operators
	for _, l := range o.post {
		if err = l.ApplyLinear(Rev, sds); err != nil {
			return
		}
	}

	// remaining loop operators, in reverse loop order
	for i := len(o.lin) - 1; i >= 0; i-- {
		if i == o.fdbkIdx {
			continue
		}
		if err = o.lin[i].ApplyLinear(Rev, sds); err != nil {
			return
		}
	}
	return
}

// add "gs" to database of linearised coupling solvers
func init() {
	SetLinSolverAllocator("gs", func() LinSolver { return new(LinGaussSeidel) })
}
