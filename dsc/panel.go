// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsc

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/mfkiwl/mphys/cpl"
	"github.com/mfkiwl/mphys/inp"
)

// Panel is the aerodynamic surrogate: a panel load model where the
// nodal force follows the deformed coordinate with a cubic stiffening
// term
//  f_k = q∞ · α · (x_k + ε₃·x_k³)   (componentwise, α in radians)
// Lift and drag coefficients are sums of force components normalised by
// q∞ and the reference area.
type Panel struct {

	// input
	Dat *inp.DiscData // discipline data

	// flow condition
	Aoa  float64 // angle of attack [deg]
	Qinf float64 // dynamic pressure

	// derived
	na  int       // number of coupling nodes
	msh []float64 // reference coordinates

	// state of the last Solve
	xa []float64 // deformed coordinates
	fa []float64 // nodal loads
}

// Init loads or generates the reference mesh
func (o *Panel) Init(dirin string) (err error) {
	o.na = o.Dat.Nnodes
	if o.Dat.Mshfile != "" {
		o.msh, err = ReadMesh(dirin, o.Dat.Mshfile, o.na)
		if err != nil {
			return
		}
		if o.na == 0 {
			o.na = len(o.msh) / 3
		}
	} else {
		if o.na < 1 {
			return chk.Err("panel %q: nnodes must be given when no mesh file is used", o.Dat.Name)
		}
		o.msh = lineMesh(o.na, 0.05)
	}
	o.xa = make([]float64, 3*o.na)
	o.fa = make([]float64, 3*o.na)
	return
}

// NumNodes returns the number of coupling nodes
func (o *Panel) NumNodes() int { return o.na }

// Ndof returns the number of degrees of freedom per node
func (o *Panel) Ndof() int { return o.Dat.Ndof }

// Mesh returns the reference coordinates
func (o *Panel) Mesh() []float64 { return o.msh }

// Solve computes the nodal loads from the deformed coordinates at the
// current flow condition. The load model is explicit, thus the residual
// norm is zero.
func (o *Panel) Solve(in []float64) (out []float64, resnorm float64, err error) {
	if len(in) != 3*o.na {
		return nil, 0, chk.Err("panel %q: wrong input length: %d (need %d)", o.Dat.Name, len(in), 3*o.na)
	}
	copy(o.xa, in)
	alp := o.Aoa * math.Pi / 180.0
	e3 := o.Dat.Eps3
	for i, x := range o.xa {
		o.fa[i] = o.Qinf * alp * (x + e3*x*x*x)
	}
	return o.fa, 0, nil
}

// ApplyJacobian applies d(fa)/d(xa) about the last Solve
func (o *Panel) ApplyJacobian(mode string, din, dout []float64) error {
	alp := o.Aoa * math.Pi / 180.0
	e3 := o.Dat.Eps3
	switch mode {
	case cpl.Fwd:
		for i, x := range o.xa {
			dout[i] += o.Qinf * alp * (1 + 3*e3*x*x) * din[i]
		}
	case cpl.Rev:
		for i, x := range o.xa {
			din[i] += o.Qinf * alp * (1 + 3*e3*x*x) * dout[i]
		}
	default:
		return chk.Err("panel %q: unknown linear mode %q", o.Dat.Name, mode)
	}
	return nil
}

// Functions returns the force coefficients of the last solved loads
func (o *Panel) Functions() map[string]float64 {
	cl, cd := o.coeffs(o.fa, o.Qinf)
	return map[string]float64{FnCl: cl, FnCd: cd}
}

// ApplyFunctionsJac applies d(cl,cd)/d(fa) about the last Solve
func (o *Panel) ApplyFunctionsJac(mode string, din []float64, dfun map[string]float64) error {
	qs := o.Qinf * o.Dat.Sref
	switch mode {
	case cpl.Fwd:
		var dcl, dcd float64
		for i := 0; i < o.na; i++ {
			dcd += din[3*i] / qs
			dcl += din[3*i+2] / qs
		}
		dfun[FnCl] += dcl
		dfun[FnCd] += dcd
	case cpl.Rev:
		for i := 0; i < o.na; i++ {
			din[3*i] += dfun[FnCd] / qs
			din[3*i+2] += dfun[FnCl] / qs
		}
	default:
		return chk.Err("panel %q: unknown linear mode %q", o.Dat.Name, mode)
	}
	return nil
}

// coeffs returns the force coefficients of given loads
func (o *Panel) coeffs(fa []float64, q float64) (cl, cd float64) {
	var sfx, sfz float64
	for i := 0; i < o.na; i++ {
		sfx += fa[3*i]
		sfz += fa[3*i+2]
	}
	return sfz / (q * o.Dat.Sref), sfx / (q * o.Dat.Sref)
}

// panelMesh produces the reference aerodynamic coordinates
type panelMesh struct {
	mod *Panel
	v   *cpl.Variable
}

func (o *panelMesh) Name() string { return cpl.UnitMeshAero }
func (o *panelMesh) Inputs() []cpl.VarSpec { return nil }
func (o *panelMesh) Outputs() []cpl.VarSpec {
	return []cpl.VarSpec{{Name: cpl.KeyXAero0, Length: 3 * o.mod.na, Width: 3, Units: "m"}}
}
func (o *panelMesh) Bind(sol *cpl.Solution) error {
	o.v = sol.Get(cpl.KeyXAero0)
	return nil
}
func (o *panelMesh) Eval() error {
	copy(o.v.Val, o.mod.msh)
	return nil
}
func (o *panelMesh) ApplyLinear(mode string, sds *cpl.Seeds) error { return nil }

// panelCoupling computes the aerodynamic loads from the deformed
// coordinates and the condition variables, delegating the load model to
// the Panel module
type panelCoupling struct {
	mod *Panel

	// bound variables
	xa, aoa, qinf, fa *cpl.Variable

	// linearisation point
	xap  []float64
	aoap float64
	qp   float64
}

func (o *panelCoupling) Name() string { return cpl.UnitCplAero }
func (o *panelCoupling) Inputs() []cpl.VarSpec {
	return []cpl.VarSpec{
		{Name: cpl.KeyXAero, Length: 3 * o.mod.na, Width: 3, Units: "m"},
		{Name: cpl.KeyAoa, Length: 1, Width: 1, Units: "deg"},
		{Name: cpl.KeyQinf, Length: 1, Width: 1, Units: "Pa"},
	}
}
func (o *panelCoupling) Outputs() []cpl.VarSpec {
	return []cpl.VarSpec{{Name: cpl.KeyFAero, Length: 3 * o.mod.na, Width: 3, Units: "N"}}
}
func (o *panelCoupling) Bind(sol *cpl.Solution) error {
	o.xa = sol.Get(cpl.KeyXAero)
	o.aoa = sol.Get(cpl.KeyAoa)
	o.qinf = sol.Get(cpl.KeyQinf)
	o.fa = sol.Get(cpl.KeyFAero)
	if o.xa == nil || o.aoa == nil || o.qinf == nil || o.fa == nil {
		return chk.Err("unit %q: missing coupling variables in scenario %q", o.Name(), sol.Scenario)
	}
	o.xap = make([]float64, 3*o.mod.na)
	return nil
}

func (o *panelCoupling) Eval() error {
	o.mod.Aoa = o.aoa.Val[0]
	o.mod.Qinf = o.qinf.Val[0]
	out, _, err := o.mod.Solve(o.xa.Val)
	if err != nil {
		return err
	}
	copy(o.fa.Val, out)
	copy(o.xap, o.xa.Val)
	o.aoap = o.aoa.Val[0]
	o.qp = o.qinf.Val[0]
	return nil
}

func (o *panelCoupling) ApplyLinear(mode string, sds *cpl.Seeds) error {

	// re-anchor the module at this unit's linearisation point; the
	// module may have been solved for another scenario since Eval
	o.mod.Aoa = o.aoap
	o.mod.Qinf = o.qp
	if _, _, err := o.mod.Solve(o.xap); err != nil {
		return err
	}
	alp := o.aoap * math.Pi / 180.0
	q := o.qp
	e3 := o.mod.Dat.Eps3
	switch mode {
	case cpl.Fwd:
		dfa := sds.Of(o.fa)
		if dxa := sds.Get(cpl.KeyXAero); dxa != nil {
			if err := o.mod.ApplyJacobian(cpl.Fwd, dxa, dfa); err != nil {
				return err
			}
		}
		daoa := sds.Get(cpl.KeyAoa)
		dq := sds.Get(cpl.KeyQinf)
		if daoa != nil || dq != nil {
			for i, x := range o.xap {
				g := x + e3*x*x*x
				if daoa != nil {
					dfa[i] += q * (math.Pi / 180.0) * g * daoa[0]
				}
				if dq != nil {
					dfa[i] += alp * g * dq[0]
				}
			}
		}
	case cpl.Rev:
		fbar := sds.Get(cpl.KeyFAero)
		if fbar == nil {
			return nil
		}
		xbar := sds.Of(o.xa)
		abar := sds.Of(o.aoa)
		qbar := sds.Of(o.qinf)
		if err := o.mod.ApplyJacobian(cpl.Rev, xbar, fbar); err != nil {
			return err
		}
		for i, x := range o.xap {
			g := x + e3*x*x*x
			abar[0] += q * (math.Pi / 180.0) * g * fbar[i]
			qbar[0] += alp * g * fbar[i]
		}
	default:
		return chk.Err("unit %q: unknown linear mode %q", o.Name(), mode)
	}
	return nil
}

// panelPost computes the force coefficients of the converged loads
//  cl = Σ f_z / (q∞·Sref)     cd = Σ f_x / (q∞·Sref)
type panelPost struct {
	mod *Panel

	// bound variables
	fa, qinf, cl, cd *cpl.Variable

	// linearisation point
	fap []float64
	qp  float64
	clp float64
	cdp float64
}

func (o *panelPost) Name() string { return cpl.UnitPostAero }
func (o *panelPost) Inputs() []cpl.VarSpec {
	return []cpl.VarSpec{
		{Name: cpl.KeyFAero, Length: 3 * o.mod.na, Width: 3, Units: "N"},
		{Name: cpl.KeyQinf, Length: 1, Width: 1, Units: "Pa"},
	}
}
func (o *panelPost) Outputs() []cpl.VarSpec {
	return []cpl.VarSpec{
		{Name: FnCl, Length: 1, Width: 1},
		{Name: FnCd, Length: 1, Width: 1},
	}
}
func (o *panelPost) Bind(sol *cpl.Solution) error {
	o.fa = sol.Get(cpl.KeyFAero)
	o.qinf = sol.Get(cpl.KeyQinf)
	o.cl = sol.Get(FnCl)
	o.cd = sol.Get(FnCd)
	if o.fa == nil || o.qinf == nil || o.cl == nil || o.cd == nil {
		return chk.Err("unit %q: missing coupling variables in scenario %q", o.Name(), sol.Scenario)
	}
	o.fap = make([]float64, 3*o.mod.na)
	return nil
}

func (o *panelPost) Eval() error {
	q := o.qinf.Val[0]
	if q <= 0 {
		return chk.Err("unit %q: dynamic pressure must be positive; %g given", o.Name(), q)
	}
	o.cl.Val[0], o.cd.Val[0] = o.mod.coeffs(o.fa.Val, q)
	copy(o.fap, o.fa.Val)
	o.qp = q
	o.clp = o.cl.Val[0]
	o.cdp = o.cd.Val[0]
	return nil
}

func (o *panelPost) ApplyLinear(mode string, sds *cpl.Seeds) error {
	s := o.mod.Dat.Sref
	switch mode {
	case cpl.Fwd:
		dcl := sds.Of(o.cl)
		dcd := sds.Of(o.cd)
		if dfa := sds.Get(cpl.KeyFAero); dfa != nil {
			for i := 0; i < o.mod.na; i++ {
				dcd[0] += dfa[3*i] / (o.qp * s)
				dcl[0] += dfa[3*i+2] / (o.qp * s)
			}
		}
		if dq := sds.Get(cpl.KeyQinf); dq != nil {
			dcl[0] += -o.clp / o.qp * dq[0]
			dcd[0] += -o.cdp / o.qp * dq[0]
		}
	case cpl.Rev:
		clbar := sds.Get(FnCl)
		cdbar := sds.Get(FnCd)
		if clbar == nil && cdbar == nil {
			return nil
		}
		fbar := sds.Of(o.fa)
		qbar := sds.Of(o.qinf)
		for i := 0; i < o.mod.na; i++ {
			if cdbar != nil {
				fbar[3*i] += cdbar[0] / (o.qp * s)
			}
			if clbar != nil {
				fbar[3*i+2] += clbar[0] / (o.qp * s)
			}
		}
		if clbar != nil {
			qbar[0] += -o.clp / o.qp * clbar[0]
		}
		if cdbar != nil {
			qbar[0] += -o.cdp / o.qp * cdbar[0]
		}
	default:
		return chk.Err("unit %q: unknown linear mode %q", o.Name(), mode)
	}
	return nil
}
