// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

import (
	"github.com/cpmech/gosl/chk"

	"github.com/mfkiwl/mphys/xfer"
)

// Indep produces scalar condition variables (angle of attack, dynamic
// pressure) with values owned by the unit. The values may be updated
// between solves; e.g. when the optimizer moves a design variable.
type Indep struct {
	name  string
	specs []VarSpec
	vals  []float64
	vars  []*Variable
}

// NewIndep returns a new independent-variables unit
func NewIndep(name string, specs []VarSpec, vals []float64) *Indep {
	if len(specs) != len(vals) {
		chk.Panic("independent unit %q: %d specs given for %d values", name, len(specs), len(vals))
	}
	for _, spec := range specs {
		if spec.Length != 1 {
			chk.Panic("independent unit %q: variable %q must be scalar", name, spec.Name)
		}
	}
	return &Indep{name: name, specs: specs, vals: vals}
}

// Name returns the unit name
func (o *Indep) Name() string { return o.name }

// Inputs returns the consumed variables
func (o *Indep) Inputs() []VarSpec { return nil }

// Outputs returns the produced variables
func (o *Indep) Outputs() []VarSpec { return o.specs }

// Bind resolves variable pointers
func (o *Indep) Bind(sol *Solution) (err error) {
	o.vars = make([]*Variable, len(o.specs))
	for i, spec := range o.specs {
		o.vars[i] = sol.Get(spec.Name)
		if o.vars[i] == nil {
			return chk.Err("unit %q: variable %q is not in scenario %q", o.name, spec.Name, sol.Scenario)
		}
	}
	return
}

// Eval copies the current values into the coupling variables
func (o *Indep) Eval() (err error) {
	for i, v := range o.vars {
		v.Val[0] = o.vals[i]
	}
	return
}

// SetVal updates one value; Eval must run again before the next solve
func (o *Indep) SetVal(name string, val float64) (err error) {
	for i, spec := range o.specs {
		if spec.Name == name {
			o.vals[i] = val
			return
		}
	}
	return chk.Err("unit %q does not produce variable %q", o.name, name)
}

// ApplyLinear is a no-op: independent variables have no upstream inputs
func (o *Indep) ApplyLinear(mode string, sds *Seeds) (err error) {
	return
}

// DispXfer wraps the displacement transfer of a transfer scheme as a
// graph unit: x_aero = xa0 + W(xa0,xs0)·u_struct
type DispXfer struct {
	scheme           xfer.Scheme
	na, ns           int
	xa0, xs0, us, xa *Variable
}

// NewDispXfer returns a new displacement transfer unit
func NewDispXfer(scheme xfer.Scheme, na, ns int) *DispXfer {
	return &DispXfer{scheme: scheme, na: na, ns: ns}
}

// Name returns the unit name
func (o *DispXfer) Name() string { return UnitDispXfer }

// Inputs returns the consumed variables
func (o *DispXfer) Inputs() []VarSpec {
	return []VarSpec{
		{Name: KeyXAero0, Length: 3 * o.na, Width: 3, Units: "m"},
		{Name: KeyXStruct, Length: 3 * o.ns, Width: 3, Units: "m"},
		{Name: KeyUStruct, Length: 3 * o.ns, Width: 3, Units: "m"},
	}
}

// Outputs returns the produced variables
func (o *DispXfer) Outputs() []VarSpec {
	return []VarSpec{{Name: KeyXAero, Length: 3 * o.na, Width: 3, Units: "m"}}
}

// Bind resolves variable pointers
func (o *DispXfer) Bind(sol *Solution) (err error) {
	o.xa0 = sol.Get(KeyXAero0)
	o.xs0 = sol.Get(KeyXStruct)
	o.us = sol.Get(KeyUStruct)
	o.xa = sol.Get(KeyXAero)
	if o.xa0 == nil || o.xs0 == nil || o.us == nil || o.xa == nil {
		return chk.Err("unit %q: missing coupling variables in scenario %q", o.Name(), sol.Scenario)
	}
	return
}

// Eval transfers displacements. The transfer map identity is verified
// first so a stale map (meshes moved since Build) is never applied.
func (o *DispXfer) Eval() (err error) {
	err = o.scheme.Verify(o.xa0.Val, o.xs0.Val)
	if err != nil {
		return
	}
	return o.scheme.TransferDisps(o.us.Val, o.xa.Val)
}

// ApplyLinear applies the linearised displacement transfer
func (o *DispXfer) ApplyLinear(mode string, sds *Seeds) (err error) {
	switch mode {
	case Fwd:
		s := &xfer.Seeds{
			Us:  sds.Get(KeyUStruct),
			Xa0: sds.Get(KeyXAero0),
			Xs0: sds.Get(KeyXStruct),
			Xa:  sds.Of(o.xa),
		}
		return o.scheme.ApplyLinear(mode, s)
	case Rev:
		s := &xfer.Seeds{
			Us:  sds.Of(o.us),
			Xa0: sds.Of(o.xa0),
			Xs0: sds.Of(o.xs0),
			Xa:  sds.Get(KeyXAero),
		}
		return o.scheme.ApplyLinear(mode, s)
	}
	return chk.Err("unit %q: unknown linear mode %q", o.Name(), mode)
}

// LoadXfer wraps the load transfer of a transfer scheme as a graph unit:
// f_struct = Wᵀ(xa0,xs0)·f_aero. It consumes u_struct as well so the
// wiring matches the general transfer contract, although this scheme's
// load map does not depend on the displacements.
type LoadXfer struct {
	scheme               xfer.Scheme
	na, ns               int
	xa0, xs0, us, fa, fs *Variable
}

// NewLoadXfer returns a new load transfer unit
func NewLoadXfer(scheme xfer.Scheme, na, ns int) *LoadXfer {
	return &LoadXfer{scheme: scheme, na: na, ns: ns}
}

// Name returns the unit name
func (o *LoadXfer) Name() string { return UnitLoadXfer }

// Inputs returns the consumed variables
func (o *LoadXfer) Inputs() []VarSpec {
	return []VarSpec{
		{Name: KeyXAero0, Length: 3 * o.na, Width: 3, Units: "m"},
		{Name: KeyXStruct, Length: 3 * o.ns, Width: 3, Units: "m"},
		{Name: KeyUStruct, Length: 3 * o.ns, Width: 3, Units: "m"},
		{Name: KeyFAero, Length: 3 * o.na, Width: 3, Units: "N"},
	}
}

// Outputs returns the produced variables
func (o *LoadXfer) Outputs() []VarSpec {
	return []VarSpec{{Name: KeyFStruct, Length: 3 * o.ns, Width: 3, Units: "N"}}
}

// Bind resolves variable pointers
func (o *LoadXfer) Bind(sol *Solution) (err error) {
	o.xa0 = sol.Get(KeyXAero0)
	o.xs0 = sol.Get(KeyXStruct)
	o.us = sol.Get(KeyUStruct)
	o.fa = sol.Get(KeyFAero)
	o.fs = sol.Get(KeyFStruct)
	if o.xa0 == nil || o.xs0 == nil || o.us == nil || o.fa == nil || o.fs == nil {
		return chk.Err("unit %q: missing coupling variables in scenario %q", o.Name(), sol.Scenario)
	}
	return
}

// Eval transfers loads, verifying the transfer map identity first
func (o *LoadXfer) Eval() (err error) {
	err = o.scheme.Verify(o.xa0.Val, o.xs0.Val)
	if err != nil {
		return
	}
	return o.scheme.TransferLoads(o.fa.Val, o.fs.Val)
}

// ApplyLinear applies the linearised load transfer
func (o *LoadXfer) ApplyLinear(mode string, sds *Seeds) (err error) {
	switch mode {
	case Fwd:
		s := &xfer.Seeds{
			Fa:  sds.Get(KeyFAero),
			Xa0: sds.Get(KeyXAero0),
			Xs0: sds.Get(KeyXStruct),
			Fs:  sds.Of(o.fs),
		}
		return o.scheme.ApplyLinear(mode, s)
	case Rev:
		s := &xfer.Seeds{
			Fa:  sds.Of(o.fa),
			Xa0: sds.Of(o.xa0),
			Xs0: sds.Of(o.xs0),
			Fs:  sds.Get(KeyFStruct),
		}
		return o.scheme.ApplyLinear(mode, s)
	}
	return chk.Err("unit %q: unknown linear mode %q", o.Name(), mode)
}
