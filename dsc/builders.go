// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsc

import (
	"github.com/cpmech/gosl/chk"

	"github.com/mfkiwl/mphys/cpl"
	"github.com/mfkiwl/mphys/inp"
)

// AeroBuilder wraps one Panel module into scenario units. The module is
// shared across scenarios; each unit returned is scenario-local.
type AeroBuilder struct {
	Sim *inp.Simulation // simulation data
	Dat *inp.DiscData   // discipline data
	mod *Panel          // analysis core; nil before Initialize
}

// Initialize constructs the panel module
func (o *AeroBuilder) Initialize() (err error) {
	o.mod = &Panel{Dat: o.Dat}
	return o.mod.Init(o.Sim.DirIn)
}

// NumNodes returns the number of coupling nodes
func (o *AeroBuilder) NumNodes() int {
	if o.mod == nil {
		chk.Panic("aero builder %q must be initialised first", o.Dat.Name)
	}
	return o.mod.NumNodes()
}

// Ndof returns the number of degrees of freedom per node
func (o *AeroBuilder) Ndof() int {
	if o.mod == nil {
		chk.Panic("aero builder %q must be initialised first", o.Dat.Name)
	}
	return o.mod.Ndof()
}

// MeshUnit returns the unit producing the reference aerodynamic mesh
func (o *AeroBuilder) MeshUnit(scenario string) (cpl.Unit, error) {
	if o.mod == nil {
		return nil, chk.Err("aero builder %q must be initialised before scenario %q", o.Dat.Name, scenario)
	}
	return &panelMesh{mod: o.mod}, nil
}

// CouplingUnit returns the per-iteration load update unit
func (o *AeroBuilder) CouplingUnit(scenario string) (cpl.Unit, error) {
	if o.mod == nil {
		return nil, chk.Err("aero builder %q must be initialised before scenario %q", o.Dat.Name, scenario)
	}
	return &panelCoupling{mod: o.mod}, nil
}

// PostUnit returns the force coefficients unit
func (o *AeroBuilder) PostUnit(scenario string) (cpl.Unit, error) {
	if o.mod == nil {
		return nil, chk.Err("aero builder %q must be initialised before scenario %q", o.Dat.Name, scenario)
	}
	return &panelPost{mod: o.mod}, nil
}

// Module returns the wrapped analysis core
func (o *AeroBuilder) Module() Module {
	if o.mod == nil {
		chk.Panic("aero builder %q must be initialised first", o.Dat.Name)
	}
	return o.mod
}

// StructBuilder wraps one Spring module into scenario units
type StructBuilder struct {
	Sim *inp.Simulation // simulation data
	Dat *inp.DiscData   // discipline data
	mod *Spring         // analysis core; nil before Initialize
}

// Initialize constructs the spring module
func (o *StructBuilder) Initialize() (err error) {
	o.mod = &Spring{Dat: o.Dat}
	return o.mod.Init(o.Sim.DirIn)
}

// NumNodes returns the number of coupling nodes
func (o *StructBuilder) NumNodes() int {
	if o.mod == nil {
		chk.Panic("struct builder %q must be initialised first", o.Dat.Name)
	}
	return o.mod.NumNodes()
}

// Ndof returns the number of degrees of freedom per node
func (o *StructBuilder) Ndof() int {
	if o.mod == nil {
		chk.Panic("struct builder %q must be initialised first", o.Dat.Name)
	}
	return o.mod.Ndof()
}

// MeshUnit returns the unit producing the reference structural mesh
func (o *StructBuilder) MeshUnit(scenario string) (cpl.Unit, error) {
	if o.mod == nil {
		return nil, chk.Err("struct builder %q must be initialised before scenario %q", o.Dat.Name, scenario)
	}
	return &springMesh{mod: o.mod}, nil
}

// CouplingUnit returns the per-iteration displacement update unit
func (o *StructBuilder) CouplingUnit(scenario string) (cpl.Unit, error) {
	if o.mod == nil {
		return nil, chk.Err("struct builder %q must be initialised before scenario %q", o.Dat.Name, scenario)
	}
	return &springCoupling{mod: o.mod}, nil
}

// PostUnit returns the mass and failure aggregation unit
func (o *StructBuilder) PostUnit(scenario string) (cpl.Unit, error) {
	if o.mod == nil {
		return nil, chk.Err("struct builder %q must be initialised before scenario %q", o.Dat.Name, scenario)
	}
	return &springPost{mod: o.mod}, nil
}

// Module returns the wrapped analysis core
func (o *StructBuilder) Module() Module {
	if o.mod == nil {
		chk.Panic("struct builder %q must be initialised first", o.Dat.Name)
	}
	return o.mod
}

// add builders to database
func init() {
	cpl.SetBuilderAllocator("panel", func(sim *inp.Simulation, disc *inp.DiscData) cpl.Builder {
		return &AeroBuilder{Sim: sim, Dat: disc}
	})
	cpl.SetBuilderAllocator("spring", func(sim *inp.Simulation, disc *inp.DiscData) cpl.Builder {
		return &StructBuilder{Sim: sim, Dat: disc}
	})
}
