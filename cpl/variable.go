// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package cpl implements the coupling core: coupling variables, the
// scenario graph and the nonlinear and linearised coupling solvers
package cpl

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// VarSpec describes one port of a unit: the coupling variable name it
// binds to and the numeric shape the unit expects there
type VarSpec struct {
	Name   string // coupling variable name; e.g. "u_struct"
	Length int    // total number of entries
	Width  int    // vector width per node; 1 for scalars
	Units  string // units tag; e.g. "m", "N", "deg"
}

// Variable is a named quantity crossing a discipline boundary. Exactly
// one producer unit may be bound to it within one scenario.
type Variable struct {
	Name      string    // name; e.g. "x_aero0", "f_struct"
	Producer  string    // name of producing unit
	Consumers []string  // names of consuming units
	Length    int       // total number of entries
	Width     int       // vector width per node
	Units     string    // units tag
	Val       []float64 // current value; owned by the scenario's Solution
}

// Solution holds the coupling variables of one scenario
type Solution struct {
	Scenario string               // scenario name
	Vars     map[string]*Variable // all coupling variables
	Names    []string             // insertion order, for deterministic listings
}

// NewSolution returns a new Solution
func NewSolution(scenario string) *Solution {
	return &Solution{Scenario: scenario, Vars: make(map[string]*Variable)}
}

// AddVar registers a coupling variable; re-registration with a matching
// shape is a no-op (several units may declare the same variable)
func (o *Solution) AddVar(spec VarSpec) (v *Variable, err error) {
	if v = o.Vars[spec.Name]; v != nil {
		if v.Length != spec.Length || v.Width != spec.Width {
			return nil, chk.Err("variable %q in scenario %q redeclared with mismatched shape: {len=%d,w=%d} != {len=%d,w=%d}",
				spec.Name, o.Scenario, spec.Length, spec.Width, v.Length, v.Width)
		}
		return v, nil
	}
	if spec.Length < 1 {
		return nil, chk.Err("variable %q in scenario %q must have positive length; %d given", spec.Name, o.Scenario, spec.Length)
	}
	v = &Variable{
		Name:   spec.Name,
		Length: spec.Length,
		Width:  spec.Width,
		Units:  spec.Units,
		Val:    make([]float64, spec.Length),
	}
	o.Vars[spec.Name] = v
	o.Names = append(o.Names, spec.Name)
	return v, nil
}

// CheckVar verifies that a spec is compatible with the registered
// variables without registering anything
func (o *Solution) CheckVar(spec VarSpec) (err error) {
	if v := o.Vars[spec.Name]; v != nil {
		if v.Length != spec.Length || v.Width != spec.Width {
			return chk.Err("variable %q in scenario %q redeclared with mismatched shape: {len=%d,w=%d} != {len=%d,w=%d}",
				spec.Name, o.Scenario, spec.Length, spec.Width, v.Length, v.Width)
		}
		return
	}
	if spec.Length < 1 {
		return chk.Err("variable %q in scenario %q must have positive length; %d given", spec.Name, o.Scenario, spec.Length)
	}
	return
}

// Get returns a coupling variable; nil if not found
func (o *Solution) Get(name string) *Variable {
	return o.Vars[name]
}

// Zero clears all variable values
func (o *Solution) Zero() {
	for _, name := range o.Names {
		v := o.Vars[name]
		for i := range v.Val {
			v.Val[i] = 0
		}
	}
}

// List prints the coupling variable table
func (o *Solution) List() {
	io.Pf("coupling variables of scenario %q:\n", o.Scenario)
	for _, name := range o.Names {
		v := o.Vars[name]
		io.Pf("  %-12s (len=%d,w=%d,units=%q) %s -> %v\n", v.Name, v.Length, v.Width, v.Units, v.Producer, v.Consumers)
	}
}
