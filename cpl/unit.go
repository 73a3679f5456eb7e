// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

// Unit defines what all units of the scenario graph must implement
type Unit interface {
	Name() string               // returns the unit name within the scenario
	Inputs() []VarSpec          // coupling variables consumed by this unit
	Outputs() []VarSpec         // coupling variables produced by this unit
	Bind(sol *Solution) error   // resolve variable pointers against the scenario solution
	Eval() error                // evaluate outputs from current inputs
}

// Linearizable defines units that expose the action of their
// linearisation about the last Eval point
type Linearizable interface {
	// ApplyLinear applies the tangent ("fwd") or adjoint ("rev") operator:
	//  fwd: output seeds += J · input seeds
	//  rev: input seeds += Jᵀ · output seeds
	ApplyLinear(mode string, sds *Seeds) error
}

// Builder defines per-discipline factories producing the mesh, coupling
// and post-processing units of a scenario. A builder is stateful with
// respect to its discipline (one solver instance may serve several
// scenarios) but keeps no per-scenario state itself.
type Builder interface {
	Initialize() error                          // construct internal solver state
	NumNodes() int                              // number of coupling nodes
	Ndof() int                                  // degrees of freedom per node
	MeshUnit(scenario string) (Unit, error)     // unit producing the reference mesh coordinates
	CouplingUnit(scenario string) (Unit, error) // unit implementing the per-iteration state update
	PostUnit(scenario string) (Unit, error)     // unit computing scalar functions from converged state
}
