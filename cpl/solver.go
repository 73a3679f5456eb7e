// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

import (
	"github.com/cpmech/gosl/chk"

	"github.com/mfkiwl/mphys/inp"
)

// Solver solves the nonlinear coupled problem of one scenario
type Solver interface {
	Init(scn *Scenario, sd *inp.SolverData, ramp inp.Func) error
	Run() (Status, error)
}

// LinSolver solves the linearised coupled problem of one scenario about
// the last nonlinear solution, in tangent ("fwd") or adjoint ("rev") mode
type LinSolver interface {
	Init(scn *Scenario, sd *inp.SolverData) error
	Solve(mode string, sds *Seeds) (Status, error)
}

// solverAllocators holds the available nonlinear coupling solvers
var solverAllocators = make(map[string]func() Solver)

// linSolverAllocators holds the available linearised coupling solvers
var linSolverAllocators = make(map[string]func() LinSolver)

// SetSolverAllocator adds a new nonlinear solver type to the database
func SetSolverAllocator(typ string, allocator func() Solver) {
	if _, ok := solverAllocators[typ]; ok {
		chk.Panic("cannot add solver %q to database twice", typ)
	}
	solverAllocators[typ] = allocator
}

// SetLinSolverAllocator adds a new linearised solver type to the database
func SetLinSolverAllocator(typ string, allocator func() LinSolver) {
	if _, ok := linSolverAllocators[typ]; ok {
		chk.Panic("cannot add linearised solver %q to database twice", typ)
	}
	linSolverAllocators[typ] = allocator
}

// NewSolver returns a new nonlinear coupling solver
func NewSolver(typ string) (Solver, error) {
	allocator, ok := solverAllocators[typ]
	if !ok {
		return nil, chk.Err("cannot find solver type %q in database", typ)
	}
	return allocator(), nil
}

// NewLinSolver returns a new linearised coupling solver
func NewLinSolver(typ string) (LinSolver, error) {
	allocator, ok := linSolverAllocators[typ]
	if !ok {
		return nil, chk.Err("cannot find linearised solver type %q in database", typ)
	}
	return allocator(), nil
}
