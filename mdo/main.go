// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mdo ties input data, discipline builders, the scenario graph
// and the coupling solvers into one multidisciplinary analysis with an
// optimisation surface on top
package mdo

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/mfkiwl/mphys/cpl"
	"github.com/mfkiwl/mphys/inp"
	"github.com/mfkiwl/mphys/xfer"
)

// Main holds all data for a complete coupled analysis. The first
// discipline of the input data couples the aerodynamic surface and the
// second the structure.
type Main struct {

	// input
	Sim     *inp.Simulation // simulation data
	ShowMsg bool            // show messages

	// derived
	Graph   *cpl.Graph  // scenario graph
	AeroB   cpl.Builder // aerodynamic discipline builder
	StructB cpl.Builder // structural discipline builder

	// solvers, one per scenario
	Solvers    map[string]cpl.Solver
	LinSolvers map[string]cpl.LinSolver

	// startup ramp; nil if disabled
	ramp inp.Func
}

// NewMain reads a simulation (.mph) file, initialises the discipline
// builders and assembles all scenarios. Configuration errors panic.
func NewMain(simfilepath string, verbose bool, goroutineId int) (o *Main) {

	// read input
	o = new(Main)
	o.Sim = inp.ReadSim(simfilepath, verbose, goroutineId)
	o.ShowMsg = verbose

	// discipline builders
	var err error
	o.AeroB, err = cpl.NewBuilder(o.Sim, o.Sim.Disc[0])
	if err != nil {
		chk.Panic("cannot allocate aerodynamic builder:\n%v", err)
	}
	o.StructB, err = cpl.NewBuilder(o.Sim, o.Sim.Disc[1])
	if err != nil {
		chk.Panic("cannot allocate structural builder:\n%v", err)
	}
	if err = o.AeroB.Initialize(); err != nil {
		chk.Panic("cannot initialise aerodynamic builder:\n%v", err)
	}
	if err = o.StructB.Initialize(); err != nil {
		chk.Panic("cannot initialise structural builder:\n%v", err)
	}

	// startup ramp
	if o.Sim.Solver.QRampFcn != "none" {
		o.ramp, err = o.Sim.Functions.Get(o.Sim.Solver.QRampFcn)
		if err != nil {
			chk.Panic("cannot get startup ramp function:\n%v", err)
		}
	}

	// scenarios
	o.Graph = cpl.NewGraph(o.Sim)
	o.Solvers = make(map[string]cpl.Solver)
	o.LinSolvers = make(map[string]cpl.LinSolver)
	for _, sd := range o.Sim.Scenarios {
		if sd.Skip {
			continue
		}
		scheme, err := xfer.New(o.Sim.Xfer.Type)
		if err != nil {
			chk.Panic("cannot allocate transfer scheme:\n%v", err)
		}
		if err = scheme.Init(&o.Sim.Xfer); err != nil {
			chk.Panic("cannot initialise transfer scheme:\n%v", err)
		}
		scn, err := o.Graph.AddScenario(sd, o.AeroB, o.StructB, scheme)
		if err != nil {
			chk.Panic("cannot assemble scenario %q:\n%v", sd.Name, err)
		}
		if o.Sim.Data.ListVar && verbose {
			scn.Sol.List()
		}
	}
	if len(o.Graph.Names) == 0 {
		chk.Panic("simulation %q has no active scenarios", o.Sim.Key)
	}
	return
}

// SolveScenario rebuilds the transfer map of one scenario and runs the
// nonlinear coupled solve followed by the post functions
func (o *Main) SolveScenario(name string) (err error) {
	scn := o.Graph.Scenarios[name]
	if scn == nil {
		return chk.Err("scenario %q is not in the graph", name)
	}
	if err = scn.Setup(); err != nil {
		return
	}
	sol, ok := o.Solvers[name]
	if !ok {
		sol, err = cpl.NewSolver(o.Sim.Solver.Type)
		if err != nil {
			return
		}
		o.Solvers[name] = sol
	}
	if err = sol.Init(scn, &o.Sim.Solver, o.ramp); err != nil {
		return
	}
	if o.ShowMsg {
		io.Pf("> solving scenario %q\n", name)
	}
	if _, err = sol.Run(); err != nil {
		return
	}
	return scn.RunPost()
}

// Run solves all scenarios
func (o *Main) Run() (err error) {
	for _, name := range o.Graph.Names {
		if err = o.SolveScenario(name); err != nil {
			return
		}
	}
	return
}

// Functions returns the scalar function values of one solved scenario
func (o *Main) Functions(name string) (vals map[string]float64, err error) {
	scn := o.Graph.Scenarios[name]
	if scn == nil {
		return nil, chk.Err("scenario %q is not in the graph", name)
	}
	vals = make(map[string]float64)
	for _, u := range scn.PostUnits {
		for _, spec := range u.Outputs() {
			vals[spec.Name] = scn.Sol.Get(spec.Name).Val[0]
		}
	}
	return
}

// linSolver returns (allocating if needed) the linearised solver of one
// scenario, initialised about the last nonlinear solution
func (o *Main) linSolver(name string) (lin cpl.LinSolver, err error) {
	scn := o.Graph.Scenarios[name]
	if scn == nil {
		return nil, chk.Err("scenario %q is not in the graph", name)
	}
	lin, ok := o.LinSolvers[name]
	if !ok {
		lin, err = cpl.NewLinSolver(o.Sim.Solver.Type)
		if err != nil {
			return
		}
		o.LinSolvers[name] = lin
	}
	err = lin.Init(scn, &o.Sim.Solver)
	return
}
