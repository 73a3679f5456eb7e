// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

import (
	"github.com/cpmech/gosl/chk"

	"github.com/mfkiwl/mphys/inp"
	"github.com/mfkiwl/mphys/xfer"
)

// Scenario holds one analysis point: its coupling variables, the units
// operating on them and the transfer scheme tying the two meshes. Units
// fall into three stages:
//  MeshUnits -- evaluated once, before the coupled solve
//  LoopUnits -- re-evaluated every coupling iteration, in data order
//  PostUnits -- evaluated once, after the coupled solve
type Scenario struct {

	// essential
	Name   string       // scenario name
	Data   *inp.ScnData // input data of this scenario
	Sol    *Solution    // coupling variables
	Scheme xfer.Scheme  // load and displacement transfer
	Indep  *Indep       // independent condition variables; e.g. "aoa"

	// units
	Feedback  string // variable cutting the coupling cycle; e.g. "u_struct"
	MeshUnits []Unit
	LoopUnits []Unit
	PostUnits []Unit

	// derived
	assembled bool
}

// NewScenario returns a new, empty, scenario
func NewScenario(data *inp.ScnData, scheme xfer.Scheme) *Scenario {
	return &Scenario{
		Name:     data.Name,
		Data:     data,
		Sol:      NewSolution(data.Name),
		Scheme:   scheme,
		Feedback: KeyUStruct,
	}
}

// AddMesh appends a unit evaluated once before the coupled solve
func (o *Scenario) AddMesh(u Unit) (err error) {
	if err = o.register(u); err != nil {
		return
	}
	o.MeshUnits = append(o.MeshUnits, u)
	return
}

// AddLoop appends a unit re-evaluated every coupling iteration
func (o *Scenario) AddLoop(u Unit) (err error) {
	if err = o.register(u); err != nil {
		return
	}
	o.LoopUnits = append(o.LoopUnits, u)
	return
}

// AddPost appends a unit evaluated after the coupled solve
func (o *Scenario) AddPost(u Unit) (err error) {
	if err = o.register(u); err != nil {
		return
	}
	o.PostUnits = append(o.PostUnits, u)
	return
}

// register declares the ports of one unit against the scenario solution,
// enforcing the single-writer rule and consistent shapes. All ports are
// validated before anything is registered, so a rejected unit leaves the
// solution untouched.
func (o *Scenario) register(u Unit) (err error) {
	if o.assembled {
		return chk.Err("scenario %q is assembled already; no more units can be added", o.Name)
	}
	outs := make(map[string]bool)
	for _, spec := range u.Outputs() {
		if err = o.Sol.CheckVar(spec); err != nil {
			return
		}
		if outs[spec.Name] {
			return chk.Err("variable %q in scenario %q has two producers: %q and %q", spec.Name, o.Name, u.Name(), u.Name())
		}
		if v := o.Sol.Get(spec.Name); v != nil && v.Producer != "" {
			return chk.Err("variable %q in scenario %q has two producers: %q and %q", spec.Name, o.Name, v.Producer, u.Name())
		}
		outs[spec.Name] = true
	}
	for _, spec := range u.Inputs() {
		if err = o.Sol.CheckVar(spec); err != nil {
			return
		}
	}
	for _, spec := range u.Outputs() {
		v, _ := o.Sol.AddVar(spec)
		v.Producer = u.Name()
	}
	for _, spec := range u.Inputs() {
		v, _ := o.Sol.AddVar(spec)
		v.Consumers = append(v.Consumers, u.Name())
	}
	return
}

// Assemble finishes the scenario: every consumed variable must have a
// producer, all units are bound to the solution, and the loop units are
// sorted in data order with the feedback variable cutting the cycle.
func (o *Scenario) Assemble() (err error) {
	if o.assembled {
		return chk.Err("scenario %q is assembled already", o.Name)
	}

	// dangling inputs
	for _, name := range o.Sol.Names {
		v := o.Sol.Vars[name]
		if v.Producer == "" {
			return chk.Err("variable %q in scenario %q is consumed by %v but has no producer", name, o.Name, v.Consumers)
		}
	}

	// bind
	all := [][]Unit{o.MeshUnits, o.LoopUnits, o.PostUnits}
	for _, units := range all {
		for _, u := range units {
			if err = u.Bind(o.Sol); err != nil {
				return
			}
		}
	}

	// the feedback variable must live inside the loop for the solve to
	// have a cycle to iterate on
	fv := o.Sol.Get(o.Feedback)
	if fv == nil {
		return chk.Err("scenario %q has no feedback variable %q", o.Name, o.Feedback)
	}

	// sort loop units
	if err = o.sortLoop(); err != nil {
		return
	}
	o.assembled = true
	return
}

// sortLoop orders the loop units so every unit runs after the producers
// of its inputs, except across the feedback variable. Kahn's algorithm;
// any leftover units indicate a second cycle not cut by the feedback.
func (o *Scenario) sortLoop() (err error) {
	n := len(o.LoopUnits)
	idx := make(map[string]int) // producer unit name => loop index
	for i, u := range o.LoopUnits {
		idx[u.Name()] = i
	}
	adj := make([][]int, n)
	ndeps := make([]int, n)
	for i, u := range o.LoopUnits {
		for _, spec := range u.Inputs() {
			if spec.Name == o.Feedback {
				continue
			}
			v := o.Sol.Vars[spec.Name]
			if j, inloop := idx[v.Producer]; inloop {
				adj[j] = append(adj[j], i)
				ndeps[i]++
			}
		}
	}
	var queue, order []int
	for i := 0; i < n; i++ {
		if ndeps[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, j := range adj[i] {
			ndeps[j]--
			if ndeps[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if len(order) != n {
		var stuck []string
		for i := 0; i < n; i++ {
			if ndeps[i] > 0 {
				stuck = append(stuck, o.LoopUnits[i].Name())
			}
		}
		return chk.Err("scenario %q has a coupling cycle not cut by feedback variable %q: units %v", o.Name, o.Feedback, stuck)
	}
	sorted := make([]Unit, n)
	for k, i := range order {
		sorted[k] = o.LoopUnits[i]
	}
	o.LoopUnits = sorted
	return
}

// Setup evaluates the mesh-stage units and builds the transfer map for
// the resulting reference coordinates
func (o *Scenario) Setup() (err error) {
	if !o.assembled {
		return chk.Err("scenario %q must be assembled before Setup", o.Name)
	}
	for _, u := range o.MeshUnits {
		if err = u.Eval(); err != nil {
			return
		}
	}
	xa0 := o.Sol.Get(KeyXAero0)
	xs0 := o.Sol.Get(KeyXStruct)
	return o.Scheme.Build(xa0.Val, xs0.Val)
}

// RunPost evaluates the post-stage units
func (o *Scenario) RunPost() (err error) {
	for _, u := range o.PostUnits {
		if err = u.Eval(); err != nil {
			return
		}
	}
	return
}

// Graph holds all scenarios of one simulation
type Graph struct {
	Sim       *inp.Simulation      // input data
	Scenarios map[string]*Scenario // all scenarios
	Names     []string             // insertion order
}

// NewGraph returns a new Graph
func NewGraph(sim *inp.Simulation) *Graph {
	return &Graph{Sim: sim, Scenarios: make(map[string]*Scenario)}
}

// AddScenario wires one standard aerostructural scenario from the two
// discipline builders and a transfer scheme:
//  mesh: dvs, aero mesh, struct mesh
//  loop: disp-xfer -> aero -> load-xfer -> struct
//  post: aero functions, struct functions
func (o *Graph) AddScenario(data *inp.ScnData, aeroB, structB Builder, scheme xfer.Scheme) (scn *Scenario, err error) {
	if o.Scenarios[data.Name] != nil {
		return nil, chk.Err("scenario %q is defined twice", data.Name)
	}
	scn = NewScenario(data, scheme)

	// independent condition variables
	scn.Indep = NewIndep(UnitDvs, []VarSpec{
		{Name: KeyAoa, Length: 1, Width: 1, Units: "deg"},
		{Name: KeyQinf, Length: 1, Width: 1, Units: "Pa"},
	}, []float64{data.Aoa, data.Qinf})
	if err = scn.AddMesh(scn.Indep); err != nil {
		return nil, err
	}

	// mesh stage
	for _, b := range []Builder{aeroB, structB} {
		u, err := b.MeshUnit(data.Name)
		if err != nil {
			return nil, err
		}
		if err = scn.AddMesh(u); err != nil {
			return nil, err
		}
	}

	// loop stage
	na := aeroB.NumNodes()
	ns := structB.NumNodes()
	cplAero, err := aeroB.CouplingUnit(data.Name)
	if err != nil {
		return nil, err
	}
	cplStruct, err := structB.CouplingUnit(data.Name)
	if err != nil {
		return nil, err
	}
	for _, u := range []Unit{NewDispXfer(scheme, na, ns), cplAero, NewLoadXfer(scheme, na, ns), cplStruct} {
		if err = scn.AddLoop(u); err != nil {
			return nil, err
		}
	}

	// post stage
	for _, b := range []Builder{aeroB, structB} {
		u, err := b.PostUnit(data.Name)
		if err != nil {
			return nil, err
		}
		if err = scn.AddPost(u); err != nil {
			return nil, err
		}
	}

	if err = scn.Assemble(); err != nil {
		return nil, err
	}
	o.Scenarios[data.Name] = scn
	o.Names = append(o.Names, data.Name)
	return
}
