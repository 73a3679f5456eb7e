// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdo

import (
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/mfkiwl/mphys/cpl"
	"github.com/mfkiwl/mphys/inp"
)

// Design variables are named "scenario.field" where field selects one
// condition variable of that scenario; e.g. "cruise.aoa". Functions are
// reported as "scenario.function"; e.g. "cruise.cl".

// dvTarget resolves one design variable name into its scenario and
// condition variable key
func (o *Main) dvTarget(dv *inp.DvData) (scn *cpl.Scenario, key string, err error) {
	parts := strings.SplitN(dv.Name, ".", 2)
	if len(parts) != 2 {
		return nil, "", chk.Err("design variable %q must be named \"scenario.field\"", dv.Name)
	}
	scn = o.Graph.Scenarios[parts[0]]
	if scn == nil {
		return nil, "", chk.Err("design variable %q refers to unknown scenario %q", dv.Name, parts[0])
	}
	switch parts[1] {
	case "aoa":
		key = cpl.KeyAoa
	case "qinf":
		key = cpl.KeyQinf
	default:
		return nil, "", chk.Err("design variable %q refers to unknown field %q", dv.Name, parts[1])
	}
	return
}

// DesignVariable describes one optimisation variable as seen by an
// external optimizer: current value, bounds, scaling and units
type DesignVariable struct {
	Val   float64 // current value
	Lower float64 // lower bound
	Upper float64 // upper bound
	Scale float64 // scaling factor; 1 if not given
	Units string  // units tag; e.g. "deg"
}

// DesignVariables returns the full description of all design variables
// keyed by name. Names are validated against the scenario graph.
func (o *Main) DesignVariables() (dvs map[string]*DesignVariable, err error) {
	dvs = make(map[string]*DesignVariable)
	for _, dv := range o.Sim.DesVars {
		if _, _, err = o.dvTarget(dv); err != nil {
			return nil, err
		}
		scale := dv.Scale
		if scale == 0 {
			scale = 1
		}
		dvs[dv.Name] = &DesignVariable{
			Val:   dv.Val,
			Lower: dv.Lower,
			Upper: dv.Upper,
			Scale: scale,
			Units: dv.Units,
		}
	}
	return
}

// DvInit returns the initial design variable values, in input order
func (o *Main) DvInit() (x []float64) {
	x = make([]float64, len(o.Sim.DesVars))
	for i, dv := range o.Sim.DesVars {
		x[i] = dv.Val
	}
	return
}

// DvBounds returns the design variable bounds, in input order
func (o *Main) DvBounds() (lo, hi []float64) {
	lo = make([]float64, len(o.Sim.DesVars))
	hi = make([]float64, len(o.Sim.DesVars))
	for i, dv := range o.Sim.DesVars {
		lo[i] = dv.Lower
		hi[i] = dv.Upper
	}
	return
}

// FuncNames returns all "scenario.function" keys, in graph order
func (o *Main) FuncNames() (names []string) {
	for _, sname := range o.Graph.Names {
		scn := o.Graph.Scenarios[sname]
		for _, u := range scn.PostUnits {
			for _, spec := range u.Outputs() {
				names = append(names, sname+"."+spec.Name)
			}
		}
	}
	return
}

// Evaluate sets the design variables, re-solves all scenarios (transfer
// maps are rebuilt) and returns all function values keyed by
// "scenario.function"
func (o *Main) Evaluate(xdv []float64) (funcs map[string]float64, err error) {
	if len(xdv) != len(o.Sim.DesVars) {
		return nil, chk.Err("wrong number of design variables: %d given, %d required", len(xdv), len(o.Sim.DesVars))
	}
	for i, dv := range o.Sim.DesVars {
		scn, key, err := o.dvTarget(dv)
		if err != nil {
			return nil, err
		}
		dv.Val = xdv[i]
		if err = scn.Indep.SetVal(key, xdv[i]); err != nil {
			return nil, err
		}
	}
	if err = o.Run(); err != nil {
		return
	}
	return o.AllFunctions()
}

// AllFunctions returns the function values of all solved scenarios keyed
// by "scenario.function"
func (o *Main) AllFunctions() (funcs map[string]float64, err error) {
	funcs = make(map[string]float64)
	for _, sname := range o.Graph.Names {
		vals, err := o.Functions(sname)
		if err != nil {
			return nil, err
		}
		for fn, v := range vals {
			funcs[sname+"."+fn] = v
		}
	}
	return
}

// Gradients computes the total derivatives of every scenario function
// with respect to all design variables, about the last Evaluate point.
// Tangent mode runs one coupled linear solve per design variable,
// reverse mode one per function.
func (o *Main) Gradients(mode string) (der map[string]map[string]float64, err error) {

	// zero totals; functions of one scenario do not depend on the
	// condition variables of another
	der = make(map[string]map[string]float64)
	for _, fk := range o.FuncNames() {
		der[fk] = make(map[string]float64)
		for _, dv := range o.Sim.DesVars {
			der[fk][dv.Name] = 0
		}
	}

	switch mode {

	case cpl.Fwd:
		for _, dv := range o.Sim.DesVars {
			scn, key, err := o.dvTarget(dv)
			if err != nil {
				return nil, err
			}
			lin, err := o.linSolver(scn.Name)
			if err != nil {
				return nil, err
			}
			sds := cpl.NewSeeds()
			sds.SetFixed(key, []float64{1})
			if _, err = lin.Solve(cpl.Fwd, sds); err != nil {
				return nil, err
			}
			for _, u := range scn.PostUnits {
				for _, spec := range u.Outputs() {
					if d := sds.Get(spec.Name); d != nil {
						der[scn.Name+"."+spec.Name][dv.Name] = d[0]
					}
				}
			}
		}

	case cpl.Rev:
		for _, sname := range o.Graph.Names {
			scn := o.Graph.Scenarios[sname]
			for _, u := range scn.PostUnits {
				for _, spec := range u.Outputs() {
					lin, err := o.linSolver(sname)
					if err != nil {
						return nil, err
					}
					sds := cpl.NewSeeds()
					sds.SetFixed(spec.Name, []float64{1})
					if _, err = lin.Solve(cpl.Rev, sds); err != nil {
						return nil, err
					}
					for _, dv := range o.Sim.DesVars {
						dscn, key, err := o.dvTarget(dv)
						if err != nil {
							return nil, err
						}
						if dscn != scn {
							continue
						}
						if g := sds.Get(key); g != nil {
							der[sname+"."+spec.Name][dv.Name] = g[0]
						}
					}
				}
			}
		}

	default:
		return nil, chk.Err("unknown derivative mode %q", mode)
	}
	return
}

// PrintFunctions prints one table with all function values
func (o *Main) PrintFunctions(funcs map[string]float64) {
	for _, fk := range o.FuncNames() {
		io.Pf("  %-20s = %23.15e\n", fk, funcs[fk])
	}
}
