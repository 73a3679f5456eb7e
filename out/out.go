// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out implements output handling of coupled analyses: collecting
// converged results, saving them to the output directory, reading them
// back and exporting deformed surfaces
package out

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/mfkiwl/mphys/cpl"
	"github.com/mfkiwl/mphys/mdo"
)

// Global variables
var (

	// data set by Start
	Analysis *mdo.Main              // the analysis structure
	Results  map[string]*ScnResults // converged results; scenario name => results
)

// ScnResults holds the converged results of one scenario
type ScnResults struct {
	Scenario string               `json:"scenario"` // scenario name
	Funcs    map[string]float64   `json:"funcs"`    // scalar function values
	Vars     map[string][]float64 `json:"vars"`     // coupling variable values
}

// Start runs a coupled analysis given a simulation input file and
// collects the converged results of all scenarios
func Start(simfnpath string, verbose bool) {
	Analysis = mdo.NewMain(simfnpath, verbose, 0)
	err := Analysis.Run()
	if err != nil {
		chk.Panic("cannot run analysis:\n%v", err)
	}
	err = Collect()
	if err != nil {
		chk.Panic("cannot collect results:\n%v", err)
	}
}

// Collect copies the current coupling variables and function values of
// all scenarios into Results
func Collect() (err error) {
	Results = make(map[string]*ScnResults)
	for _, name := range Analysis.Graph.Names {
		scn := Analysis.Graph.Scenarios[name]
		res := &ScnResults{Scenario: name, Vars: make(map[string][]float64)}
		res.Funcs, err = Analysis.Functions(name)
		if err != nil {
			return
		}
		for _, vname := range scn.Sol.Names {
			v := scn.Sol.Get(vname)
			vals := make([]float64, v.Length)
			copy(vals, v.Val)
			res.Vars[vname] = vals
		}
		Results[name] = res
	}
	return
}

// Save writes the results of all scenarios to the output directory, one
// JSON file per scenario named <simkey>-<scenario>.res
func Save() (err error) {
	if Results == nil {
		return chk.Err("results must be collected before saving")
	}
	dirout := Analysis.Sim.Data.DirOut
	for name, res := range Results {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return chk.Err("cannot marshal results of scenario %q:\n%v", name, err)
		}
		io.WriteBytesToFileD(dirout, io.Sf("%s-%s.res", Analysis.Sim.Key, name), b)
	}
	return
}

// Read loads the results of one scenario from the output directory
func Read(dirout, simkey, scenario string) (res *ScnResults, err error) {
	fn := filepath.Join(dirout, io.Sf("%s-%s.res", simkey, scenario))
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, chk.Err("cannot read results file %q:\n%v", fn, err)
	}
	res = new(ScnResults)
	if err = json.Unmarshal(b, res); err != nil {
		return nil, chk.Err("cannot unmarshal results file %q:\n%v", fn, err)
	}
	return
}

// SaveDeformed writes reference and deformed aerodynamic surface heights
// of one scenario as a whitespace separated table (x z0 z), one row per
// surface node, to <fnkey>.dat in the output directory
func SaveDeformed(scenario, fnkey string) (err error) {
	res := Results[scenario]
	if res == nil {
		return chk.Err("no results for scenario %q", scenario)
	}
	xa0 := res.Vars[cpl.KeyXAero0]
	xa := res.Vars[cpl.KeyXAero]
	if xa0 == nil || xa == nil {
		return chk.Err("scenario %q has no surface coordinates", scenario)
	}
	na := len(xa0) / 3
	buf := io.Sf("# %21s %23s %23s\n", "x", "z0", "z")
	for i := 0; i < na; i++ {
		buf += io.Sf("%23.15e %23.15e %23.15e\n", xa0[3*i], xa0[3*i+2], xa[3*i+2])
	}
	io.WriteStringToFileD(Analysis.Sim.Data.DirOut, fnkey+".dat", buf)
	return
}
