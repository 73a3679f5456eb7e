// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func Test_read01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("read01. aerostructural .mph file")

	sim := ReadSim("data/aerostruct01.mph", chk.Verbose, 0)
	if sim == nil {
		tst.Errorf("cannot read simulation file\n")
		return
	}

	// global data
	chk.StrAssert(sim.Key, "aerostruct01")
	chk.StrAssert(sim.Data.DirOut, "/tmp/mphys")

	// solver data
	chk.StrAssert(sim.Solver.Type, "gs")
	chk.IntAssert(sim.Solver.NmaxIt, 30)
	chk.Float64(tst, "atol", 1e-17, sim.Solver.Atol, 1e-14)
	chk.Float64(tst, "rtol", 1e-17, sim.Solver.Rtol, 1e-14)
	if !sim.Solver.Aitken {
		tst.Errorf("aitken flag must be set\n")
		return
	}
	chk.IntAssert(sim.Solver.NdvgMax, 4)

	// defaults
	chk.Float64(tst, "omegaini", 1e-15, sim.Solver.OmegaIni, 1.0)
	chk.Float64(tst, "omegamin", 1e-15, sim.Solver.OmegaMin, 0.25)
	chk.Float64(tst, "omegamax", 1e-15, sim.Solver.OmegaMax, 1.75)
	chk.IntAssert(sim.Solver.LinNmaxIt, 30)
	chk.StrAssert(sim.Solver.QRampFcn, "none")

	// transfer scheme
	chk.StrAssert(sim.Xfer.Type, "meld")
	chk.IntAssert(sim.Xfer.Nnear, 200)
	chk.Float64(tst, "beta", 1e-15, sim.Xfer.Beta, 0.5)

	// disciplines
	chk.IntAssert(len(sim.Disc), 2)
	aero := sim.GetDiscipline("aero")
	if aero == nil {
		tst.Errorf("cannot find 'aero' discipline\n")
		return
	}
	chk.StrAssert(aero.Type, "panel")
	chk.IntAssert(aero.Nnodes, 4)
	chk.IntAssert(aero.Ndof, 3)
	str := sim.GetDiscipline("struct")
	chk.StrAssert(str.Type, "spring")
	chk.Float64(tst, "kstiff", 1e-15, str.Kstiff, 1000.0)
	if sim.GetDiscipline("thermal") != nil {
		tst.Errorf("unknown discipline must return nil\n")
		return
	}

	// scenarios
	chk.IntAssert(len(sim.Scenarios), 2)
	cru := sim.GetScenario("cruise")
	chk.Float64(tst, "cruise aoa", 1e-15, cru.Aoa, 2.0)
	chk.Float64(tst, "cruise qinf", 1e-15, cru.Qinf, 3000.0)
	man := sim.GetScenario("maneuver")
	chk.Float64(tst, "maneuver aoa", 1e-15, man.Aoa, 5.0)

	// design variables
	chk.IntAssert(len(sim.DesVars), 2)
	chk.StrAssert(sim.DesVars[0].Name, "cruise.aoa")
	chk.StrAssert(sim.DesVars[0].Units, "deg")
	chk.Float64(tst, "dv scale", 1e-15, sim.DesVars[0].Scale, 0.1)

	// functions
	fcn, err := sim.Functions.Get("qramp")
	if err != nil {
		tst.Errorf("cannot get 'qramp' function:\n%v", err)
		return
	}
	io.Pforan("qramp(0.5) = %v\n", fcn.F(0.5, nil))
	zero, err := sim.Functions.Get("none")
	if err != nil {
		tst.Errorf("cannot get 'none' function:\n%v", err)
		return
	}
	chk.Float64(tst, "zero fcn", 1e-15, zero.F(0.5, nil), 0)
}

func Test_read02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("read02. validation catches miswired input")

	sim := new(Simulation)
	sim.Disc = []*DiscData{{Name: "aero", Type: "panel", Nnodes: 4}}
	sim.SetDefaults()
	err := sim.Validate()
	if err == nil {
		tst.Errorf("validation must fail with a single discipline\n")
		return
	}
	io.Pforan("err = %v\n", err)

	sim.Disc = append(sim.Disc, &DiscData{Name: "aero", Type: "spring", Nnodes: 4})
	err = sim.Validate()
	if err == nil {
		tst.Errorf("validation must fail with duplicate discipline names\n")
		return
	}

	sim.Disc[1].Name = "struct"
	err = sim.Validate()
	if err == nil {
		tst.Errorf("validation must fail without scenarios\n")
		return
	}

	sim.Scenarios = []*ScnData{{Name: "cruise"}}
	err = sim.Validate()
	if err != nil {
		tst.Errorf("validation must pass now:\n%v", err)
		return
	}

	sim.Solver.OmegaMin = 2.0
	err = sim.Validate()
	if err == nil {
		tst.Errorf("validation must fail with inconsistent relaxation bounds\n")
		return
	}
}
