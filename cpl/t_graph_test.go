// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/mfkiwl/mphys/inp"
)

func Test_graph01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph01. single writer, shapes and dangling inputs")

	// two producers of the same variable
	scn := NewScenario(&inp.ScnData{Name: "bad"}, nil)
	M := [][]float64{{1, 0}, {0, 1}}
	err := scn.AddLoop(&toyLin{name: "opA", in1: "u", out: "y", M: M})
	if err != nil {
		tst.Errorf("AddLoop failed:\n%v", err)
		return
	}
	err = scn.AddLoop(&toyLin{name: "opB", in1: "u", out: "y", M: M})
	if err == nil {
		tst.Errorf("second producer of \"y\" should have failed")
		return
	}
	io.Pforan("err = %v\n", err)

	// shape mismatch between consumer and producer
	scn = NewScenario(&inp.ScnData{Name: "bad"}, nil)
	scn.AddLoop(&toyLin{name: "opA", in1: "u", out: "y", M: M})
	err = scn.AddLoop(&toyLin{name: "opB", in1: "y", out: "u", M: [][]float64{{1, 0, 0}, {0, 1, 0}}})
	if err == nil {
		tst.Errorf("mismatched shape of \"y\" should have failed")
		return
	}
	io.Pforan("err = %v\n", err)

	// consumed variable without producer
	scn = NewScenario(&inp.ScnData{Name: "bad"}, nil)
	scn.Feedback = "u"
	scn.AddLoop(&toyLin{name: "opA", in1: "u", in2: "p", out: "y", M: M, N: M})
	scn.AddLoop(&toyLin{name: "opB", in1: "y", out: "u", M: M})
	err = scn.Assemble()
	if err == nil {
		tst.Errorf("dangling input \"p\" should have failed")
		return
	}
	io.Pforan("err = %v\n", err)
}

func Test_graph02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph02. loop ordering and uncut cycles")

	// loop units added out of data order come out sorted
	M := [][]float64{{1, 0}, {0, 1}}
	scn := NewScenario(&inp.ScnData{Name: "toy"}, nil)
	scn.Feedback = "u"
	scn.AddLoop(&toyLin{name: "opC", in1: "z", out: "u", M: M})
	scn.AddLoop(&toyLin{name: "opA", in1: "u", out: "y", M: M})
	scn.AddLoop(&toyLin{name: "opB", in1: "y", out: "z", M: M})
	err := scn.Assemble()
	if err != nil {
		tst.Errorf("Assemble failed:\n%v", err)
		return
	}
	var order []string
	for _, u := range scn.LoopUnits {
		order = append(order, u.Name())
	}
	io.Pforan("order = %v\n", order)
	chk.Strings(tst, "loop order", order, []string{"opA", "opB", "opC"})

	// a second cycle not cut by the feedback variable is an error
	scn = NewScenario(&inp.ScnData{Name: "bad"}, nil)
	scn.Feedback = "u"
	scn.AddLoop(&toyLin{name: "opA", in1: "u", in2: "z", out: "y", M: M, N: M})
	scn.AddLoop(&toyLin{name: "opB", in1: "y", out: "u", M: M})
	scn.AddLoop(&toyLin{name: "opC", in1: "y", out: "z", M: M})
	err = scn.Assemble()
	if err == nil {
		tst.Errorf("uncut cycle y-z should have failed")
		return
	}
	io.Pforan("err = %v\n", err)

	// missing feedback variable
	scn = NewScenario(&inp.ScnData{Name: "bad"}, nil)
	scn.Feedback = "w"
	scn.AddLoop(&toyLin{name: "opA", in1: "u", out: "y", M: M})
	scn.AddLoop(&toyLin{name: "opB", in1: "y", out: "u", M: M})
	err = scn.Assemble()
	if err == nil {
		tst.Errorf("missing feedback variable should have failed")
		return
	}
	io.Pforan("err = %v\n", err)
}

// toyTwin declares the same output twice
type toyTwin struct {
	in, out string
}

func (o *toyTwin) Name() string { return "twin" }
func (o *toyTwin) Inputs() []VarSpec {
	return []VarSpec{{Name: o.in, Length: 2, Width: 1}}
}
func (o *toyTwin) Outputs() []VarSpec {
	return []VarSpec{
		{Name: o.out, Length: 2, Width: 1},
		{Name: o.out, Length: 2, Width: 1},
	}
}
func (o *toyTwin) Bind(sol *Solution) error { return nil }
func (o *toyTwin) Eval() error { return nil }
func (o *toyTwin) ApplyLinear(mode string, sds *Seeds) error { return nil }

func Test_graph03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph03. rejected units leave the solution untouched")

	// baseline: opA registered u and y
	scn := NewScenario(&inp.ScnData{Name: "bad"}, nil)
	M := [][]float64{{1, 0}, {0, 1}}
	err := scn.AddLoop(&toyLin{name: "opA", in1: "u", out: "y", M: M})
	if err != nil {
		tst.Errorf("AddLoop failed:\n%v", err)
		return
	}
	nvars := len(scn.Sol.Names)
	ncons := len(scn.Sol.Get("u").Consumers)

	// conflicting producer with a fresh input: nothing may be registered
	err = scn.AddLoop(&toyLin{name: "opB", in1: "z", out: "y", M: M})
	if err == nil {
		tst.Errorf("second producer of \"y\" should have failed")
		return
	}
	io.Pforan("err = %v\n", err)
	if scn.Sol.Get("z") != nil {
		tst.Errorf("input \"z\" of the rejected unit was registered")
		return
	}
	if p := scn.Sol.Get("y").Producer; p != "opA" {
		tst.Errorf("producer of \"y\" changed to %q", p)
		return
	}
	if len(scn.Sol.Names) != nvars {
		tst.Errorf("solution grew from %d to %d variables", nvars, len(scn.Sol.Names))
		return
	}
	if len(scn.Sol.Get("u").Consumers) != ncons {
		tst.Errorf("consumers of \"u\" changed: %v", scn.Sol.Get("u").Consumers)
		return
	}

	// one unit declaring the same output twice
	err = scn.AddLoop(&toyTwin{in: "y", out: "w"})
	if err == nil {
		tst.Errorf("duplicate output \"w\" should have failed")
		return
	}
	io.Pforan("err = %v\n", err)
	if scn.Sol.Get("w") != nil {
		tst.Errorf("output \"w\" of the rejected unit was registered")
		return
	}
	if len(scn.LoopUnits) != 1 {
		tst.Errorf("rejected units were appended to the loop")
	}
}
