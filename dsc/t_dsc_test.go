// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsc

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/mfkiwl/mphys/cpl"
	"github.com/mfkiwl/mphys/inp"
)

// newTestSim returns simulation data with a small panel and spring pair
func newTestSim() *inp.Simulation {
	sim := &inp.Simulation{
		Disc: []*inp.DiscData{
			{Name: "aero", Type: "panel", Nnodes: 3, Eps3: 0.01},
			{Name: "struct", Type: "spring", Nnodes: 3, Kstiff: 1000, Gamma: 1e-9, Sigall: 10},
		},
	}
	sim.SetDefaults()
	return sim
}

// bindUnit registers the ports of one unit on a fresh solution
func bindUnit(tst *testing.T, u cpl.Unit) *cpl.Solution {
	sol := cpl.NewSolution("test")
	for _, spec := range u.Outputs() {
		if _, err := sol.AddVar(spec); err != nil {
			tst.Errorf("AddVar failed:\n%v", err)
			return nil
		}
	}
	for _, spec := range u.Inputs() {
		if _, err := sol.AddVar(spec); err != nil {
			tst.Errorf("AddVar failed:\n%v", err)
			return nil
		}
	}
	if err := u.Bind(sol); err != nil {
		tst.Errorf("Bind failed:\n%v", err)
		return nil
	}
	return sol
}

// jacobian assembles the dense tangent of one output w.r.t one input by
// seeding unit directions
func jacobian(tst *testing.T, u cpl.Unit, in string, nin int, out string, nout int) [][]float64 {
	lin := u.(cpl.Linearizable)
	J := make([][]float64, nout)
	for i := range J {
		J[i] = make([]float64, nin)
	}
	for j := 0; j < nin; j++ {
		sds := cpl.NewSeeds()
		ej := make([]float64, nin)
		ej[j] = 1
		sds.SetFixed(in, ej)
		if err := lin.ApplyLinear(cpl.Fwd, sds); err != nil {
			tst.Errorf("ApplyLinear failed:\n%v", err)
			return nil
		}
		col := sds.Get(out)
		for i := 0; i < nout; i++ {
			J[i][j] = col[i]
		}
	}
	return J
}

func Test_panel01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("panel01. load model and force coefficients")

	sim := newTestSim()
	b, err := cpl.NewBuilder(sim, sim.Disc[0])
	if err != nil {
		tst.Errorf("NewBuilder failed:\n%v", err)
		return
	}
	if err = b.Initialize(); err != nil {
		tst.Errorf("Initialize failed:\n%v", err)
		return
	}
	u, _ := b.CouplingUnit("test")
	sol := bindUnit(tst, u)
	if sol == nil {
		return
	}
	xa := sol.Get(cpl.KeyXAero)
	copy(xa.Val, []float64{0.1, 0.2, 0.3, -0.1, 0.05, 0.4, 0.0, -0.2, 0.25})
	sol.Get(cpl.KeyAoa).Val[0] = 2.0
	sol.Get(cpl.KeyQinf).Val[0] = 3000.0
	if err = u.Eval(); err != nil {
		tst.Errorf("Eval failed:\n%v", err)
		return
	}
	fa := sol.Get(cpl.KeyFAero)
	alp := 2.0 * 3.141592653589793 / 180.0
	for i, x := range xa.Val {
		chk.Float64(tst, io.Sf("fa%d", i), 1e-12, fa.Val[i], 3000*alp*(x+0.01*x*x*x))
	}

	// coefficients
	p, _ := b.PostUnit("test")
	psol := bindUnit(tst, p)
	if psol == nil {
		return
	}
	copy(psol.Get(cpl.KeyFAero).Val, fa.Val)
	psol.Get(cpl.KeyQinf).Val[0] = 3000.0
	if err = p.Eval(); err != nil {
		tst.Errorf("Eval failed:\n%v", err)
		return
	}
	var sfx, sfz float64
	for i := 0; i < 3; i++ {
		sfx += fa.Val[3*i]
		sfz += fa.Val[3*i+2]
	}
	chk.Float64(tst, "cl", 1e-14, psol.Get(FnCl).Val[0], sfz/3000.0)
	chk.Float64(tst, "cd", 1e-14, psol.Get(FnCd).Val[0], sfx/3000.0)
}

func Test_panel02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("panel02. load model derivatives")

	sim := newTestSim()
	b, _ := cpl.NewBuilder(sim, sim.Disc[0])
	b.Initialize()
	u, _ := b.CouplingUnit("test")
	sol := bindUnit(tst, u)
	if sol == nil {
		return
	}
	xa := sol.Get(cpl.KeyXAero)
	aoa := sol.Get(cpl.KeyAoa)
	qinf := sol.Get(cpl.KeyQinf)
	fa := sol.Get(cpl.KeyFAero)
	xat := []float64{0.1, 0.2, 0.3, -0.1, 0.05, 0.4, 0.0, -0.2, 0.25}
	copy(xa.Val, xat)
	aoa.Val[0] = 2.0
	qinf.Val[0] = 3000.0
	u.Eval()

	// w.r.t deformed coordinates
	n := len(xat)
	J := jacobian(tst, u, cpl.KeyXAero, n, cpl.KeyFAero, n)
	if J == nil {
		return
	}
	chk.DerivVecVec(tst, "dfa/dxa  ", 1e-6, J, xat, 1e-6, chk.Verbose, func(f, x []float64) {
		copy(xa.Val, x)
		if err := u.Eval(); err != nil {
			tst.Errorf("Eval failed:\n%v", err)
			return
		}
		copy(f, fa.Val)
	})

	// w.r.t angle of attack
	copy(xa.Val, xat)
	u.Eval()
	Ja := jacobian(tst, u, cpl.KeyAoa, 1, cpl.KeyFAero, n)
	da := make([]float64, n)
	for i := 0; i < n; i++ {
		da[i] = Ja[i][0]
	}
	chk.DerivVecSca(tst, "dfa/daoa ", 1e-6, da, 2.0, 1e-6, chk.Verbose, func(f []float64, a float64) {
		aoa.Val[0] = a
		if err := u.Eval(); err != nil {
			tst.Errorf("Eval failed:\n%v", err)
			return
		}
		copy(f, fa.Val)
	})

	// w.r.t dynamic pressure
	aoa.Val[0] = 2.0
	u.Eval()
	Jq := jacobian(tst, u, cpl.KeyQinf, 1, cpl.KeyFAero, n)
	dq := make([]float64, n)
	for i := 0; i < n; i++ {
		dq[i] = Jq[i][0]
	}
	chk.DerivVecSca(tst, "dfa/dqinf", 1e-6, dq, 3000.0, 1e-2, chk.Verbose, func(f []float64, q float64) {
		qinf.Val[0] = q
		if err := u.Eval(); err != nil {
			tst.Errorf("Eval failed:\n%v", err)
			return
		}
		copy(f, fa.Val)
	})

	// tangent/adjoint consistency
	qinf.Val[0] = 3000.0
	u.Eval()
	lin := u.(cpl.Linearizable)
	fsds := cpl.NewSeeds()
	xdot := make([]float64, n)
	for i := range xdot {
		xdot[i] = float64(i%3) - 1
	}
	fsds.SetFixed(cpl.KeyXAero, xdot)
	fsds.SetFixed(cpl.KeyAoa, []float64{0.3})
	fsds.SetFixed(cpl.KeyQinf, []float64{20})
	lin.ApplyLinear(cpl.Fwd, fsds)
	fdot := fsds.Get(cpl.KeyFAero)

	rsds := cpl.NewSeeds()
	fbar := make([]float64, n)
	for i := range fbar {
		fbar[i] = 1.0 / float64(i+1)
	}
	rsds.SetFixed(cpl.KeyFAero, fbar)
	lin.ApplyLinear(cpl.Rev, rsds)
	var lhs, rhs float64
	for i := 0; i < n; i++ {
		lhs += fbar[i] * fdot[i]
		rhs += rsds.Get(cpl.KeyXAero)[i] * xdot[i]
	}
	rhs += rsds.Get(cpl.KeyAoa)[0]*0.3 + rsds.Get(cpl.KeyQinf)[0]*20
	chk.Float64(tst, "duality", 1e-10, lhs, rhs)
}

func Test_spring01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("spring01. displacement model and derivatives")

	sim := newTestSim()
	b, _ := cpl.NewBuilder(sim, sim.Disc[1])
	b.Initialize()
	u, _ := b.CouplingUnit("test")
	sol := bindUnit(tst, u)
	if sol == nil {
		return
	}
	fs := sol.Get(cpl.KeyFStruct)
	us := sol.Get(cpl.KeyUStruct)
	fat := []float64{10, -5, 80, 2, 0, 60, -4, 3, 70}
	copy(fs.Val, fat)
	u.Eval()
	for i, f := range fat {
		chk.Float64(tst, io.Sf("us%d", i), 1e-14, us.Val[i], f/1000.0-1e-9*f*f*f)
	}

	n := len(fat)
	J := jacobian(tst, u, cpl.KeyFStruct, n, cpl.KeyUStruct, n)
	if J == nil {
		return
	}
	chk.DerivVecVec(tst, "dus/dfs", 1e-8, J, fat, 1e-3, chk.Verbose, func(f, x []float64) {
		copy(fs.Val, x)
		if err := u.Eval(); err != nil {
			tst.Errorf("Eval failed:\n%v", err)
			return
		}
		copy(f, us.Val)
	})
}

func Test_spring02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("spring02. mass and failure aggregation derivatives")

	sim := newTestSim()
	b, _ := cpl.NewBuilder(sim, sim.Disc[1])
	b.Initialize()
	p, _ := b.PostUnit("test")
	sol := bindUnit(tst, p)
	if sol == nil {
		return
	}
	xs := sol.Get(cpl.KeyXStruct)
	fs := sol.Get(cpl.KeyFStruct)
	xst := []float64{0, 0, 0, 0.5, 0.1, 0, 1.1, 0.2, 0.1}
	fst := []float64{3, -1, 8, 0.5, 2, 6, -2, 1, 9}
	copy(xs.Val, xst)
	copy(fs.Val, fst)
	p.Eval()
	io.Pforan("mass   = %v\n", sol.Get(FnMass).Val[0])
	io.Pforan("ksfail = %v\n", sol.Get(FnKsFail).Val[0])

	// the aggregation bounds the worst overstress from above
	gmax := -1e30
	for i := 0; i < 3; i++ {
		var s2 float64
		for k := 0; k < 3; k++ {
			s2 += fst[3*i+k] * fst[3*i+k]
		}
		g := math.Sqrt(s2)/10.0 - 1
		if g > gmax {
			gmax = g
		}
	}
	ks := sol.Get(FnKsFail).Val[0]
	if ks < gmax {
		tst.Errorf("aggregation %g is below the worst overstress %g", ks, gmax)
		return
	}

	// adjoint of the mass w.r.t the reference coordinates
	lin := p.(cpl.Linearizable)
	rsds := cpl.NewSeeds()
	rsds.SetFixed(FnMass, []float64{1})
	lin.ApplyLinear(cpl.Rev, rsds)
	dmdx := rsds.Get(cpl.KeyXStruct)
	chk.DerivScaVec(tst, "dmass/dxs", 1e-7, dmdx, xst, 1e-6, chk.Verbose, func(x []float64) float64 {
		copy(xs.Val, x)
		if err := p.Eval(); err != nil {
			tst.Errorf("Eval failed:\n%v", err)
			return 0
		}
		return sol.Get(FnMass).Val[0]
	})

	// adjoint of the aggregation w.r.t the loads
	copy(xs.Val, xst)
	p.Eval()
	rsds = cpl.NewSeeds()
	rsds.SetFixed(FnKsFail, []float64{1})
	lin.ApplyLinear(cpl.Rev, rsds)
	dkdf := rsds.Get(cpl.KeyFStruct)
	chk.DerivScaVec(tst, "dks/dfs  ", 1e-7, dkdf, fst, 1e-5, chk.Verbose, func(x []float64) float64 {
		copy(fs.Val, x)
		if err := p.Eval(); err != nil {
			tst.Errorf("Eval failed:\n%v", err)
			return 0
		}
		return sol.Get(FnKsFail).Val[0]
	})
}

func Test_partials01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("partials01. operators of all units vs finite differences")

	sim := newTestSim()

	// aerodynamic loads
	ab, _ := cpl.NewBuilder(sim, sim.Disc[0])
	ab.Initialize()
	u, _ := ab.CouplingUnit("test")
	sol := bindUnit(tst, u)
	if sol == nil {
		return
	}
	copy(sol.Get(cpl.KeyXAero).Val, []float64{0.1, 0.2, 0.3, -0.1, 0.05, 0.4, 0.0, -0.2, 0.25})
	sol.Get(cpl.KeyAoa).Val[0] = 2.0
	sol.Get(cpl.KeyQinf).Val[0] = 3000.0
	cpl.CheckPartials(tst, u, sol, 1e-6, 1e-6, chk.Verbose)

	// force coefficients
	p, _ := ab.PostUnit("test")
	psol := bindUnit(tst, p)
	if psol == nil {
		return
	}
	copy(psol.Get(cpl.KeyFAero).Val, []float64{10, -5, 80, 2, 0, 60, -4, 3, 70})
	psol.Get(cpl.KeyQinf).Val[0] = 3000.0
	cpl.CheckPartials(tst, p, psol, 1e-6, 1e-3, chk.Verbose)

	// structural displacements
	sb, _ := cpl.NewBuilder(sim, sim.Disc[1])
	sb.Initialize()
	su, _ := sb.CouplingUnit("test")
	ssol := bindUnit(tst, su)
	if ssol == nil {
		return
	}
	copy(ssol.Get(cpl.KeyFStruct).Val, []float64{10, -5, 80, 2, 0, 60, -4, 3, 70})
	cpl.CheckPartials(tst, su, ssol, 1e-7, 1e-3, chk.Verbose)

	// mass and failure aggregation
	sp, _ := sb.PostUnit("test")
	spsol := bindUnit(tst, sp)
	if spsol == nil {
		return
	}
	copy(spsol.Get(cpl.KeyXStruct).Val, []float64{0, 0, 0, 0.5, 0.1, 0, 1.1, 0.2, 0.1})
	copy(spsol.Get(cpl.KeyFStruct).Val, []float64{3, -1, 8, 0.5, 2, 6, -2, 1, 9})
	cpl.CheckPartials(tst, sp, spsol, 1e-6, 1e-5, chk.Verbose)
}

func Test_module01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("module01. analysis cores behind the scenario units")

	sim := newTestSim()
	ab := &AeroBuilder{Sim: sim, Dat: sim.Disc[0]}
	sb := &StructBuilder{Sim: sim, Dat: sim.Disc[1]}
	if err := ab.Initialize(); err != nil {
		tst.Errorf("Initialize failed:\n%v", err)
		return
	}
	if err := sb.Initialize(); err != nil {
		tst.Errorf("Initialize failed:\n%v", err)
		return
	}

	// aerodynamic core: explicit solve and coefficients
	pan := ab.Module().(*Panel)
	pan.Aoa = 2.0
	pan.Qinf = 3000.0
	xat := []float64{0.1, 0.2, 0.3, -0.1, 0.05, 0.4, 0.0, -0.2, 0.25}
	fa, resnorm, err := pan.Solve(xat)
	if err != nil {
		tst.Errorf("Solve failed:\n%v", err)
		return
	}
	chk.Float64(tst, "resnorm", 1e-17, resnorm, 0)
	alp := 2.0 * math.Pi / 180.0
	for i, x := range xat {
		chk.Float64(tst, io.Sf("fa%d", i), 1e-12, fa[i], 3000*alp*(x+0.01*x*x*x))
	}
	funcs := pan.Functions()
	var sfx, sfz float64
	for i := 0; i < 3; i++ {
		sfx += fa[3*i]
		sfz += fa[3*i+2]
	}
	chk.Float64(tst, "cl", 1e-14, funcs[FnCl], sfz/3000.0)
	chk.Float64(tst, "cd", 1e-14, funcs[FnCd], sfx/3000.0)

	// Jacobian duality of the load model
	n := len(xat)
	din := make([]float64, n)
	dout := make([]float64, n)
	for i := range din {
		din[i] = float64(i%3) - 1
	}
	if err = pan.ApplyJacobian(cpl.Fwd, din, dout); err != nil {
		tst.Errorf("ApplyJacobian failed:\n%v", err)
		return
	}
	ybar := make([]float64, n)
	xbar := make([]float64, n)
	for i := range ybar {
		ybar[i] = 1.0 / float64(i+1)
	}
	if err = pan.ApplyJacobian(cpl.Rev, xbar, ybar); err != nil {
		tst.Errorf("ApplyJacobian failed:\n%v", err)
		return
	}
	var lhs, rhs float64
	for i := 0; i < n; i++ {
		lhs += ybar[i] * dout[i]
		rhs += xbar[i] * din[i]
	}
	chk.Float64(tst, "load duality", 1e-12, lhs, rhs)

	// coefficient sensitivities
	dfun := map[string]float64{FnCl: 0, FnCd: 0}
	if err = pan.ApplyFunctionsJac(cpl.Fwd, din, dfun); err != nil {
		tst.Errorf("ApplyFunctionsJac failed:\n%v", err)
		return
	}
	var dcl, dcd float64
	for i := 0; i < 3; i++ {
		dcd += din[3*i] / 3000.0
		dcl += din[3*i+2] / 3000.0
	}
	chk.Float64(tst, "dcl", 1e-15, dfun[FnCl], dcl)
	chk.Float64(tst, "dcd", 1e-15, dfun[FnCd], dcd)

	// structural core: displacements, mass and failure aggregation
	spr := sb.Module().(*Spring)
	fst := []float64{3, -1, 8, 0.5, 2, 6, -2, 1, 9}
	us, _, err := spr.Solve(fst)
	if err != nil {
		tst.Errorf("Solve failed:\n%v", err)
		return
	}
	for i, f := range fst {
		chk.Float64(tst, io.Sf("us%d", i), 1e-14, us[i], f/1000.0-1e-9*f*f*f)
	}
	sfuncs := spr.Functions()
	if sfuncs[FnMass] <= 0 {
		tst.Errorf("mass must be positive: %v", sfuncs[FnMass])
		return
	}
	gmax := -1e30
	for i := 0; i < 3; i++ {
		var s2 float64
		for k := 0; k < 3; k++ {
			s2 += fst[3*i+k] * fst[3*i+k]
		}
		if g := math.Sqrt(s2)/10.0 - 1; g > gmax {
			gmax = g
		}
	}
	if sfuncs[FnKsFail] < gmax {
		tst.Errorf("aggregation %g is below the worst overstress %g", sfuncs[FnKsFail], gmax)
		return
	}

	// aggregation sensitivity duality
	kfwd := map[string]float64{FnKsFail: 0}
	if err = spr.ApplyFunctionsJac(cpl.Fwd, din, kfwd); err != nil {
		tst.Errorf("ApplyFunctionsJac failed:\n%v", err)
		return
	}
	fbar := make([]float64, n)
	if err = spr.ApplyFunctionsJac(cpl.Rev, fbar, map[string]float64{FnKsFail: 1}); err != nil {
		tst.Errorf("ApplyFunctionsJac failed:\n%v", err)
		return
	}
	var acc float64
	for i := 0; i < n; i++ {
		acc += fbar[i] * din[i]
	}
	chk.Float64(tst, "ks duality", 1e-13, acc, kfwd[FnKsFail])

	// unknown mode must be rejected
	if err = pan.ApplyJacobian("bogus", din, dout); err == nil {
		tst.Errorf("unknown mode should have failed")
		return
	}
	io.Pforan("err = %v\n", err)
}

func Test_builder01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("builder01. factory and initialisation guards")

	sim := newTestSim()

	// unknown type
	_, err := cpl.NewBuilder(sim, &inp.DiscData{Name: "x", Type: "beam"})
	if err == nil {
		tst.Errorf("unknown builder type should have failed")
		return
	}
	io.Pforan("err = %v\n", err)

	// units before Initialize
	b, err := cpl.NewBuilder(sim, sim.Disc[0])
	if err != nil {
		tst.Errorf("NewBuilder failed:\n%v", err)
		return
	}
	if _, err = b.MeshUnit("test"); err == nil {
		tst.Errorf("MeshUnit before Initialize should have failed")
		return
	}
	io.Pforan("err = %v\n", err)

	// after Initialize
	if err = b.Initialize(); err != nil {
		tst.Errorf("Initialize failed:\n%v", err)
		return
	}
	if b.NumNodes() != 3 {
		tst.Errorf("wrong number of nodes: %d", b.NumNodes())
		return
	}
	if _, err = b.CouplingUnit("test"); err != nil {
		tst.Errorf("CouplingUnit failed:\n%v", err)
	}
}
