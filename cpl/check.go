// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// CheckPartials verifies the linear operators of one unit about the
// current solution point. For every (input, output) pair the tangent
// columns assembled with unit seeds are compared against finite
// differences of Eval with step h; one combined tangent and one combined
// adjoint application are then compared through the dot-product identity.
// The unit is left evaluated at the original point.
func CheckPartials(tst *testing.T, u Unit, sol *Solution, tol, h float64, verb bool) {
	lin, ok := u.(Linearizable)
	if !ok {
		tst.Errorf("unit %q has no linear operator", u.Name())
		return
	}
	if err := u.Eval(); err != nil {
		tst.Errorf("Eval failed:\n%v", err)
		return
	}

	// tangent columns against finite differences, one input at a time
	for _, ispec := range u.Inputs() {
		iv := sol.Get(ispec.Name)
		x0 := make([]float64, iv.Length)
		copy(x0, iv.Val)
		for _, ospec := range u.Outputs() {
			ov := sol.Get(ospec.Name)
			J := make([][]float64, ov.Length)
			for i := range J {
				J[i] = make([]float64, iv.Length)
			}
			for j := 0; j < iv.Length; j++ {
				sds := NewSeeds()
				ej := make([]float64, iv.Length)
				ej[j] = 1
				sds.SetFixed(ispec.Name, ej)
				if err := lin.ApplyLinear(Fwd, sds); err != nil {
					tst.Errorf("ApplyLinear failed:\n%v", err)
					return
				}
				if col := sds.Get(ospec.Name); col != nil {
					for i := 0; i < ov.Length; i++ {
						J[i][j] = col[i]
					}
				}
			}
			chk.DerivVecVec(tst, io.Sf("d(%s)/d(%s)", ospec.Name, ispec.Name), tol, J, x0, h, verb, func(f, x []float64) {
				copy(iv.Val, x)
				if err := u.Eval(); err != nil {
					tst.Errorf("Eval failed:\n%v", err)
					return
				}
				copy(f, ov.Val)
			})
			copy(iv.Val, x0)
			if err := u.Eval(); err != nil {
				tst.Errorf("Eval failed:\n%v", err)
				return
			}
		}
	}

	// dot-product identity: fbar · (J·xdot) == (Jᵀ·fbar) · xdot
	fsds := NewSeeds()
	for _, ispec := range u.Inputs() {
		xdot := make([]float64, ispec.Length)
		for i := range xdot {
			xdot[i] = 1.0 + float64(i%5)/7.0
		}
		fsds.SetFixed(ispec.Name, xdot)
	}
	if err := lin.ApplyLinear(Fwd, fsds); err != nil {
		tst.Errorf("ApplyLinear failed:\n%v", err)
		return
	}
	rsds := NewSeeds()
	for _, ospec := range u.Outputs() {
		fbar := make([]float64, ospec.Length)
		for i := range fbar {
			fbar[i] = 1.0 / float64(i+2)
		}
		rsds.SetFixed(ospec.Name, fbar)
	}
	if err := lin.ApplyLinear(Rev, rsds); err != nil {
		tst.Errorf("ApplyLinear failed:\n%v", err)
		return
	}
	var lhs, rhs float64
	for _, ospec := range u.Outputs() {
		fbar := rsds.Get(ospec.Name)
		fdot := fsds.Get(ospec.Name)
		if fdot == nil {
			continue
		}
		for i := range fbar {
			lhs += fbar[i] * fdot[i]
		}
	}
	for _, ispec := range u.Inputs() {
		xbar := rsds.Get(ispec.Name)
		xdot := fsds.Get(ispec.Name)
		if xbar == nil {
			continue
		}
		for i := range xbar {
			rhs += xbar[i] * xdot[i]
		}
	}
	chk.Float64(tst, io.Sf("dot-product identity of %q", u.Name()), tol, lhs, rhs)
}
