// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package dsc implements discipline analysis modules and their builders.
// The modules here are low order surrogates with analytic derivatives:
// a lifting panel model for the aerodynamic side and a bed of nonlinear
// springs for the structural side.
package dsc

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
)

// names of scalar functions produced by the post units
const (
	FnCl     = "cl"     // lift coefficient
	FnCd     = "cd"     // drag coefficient
	FnMass   = "mass"   // structural mass
	FnKsFail = "ksfail" // aggregated failure criterion
)

// Module is the analysis core behind a discipline builder: a state
// update over boundary fields plus scalar functions of the converged
// state. Builders wrap one Module into the units of a scenario; the
// units re-anchor the module at their own linearisation point before
// applying Jacobians, so one module may serve several scenarios.
type Module interface {
	Init(dirin string) error // load or generate the reference mesh and set constants
	NumNodes() int           // number of coupling nodes
	Ndof() int               // degrees of freedom per node
	Mesh() []float64         // reference coordinates; flat {x0,y0,z0, x1,...}

	// Solve updates the boundary state from the coupling input (deformed
	// coordinates for the aerodynamic side, loads for the structural
	// side) and returns the output field and the residual norm of the
	// state equation. The returned slice is owned by the module.
	Solve(in []float64) (out []float64, resnorm float64, err error)

	// ApplyJacobian applies the field Jacobian about the last Solve.
	//  mode == "fwd": dout += J·din
	//  mode == "rev": din += Jᵀ·dout
	ApplyJacobian(mode string, din, dout []float64) error

	// Functions returns the scalar functions of the last solved state
	Functions() map[string]float64

	// ApplyFunctionsJac applies the Jacobian of the scalar functions
	// w.r.t the coupling input about the last Solve.
	//  mode == "fwd": dfun[name] += dF·din
	//  mode == "rev": din += dFᵀ·dfun[name]
	ApplyFunctionsJac(mode string, din []float64, dfun map[string]float64) error
}

// MshData is the content of a mesh (.msh) JSON file
type MshData struct {
	Coords [][]float64 `json:"coords"` // nodal coordinates
}

// ReadMesh reads nodal coordinates from a .msh JSON file and returns
// them as a flat array
func ReadMesh(dirin, fn string, nnodes int) (x []float64, err error) {
	b, err := os.ReadFile(filepath.Join(dirin, fn))
	if err != nil {
		return nil, chk.Err("cannot read mesh file %q:\n%v", fn, err)
	}
	var msh MshData
	if err = json.Unmarshal(b, &msh); err != nil {
		return nil, chk.Err("cannot unmarshal mesh file %q:\n%v", fn, err)
	}
	if nnodes > 0 && len(msh.Coords) != nnodes {
		return nil, chk.Err("mesh file %q has %d nodes; %d required", fn, len(msh.Coords), nnodes)
	}
	x = make([]float64, 3*len(msh.Coords))
	for i, c := range msh.Coords {
		if len(c) != 3 {
			return nil, chk.Err("mesh file %q: node %d has %d coordinates; 3 required", fn, i, len(c))
		}
		for k := 0; k < 3; k++ {
			x[3*i+k] = c[k]
		}
	}
	return
}

// lineMesh generates n nodes evenly spaced along x in [0,1] at height z
func lineMesh(n int, z float64) (x []float64) {
	x = make([]float64, 3*n)
	for i := 0; i < n; i++ {
		if n > 1 {
			x[3*i] = float64(i) / float64(n-1)
		}
		x[3*i+2] = z
	}
	return
}
