// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsc

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/mfkiwl/mphys/cpl"
	"github.com/mfkiwl/mphys/inp"
)

// ksRho is the sharpness of the Kreisselmeier-Steinhauser aggregation
const ksRho = 50.0

// Spring is the structural surrogate: a bed of independent springs with
// a cubic softening term
//  u_k = f_k/kstiff - γ·f_k³   (componentwise)
// Mass follows the reference line length; failure is the KS aggregation
// of nodal force magnitudes over the allowable.
type Spring struct {

	// input
	Dat *inp.DiscData // discipline data

	// derived
	ns  int       // number of coupling nodes
	msh []float64 // reference coordinates

	// state of the last Solve
	fs []float64 // nodal loads
	us []float64 // nodal displacements
}

// Init loads or generates the reference mesh
func (o *Spring) Init(dirin string) (err error) {
	o.ns = o.Dat.Nnodes
	if o.Dat.Mshfile != "" {
		o.msh, err = ReadMesh(dirin, o.Dat.Mshfile, o.ns)
		if err != nil {
			return
		}
		if o.ns == 0 {
			o.ns = len(o.msh) / 3
		}
	} else {
		if o.ns < 1 {
			return chk.Err("spring %q: nnodes must be given when no mesh file is used", o.Dat.Name)
		}
		o.msh = lineMesh(o.ns, 0)
	}
	o.fs = make([]float64, 3*o.ns)
	o.us = make([]float64, 3*o.ns)
	return
}

// NumNodes returns the number of coupling nodes
func (o *Spring) NumNodes() int { return o.ns }

// Ndof returns the number of degrees of freedom per node
func (o *Spring) Ndof() int { return o.Dat.Ndof }

// Mesh returns the reference coordinates
func (o *Spring) Mesh() []float64 { return o.msh }

// Solve computes the displacements from the loads. The spring model is
// explicit, thus the residual norm is zero.
func (o *Spring) Solve(in []float64) (out []float64, resnorm float64, err error) {
	if len(in) != 3*o.ns {
		return nil, 0, chk.Err("spring %q: wrong input length: %d (need %d)", o.Dat.Name, len(in), 3*o.ns)
	}
	copy(o.fs, in)
	k := o.Dat.Kstiff
	gam := o.Dat.Gamma
	for i, f := range o.fs {
		o.us[i] = f/k - gam*f*f*f
	}
	return o.us, 0, nil
}

// ApplyJacobian applies d(us)/d(fs) about the last Solve
func (o *Spring) ApplyJacobian(mode string, din, dout []float64) error {
	k := o.Dat.Kstiff
	gam := o.Dat.Gamma
	switch mode {
	case cpl.Fwd:
		for i, f := range o.fs {
			dout[i] += (1/k - 3*gam*f*f) * din[i]
		}
	case cpl.Rev:
		for i, f := range o.fs {
			din[i] += (1/k - 3*gam*f*f) * dout[i]
		}
	default:
		return chk.Err("spring %q: unknown linear mode %q", o.Dat.Name, mode)
	}
	return nil
}

// Functions returns mass and the failure aggregation of the last solved
// loads; mass follows the reference mesh
func (o *Spring) Functions() map[string]float64 {
	return map[string]float64{
		FnMass:   o.massOf(o.msh),
		FnKsFail: o.ksOf(o.fs),
	}
}

// ApplyFunctionsJac applies d(mass,ksfail)/d(fs) about the last Solve.
// The mass does not depend on the loads.
func (o *Spring) ApplyFunctionsJac(mode string, din []float64, dfun map[string]float64) error {
	switch mode {
	case cpl.Fwd:
		dfun[FnKsFail] += o.ksDot(o.fs, din)
	case cpl.Rev:
		o.ksBar(o.fs, dfun[FnKsFail], din)
	default:
		return chk.Err("spring %q: unknown linear mode %q", o.Dat.Name, mode)
	}
	return nil
}

// massOf returns the length of the reference line
func (o *Spring) massOf(xs []float64) (mass float64) {
	for i := 0; i < o.ns-1; i++ {
		var d2 float64
		for k := 0; k < 3; k++ {
			d := xs[3*(i+1)+k] - xs[3*i+k]
			d2 += d * d
		}
		mass += math.Sqrt(d2)
	}
	return
}

// massDot returns the directional derivative of the line length
func (o *Spring) massDot(xs, dxs []float64) (res float64) {
	for i := 0; i < o.ns-1; i++ {
		var d2 float64
		var d [3]float64
		for k := 0; k < 3; k++ {
			d[k] = xs[3*(i+1)+k] - xs[3*i+k]
			d2 += d[k] * d[k]
		}
		l := math.Sqrt(d2)
		if l < 1e-12 {
			continue
		}
		for k := 0; k < 3; k++ {
			res += d[k] / l * (dxs[3*(i+1)+k] - dxs[3*i+k])
		}
	}
	return
}

// massBar accumulates the adjoint of the line length
func (o *Spring) massBar(xs []float64, mbar float64, xbar []float64) {
	for i := 0; i < o.ns-1; i++ {
		var d2 float64
		var d [3]float64
		for k := 0; k < 3; k++ {
			d[k] = xs[3*(i+1)+k] - xs[3*i+k]
			d2 += d[k] * d[k]
		}
		l := math.Sqrt(d2)
		if l < 1e-12 {
			continue
		}
		for k := 0; k < 3; k++ {
			xbar[3*(i+1)+k] += d[k] / l * mbar
			xbar[3*i+k] += -d[k] / l * mbar
		}
	}
}

// ksOf returns the KS aggregation of the nodal overstress
func (o *Spring) ksOf(fs []float64) float64 {
	g := o.overstress(fs)
	m := g[0]
	for _, gi := range g {
		m = math.Max(m, gi)
	}
	var sum float64
	for _, gi := range g {
		sum += math.Exp(ksRho * (gi - m))
	}
	return m + math.Log(sum)/ksRho
}

// ksDot returns the directional derivative of the KS aggregation
func (o *Spring) ksDot(fs, dfs []float64) (res float64) {
	g, w := o.ksWeights(fs)
	for i := 0; i < o.ns; i++ {
		sig := (g[i] + 1) * o.Dat.Sigall
		if sig < 1e-12 {
			continue
		}
		for k := 0; k < 3; k++ {
			res += w[i] * fs[3*i+k] / (sig * o.Dat.Sigall) * dfs[3*i+k]
		}
	}
	return
}

// ksBar accumulates the adjoint of the KS aggregation
func (o *Spring) ksBar(fs []float64, kbar float64, fbar []float64) {
	g, w := o.ksWeights(fs)
	for i := 0; i < o.ns; i++ {
		sig := (g[i] + 1) * o.Dat.Sigall
		if sig < 1e-12 {
			continue
		}
		for k := 0; k < 3; k++ {
			fbar[3*i+k] += w[i] * fs[3*i+k] / (sig * o.Dat.Sigall) * kbar
		}
	}
}

// ksWeights returns the overstress values and the derivative weights of
// the KS aggregation
func (o *Spring) ksWeights(fs []float64) (g, w []float64) {
	g = o.overstress(fs)
	m := g[0]
	for _, gi := range g {
		m = math.Max(m, gi)
	}
	var sum float64
	w = make([]float64, o.ns)
	for i, gi := range g {
		w[i] = math.Exp(ksRho * (gi - m))
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return
}

// overstress returns g_k = σ_k/σ_allow - 1 for all nodes
func (o *Spring) overstress(fs []float64) (g []float64) {
	g = make([]float64, o.ns)
	for i := 0; i < o.ns; i++ {
		var s2 float64
		for k := 0; k < 3; k++ {
			s2 += fs[3*i+k] * fs[3*i+k]
		}
		g[i] = math.Sqrt(s2)/o.Dat.Sigall - 1
	}
	return
}

// springMesh produces the reference structural coordinates
type springMesh struct {
	mod *Spring
	v   *cpl.Variable
}

func (o *springMesh) Name() string { return cpl.UnitMeshStruct }
func (o *springMesh) Inputs() []cpl.VarSpec { return nil }
func (o *springMesh) Outputs() []cpl.VarSpec {
	return []cpl.VarSpec{{Name: cpl.KeyXStruct, Length: 3 * o.mod.ns, Width: 3, Units: "m"}}
}
func (o *springMesh) Bind(sol *cpl.Solution) error {
	o.v = sol.Get(cpl.KeyXStruct)
	return nil
}
func (o *springMesh) Eval() error {
	copy(o.v.Val, o.mod.msh)
	return nil
}
func (o *springMesh) ApplyLinear(mode string, sds *cpl.Seeds) error { return nil }

// springCoupling computes the structural displacements from the loads,
// delegating the spring model to the Spring module
type springCoupling struct {
	mod *Spring

	// bound variables
	fs, us *cpl.Variable

	// linearisation point
	fsp []float64
}

func (o *springCoupling) Name() string { return cpl.UnitCplStruct }
func (o *springCoupling) Inputs() []cpl.VarSpec {
	return []cpl.VarSpec{{Name: cpl.KeyFStruct, Length: 3 * o.mod.ns, Width: 3, Units: "N"}}
}
func (o *springCoupling) Outputs() []cpl.VarSpec {
	return []cpl.VarSpec{{Name: cpl.KeyUStruct, Length: 3 * o.mod.ns, Width: 3, Units: "m"}}
}
func (o *springCoupling) Bind(sol *cpl.Solution) error {
	o.fs = sol.Get(cpl.KeyFStruct)
	o.us = sol.Get(cpl.KeyUStruct)
	if o.fs == nil || o.us == nil {
		return chk.Err("unit %q: missing coupling variables in scenario %q", o.Name(), sol.Scenario)
	}
	o.fsp = make([]float64, 3*o.mod.ns)
	return nil
}

func (o *springCoupling) Eval() error {
	out, _, err := o.mod.Solve(o.fs.Val)
	if err != nil {
		return err
	}
	copy(o.us.Val, out)
	copy(o.fsp, o.fs.Val)
	return nil
}

func (o *springCoupling) ApplyLinear(mode string, sds *cpl.Seeds) error {

	// re-anchor the module at this unit's linearisation point
	if _, _, err := o.mod.Solve(o.fsp); err != nil {
		return err
	}
	switch mode {
	case cpl.Fwd:
		if dfs := sds.Get(cpl.KeyFStruct); dfs != nil {
			return o.mod.ApplyJacobian(cpl.Fwd, dfs, sds.Of(o.us))
		}
	case cpl.Rev:
		if ubar := sds.Get(cpl.KeyUStruct); ubar != nil {
			return o.mod.ApplyJacobian(cpl.Rev, sds.Of(o.fs), ubar)
		}
	default:
		return chk.Err("unit %q: unknown linear mode %q", o.Name(), mode)
	}
	return nil
}

// springPost computes mass and the aggregated failure criterion
//  mass   = Σ |x0_{k+1} - x0_k|                    (unit line density)
//  ksfail = KS(σ_k/σ_allow - 1)   σ_k = |f_k|
type springPost struct {
	mod *Spring

	// bound variables
	xs0, fs, mass, ks *cpl.Variable

	// linearisation point
	xsp []float64
	fsp []float64
}

func (o *springPost) Name() string { return cpl.UnitPostStruct }
func (o *springPost) Inputs() []cpl.VarSpec {
	return []cpl.VarSpec{
		{Name: cpl.KeyXStruct, Length: 3 * o.mod.ns, Width: 3, Units: "m"},
		{Name: cpl.KeyFStruct, Length: 3 * o.mod.ns, Width: 3, Units: "N"},
	}
}
func (o *springPost) Outputs() []cpl.VarSpec {
	return []cpl.VarSpec{
		{Name: FnMass, Length: 1, Width: 1, Units: "kg"},
		{Name: FnKsFail, Length: 1, Width: 1},
	}
}
func (o *springPost) Bind(sol *cpl.Solution) error {
	o.xs0 = sol.Get(cpl.KeyXStruct)
	o.fs = sol.Get(cpl.KeyFStruct)
	o.mass = sol.Get(FnMass)
	o.ks = sol.Get(FnKsFail)
	if o.xs0 == nil || o.fs == nil || o.mass == nil || o.ks == nil {
		return chk.Err("unit %q: missing coupling variables in scenario %q", o.Name(), sol.Scenario)
	}
	o.xsp = make([]float64, 3*o.mod.ns)
	o.fsp = make([]float64, 3*o.mod.ns)
	return nil
}

func (o *springPost) Eval() error {
	o.mass.Val[0] = o.mod.massOf(o.xs0.Val)
	o.ks.Val[0] = o.mod.ksOf(o.fs.Val)
	copy(o.xsp, o.xs0.Val)
	copy(o.fsp, o.fs.Val)
	return nil
}

func (o *springPost) ApplyLinear(mode string, sds *cpl.Seeds) error {
	switch mode {
	case cpl.Fwd:
		dmass := sds.Of(o.mass)
		dks := sds.Of(o.ks)
		if dxs := sds.Get(cpl.KeyXStruct); dxs != nil {
			dmass[0] += o.mod.massDot(o.xsp, dxs)
		}
		if dfs := sds.Get(cpl.KeyFStruct); dfs != nil {
			dks[0] += o.mod.ksDot(o.fsp, dfs)
		}
	case cpl.Rev:
		mbar := sds.Get(FnMass)
		kbar := sds.Get(FnKsFail)
		if mbar != nil {
			o.mod.massBar(o.xsp, mbar[0], sds.Of(o.xs0))
		}
		if kbar != nil {
			o.mod.ksBar(o.fsp, kbar[0], sds.Of(o.fs))
		}
	default:
		return chk.Err("unit %q: unknown linear mode %q", o.Name(), mode)
	}
	return nil
}
