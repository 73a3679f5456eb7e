// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xfer

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/gm"

	"github.com/mfkiwl/mphys/inp"
)

// Meld implements a displacement/load transfer scheme based on normalised
// Gaussian weighting of the nnear nearest structural nodes of each
// aerodynamic node:
//
//   w[i][j] = exp(-β·d²[i][j]) / Σ_k exp(-β·d²[i][k])
//
//   xa[i] = xa0[i] + Σ_j w[i][j]·us[j]      (displacement transfer)
//   fs[j] = Σ_i w[i][j]·fa[i]               (load transfer)
//
// The load transfer is the transpose of the displacement transfer with the
// same weights, hence virtual work us·fs == ua·fa is conserved exactly.
// Weights are evaluated in the log domain, shifted by the nearest
// neighbour distance, so large β cannot underflow the normalisation.
type Meld struct {

	// parameters
	beta  float64 // decay coefficient
	nnear int     // number of nearest structural nodes per aero node
	isym  int     // symmetry plane {1,2,3}; 0 => none
	eps   float64 // regularisation for degenerate node sets

	// transfer map (built for one mesh pair)
	built  bool        // Build has run
	na     int         // number of aerodynamic nodes
	ns     int         // number of structural nodes
	nse    int         // number of structural nodes incl. reflected ghosts
	xa0    []float64   // [3*na] reference aerodynamic coordinates
	xs0    []float64   // [3*ns] reference structural coordinates
	xse    []float64   // [3*nse] extended structural coordinates
	jlists [][]int     // [na][nnear] neighbour indices into extended set
	wgts   [][]float64 // [na][nnear] weights
	dwgts  [][]float64 // [na][nnear] exp(-β·(d²-d²min))/S, for the operators
	keyA   uint64      // identity of aerodynamic mesh the map was built from
	keyS   uint64      // identity of structural mesh the map was built from
	bins   gm.Bins     // spatial bins over extended structural nodes

	// linearisation point
	us []float64 // [3*ns] last transferred displacements
	fa []float64 // [3*na] last transferred loads
}

// Init sets parameters
func (o *Meld) Init(prms *inp.XferData) error {
	o.beta = prms.Beta
	o.nnear = prms.Nnear
	o.isym = prms.Isym
	o.eps = prms.Eps
	if o.beta <= 0 {
		return chk.Err("meld: beta must be positive; %g given", o.beta)
	}
	if o.isym < 0 || o.isym > 3 {
		return chk.Err("meld: isym must be in {0,1,2,3}; %d given", o.isym)
	}
	return nil
}

// Build precomputes the transfer map for one mesh pair. Must be called
// again whenever either mesh moves; the map records the identity of the
// meshes it was built from and refuses to operate on any other pair.
func (o *Meld) Build(xa0, xs0 []float64) (err error) {

	// check
	if len(xa0)%3 != 0 || len(xs0)%3 != 0 {
		return chk.Err("meld: coordinates must have 3 components per node; len(xa0)=%d len(xs0)=%d", len(xa0), len(xs0))
	}
	o.na = len(xa0) / 3
	o.ns = len(xs0) / 3
	if o.na < 1 || o.ns < 1 {
		return chk.Err("meld: meshes must be non-empty; na=%d ns=%d", o.na, o.ns)
	}

	// copy reference meshes
	o.xa0 = make([]float64, len(xa0))
	o.xs0 = make([]float64, len(xs0))
	copy(o.xa0, xa0)
	copy(o.xs0, xs0)
	o.keyA = meshkey(xa0)
	o.keyS = meshkey(xs0)

	// extended structural set: ghosts reflected across symmetry plane
	o.nse = o.ns
	if o.isym > 0 {
		o.nse = 2 * o.ns
	}
	o.xse = make([]float64, 3*o.nse)
	copy(o.xse, o.xs0)
	if o.isym > 0 {
		ax := o.isym - 1
		for j := 0; j < o.ns; j++ {
			for k := 0; k < 3; k++ {
				o.xse[3*(o.ns+j)+k] = o.xs0[3*j+k]
			}
			o.xse[3*(o.ns+j)+ax] = -o.xs0[3*j+ax]
		}
	}

	// spatial bins over extended structural nodes (+ aero nodes for limits)
	xi := []float64{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64}
	xf := []float64{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64}
	for j := 0; j < o.nse; j++ {
		for k := 0; k < 3; k++ {
			xi[k] = math.Min(xi[k], o.xse[3*j+k])
			xf[k] = math.Max(xf[k], o.xse[3*j+k])
		}
	}
	for i := 0; i < o.na; i++ {
		for k := 0; k < 3; k++ {
			xi[k] = math.Min(xi[k], o.xa0[3*i+k])
			xf[k] = math.Max(xf[k], o.xa0[3*i+k])
		}
	}
	δ := 1e-8
	for k := 0; k < 3; k++ {
		δ = math.Max(δ, 1e-3*(xf[k]-xi[k]))
	}
	for k := 0; k < 3; k++ {
		xi[k] -= δ
		xf[k] += δ
	}
	o.bins.Init(xi, xf, []int{binsNdiv, binsNdiv, binsNdiv})
	for j := 0; j < o.nse; j++ {
		o.bins.Append(o.xse[3*j:3*j+3], j, nil)
	}

	// neighbour count
	nn := o.nnear
	if nn < 1 || nn > o.nse {
		nn = o.nse
	}

	// weights
	o.jlists = make([][]int, o.na)
	o.wgts = make([][]float64, o.na)
	o.dwgts = make([][]float64, o.na)
	d2 := make([]float64, nn)
	for i := 0; i < o.na; i++ {

		// nnear nearest, via the bins
		o.jlists[i] = make([]int, nn)
		o.nearest(o.xa0[3*i:3*i+3], nn, o.jlists[i], d2)

		// normalised weights in the log domain, shifted by the nearest
		// squared distance
		d2min := d2[0]
		o.wgts[i] = make([]float64, nn)
		o.dwgts[i] = make([]float64, nn)
		S := 0.0
		for q := 0; q < nn; q++ {
			e := math.Exp(-o.beta * (d2[q] - d2min))
			o.dwgts[i][q] = e
			o.wgts[i][q] = e + o.eps
			S += e + o.eps
		}
		for q := 0; q < nn; q++ {
			o.wgts[i][q] /= S
			o.dwgts[i][q] /= S
		}
	}

	// reset linearisation point
	o.us = nil
	o.fa = nil
	o.built = true
	return
}

// nearest fills jlist and d2list (both of length nn <= nse) with the nn
// nearest extended structural nodes of point x, sorted by ascending
// squared distance. Square rings of bins are expanded outwards from the
// cell of x until no unvisited ring can hold a closer node than the
// worst one kept.
func (o *Meld) nearest(x []float64, nn int, jlist []int, d2list []float64) {
	nd := o.bins.Ndiv
	var c [3]int
	maxr := 0
	for k := 0; k < 3; k++ {
		c[k] = int((x[k] - o.bins.Xmin[k]) / o.bins.Size[k])
		if c[k] < 0 {
			c[k] = 0
		}
		if c[k] >= nd[k] {
			c[k] = nd[k] - 1
		}
		if c[k] > maxr {
			maxr = c[k]
		}
		if nd[k]-1-c[k] > maxr {
			maxr = nd[k] - 1 - c[k]
		}
	}
	smin := math.Min(o.bins.Size[0], math.Min(o.bins.Size[1], o.bins.Size[2]))
	count := 0
	for r := 0; r <= maxr; r++ {

		// a node in ring r sits at least (r-1)·smin away from x
		if count >= nn {
			gap := float64(r-1) * smin
			if gap > 0 && gap*gap >= d2list[nn-1] {
				break
			}
		}
		for di := -r; di <= r; di++ {
			i := c[0] + di
			if i < 0 || i >= nd[0] {
				continue
			}
			for dj := -r; dj <= r; dj++ {
				j := c[1] + dj
				if j < 0 || j >= nd[1] {
					continue
				}
				for dk := -r; dk <= r; dk++ {
					if maxAbs3(di, dj, dk) != r {
						continue
					}
					k := c[2] + dk
					if k < 0 || k >= nd[2] {
						continue
					}
					bin := o.bins.FindBinByIndex(i + j*nd[0] + k*nd[0]*nd[1])
					if bin == nil {
						continue
					}
					for _, entry := range bin.Entries {
						d2 := dist2(x, entry.X)
						if count < nn {
							jlist[count], d2list[count] = entry.ID, d2
							count++
						} else if d2 < d2list[nn-1] {
							jlist[nn-1], d2list[nn-1] = entry.ID, d2
						} else {
							continue
						}
						for q := count - 1; q > 0 && d2list[q] < d2list[q-1]; q-- {
							jlist[q], jlist[q-1] = jlist[q-1], jlist[q]
							d2list[q], d2list[q-1] = d2list[q-1], d2list[q]
						}
					}
				}
			}
		}
	}
}

// Ready tells whether Build has run
func (o *Meld) Ready() bool { return o.built }

// Verify fails if the given meshes differ from the pair the map was built
// from. Callers must invoke this before transferring whenever reference
// coordinates may have moved; stale-map reuse is silently wrong otherwise.
func (o *Meld) Verify(xa0, xs0 []float64) error {
	if !o.built {
		return chk.Err("meld: transfer map has not been built")
	}
	if meshkey(xa0) != o.keyA || meshkey(xs0) != o.keyS {
		return chk.Err("meld: stale transfer map: meshes changed since Build; rebuild is required")
	}
	return nil
}

// TransferDisps computes xa = xa0 + W·us and records us as the
// linearisation point
func (o *Meld) TransferDisps(us, xa []float64) (err error) {
	if !o.built {
		return chk.Err("meld: transfer map has not been built")
	}
	if len(us) != 3*o.ns || len(xa) != 3*o.na {
		return chk.Err("meld: wrong vector lengths: len(us)=%d (need %d), len(xa)=%d (need %d)", len(us), 3*o.ns, len(xa), 3*o.na)
	}
	var v [3]float64
	for i := 0; i < o.na; i++ {
		for k := 0; k < 3; k++ {
			xa[3*i+k] = o.xa0[3*i+k]
		}
		for q, j := range o.jlists[i] {
			o.reflect(j, us, &v)
			for k := 0; k < 3; k++ {
				xa[3*i+k] += o.wgts[i][q] * v[k]
			}
		}
	}
	if o.us == nil {
		o.us = make([]float64, 3*o.ns)
	}
	copy(o.us, us)
	return
}

// TransferLoads computes fs = Wᵀ·fa and records fa as the linearisation
// point. The same weights as TransferDisps are used, thus virtual work is
// conserved exactly.
func (o *Meld) TransferLoads(fa, fs []float64) (err error) {
	if !o.built {
		return chk.Err("meld: transfer map has not been built")
	}
	if len(fa) != 3*o.na || len(fs) != 3*o.ns {
		return chk.Err("meld: wrong vector lengths: len(fa)=%d (need %d), len(fs)=%d (need %d)", len(fa), 3*o.na, len(fs), 3*o.ns)
	}
	for j := 0; j < 3*o.ns; j++ {
		fs[j] = 0
	}
	for i := 0; i < o.na; i++ {
		for q, j := range o.jlists[i] {
			p, sax := o.parent(j)
			for k := 0; k < 3; k++ {
				s := 1.0
				if k == sax {
					s = -1
				}
				fs[3*p+k] += o.wgts[i][q] * s * fa[3*i+k]
			}
		}
	}
	if o.fa == nil {
		o.fa = make([]float64, 3*o.na)
	}
	copy(o.fa, fa)
	return
}

// ApplyLinear applies the linearisation of both transfer maps about the
// last transferred fields.
//  mode == "fwd": s.Xa and s.Fs are incremented by J times the input seeds
//  mode == "rev": input seeds are incremented by Jᵀ times s.Xa and s.Fs
// The weight dependence on xa0 and xs0 is included, with the
// regularisation and the log-domain shift differentiated exactly. Cost is
// proportional to na·nnear, the same as the forward maps.
func (o *Meld) ApplyLinear(mode string, s *Seeds) (err error) {
	if !o.built {
		return chk.Err("meld: transfer map has not been built")
	}
	switch mode {
	case "fwd":
		return o.applyFwd(s)
	case "rev":
		return o.applyRev(s)
	}
	return chk.Err("meld: unknown linear mode %q", mode)
}

// applyFwd implements the tangent operator
func (o *Meld) applyFwd(s *Seeds) (err error) {
	needW := s.Xa0 != nil || s.Xs0 != nil
	a := make([]float64, 0, 8)
	dw := make([]float64, 0, 8)
	var v, dv [3]float64
	for i := 0; i < o.na; i++ {

		// weight directional derivatives. With e_q = exp(-β·(d²_q-d²min))
		// and w_q = (e_q+eps)/S the exact tangent is
		//   δw_q = (e_q/S)·b_q - w_q·Σ_k (e_k/S)·b_k
		// where b_q is the directional derivative of -β·(d²_q-d²min) and
		// d²min tracks the nearest neighbour (q=0)
		dw = dw[:0]
		if needW {
			a = a[:0]
			for _, j := range o.jlists[i] {
				aij := 0.0
				p, sax := o.parent(j)
				for k := 0; k < 3; k++ {
					r := o.xa0[3*i+k] - o.xse[3*j+k]
					if s.Xa0 != nil {
						aij += -o.beta * 2 * r * s.Xa0[3*i+k]
					}
					if s.Xs0 != nil {
						sk := 1.0
						if k == sax {
							sk = -1
						}
						aij += o.beta * 2 * r * sk * s.Xs0[3*p+k]
					}
				}
				a = append(a, aij)
			}
			var t float64
			for q := range o.jlists[i] {
				t += o.dwgts[i][q] * (a[q] - a[0])
			}
			for q := range o.jlists[i] {
				dw = append(dw, o.dwgts[i][q]*(a[q]-a[0])-o.wgts[i][q]*t)
			}
		}

		// deformed surface
		if s.Xa != nil {
			if s.Xa0 != nil {
				for k := 0; k < 3; k++ {
					s.Xa[3*i+k] += s.Xa0[3*i+k]
				}
			}
			for q, j := range o.jlists[i] {
				if s.Us != nil {
					o.reflect(j, s.Us, &dv)
					for k := 0; k < 3; k++ {
						s.Xa[3*i+k] += o.wgts[i][q] * dv[k]
					}
				}
				if needW && o.us != nil {
					o.reflect(j, o.us, &v)
					for k := 0; k < 3; k++ {
						s.Xa[3*i+k] += dw[q] * v[k]
					}
				}
			}
		}

		// structural loads
		if s.Fs != nil {
			for q, j := range o.jlists[i] {
				p, sax := o.parent(j)
				for k := 0; k < 3; k++ {
					sk := 1.0
					if k == sax {
						sk = -1
					}
					if s.Fa != nil {
						s.Fs[3*p+k] += o.wgts[i][q] * sk * s.Fa[3*i+k]
					}
					if needW && o.fa != nil {
						s.Fs[3*p+k] += dw[q] * sk * o.fa[3*i+k]
					}
				}
			}
		}
	}
	return
}

// applyRev implements the adjoint operator
func (o *Meld) applyRev(s *Seeds) (err error) {
	needW := s.Xa0 != nil || s.Xs0 != nil
	sv := make([]float64, 0, 8)
	ec := make([]float64, 0, 8)
	var v [3]float64
	for i := 0; i < o.na; i++ {

		// direct (weight-frozen) terms
		for q, j := range o.jlists[i] {
			p, sax := o.parent(j)
			for k := 0; k < 3; k++ {
				sk := 1.0
				if k == sax {
					sk = -1
				}
				if s.Us != nil && s.Xa != nil {
					s.Us[3*p+k] += o.wgts[i][q] * sk * s.Xa[3*i+k]
				}
				if s.Fa != nil && s.Fs != nil {
					s.Fa[3*i+k] += o.wgts[i][q] * sk * s.Fs[3*p+k]
				}
			}
		}

		// weight sensitivities: the adjoint of the tangent in applyFwd.
		// The coefficient of b_q is (e_q/S)·(sv_q - t) with t = Σ_k w_k·sv_k;
		// the nearest neighbour (q=0) additionally carries minus the sum of
		// all coefficients, from the d²min shift
		if !needW {
			continue
		}
		var t float64
		sv = sv[:0]
		for q, j := range o.jlists[i] {
			p, sax := o.parent(j)
			sij := 0.0
			if o.us != nil && s.Xa != nil {
				o.reflect(j, o.us, &v)
				for k := 0; k < 3; k++ {
					sij += v[k] * s.Xa[3*i+k]
				}
			}
			if o.fa != nil && s.Fs != nil {
				for k := 0; k < 3; k++ {
					sk := 1.0
					if k == sax {
						sk = -1
					}
					sij += sk * o.fa[3*i+k] * s.Fs[3*p+k]
				}
			}
			sv = append(sv, sij)
			t += o.wgts[i][q] * sij
		}
		ec = ec[:0]
		var esum float64
		for q := range o.jlists[i] {
			e := o.dwgts[i][q] * (sv[q] - t)
			ec = append(ec, e)
			esum += e
		}
		ec[0] -= esum
		for q, j := range o.jlists[i] {
			p, sax := o.parent(j)
			c := -o.beta * ec[q]
			for k := 0; k < 3; k++ {
				r := o.xa0[3*i+k] - o.xse[3*j+k]
				if s.Xa0 != nil {
					s.Xa0[3*i+k] += c * 2 * r
				}
				if s.Xs0 != nil {
					sk := 1.0
					if k == sax {
						sk = -1
					}
					s.Xs0[3*p+k] += -c * 2 * r * sk
				}
			}
		}
	}

	// identity part of the displacement transfer
	if s.Xa0 != nil && s.Xa != nil {
		for i := 0; i < 3*o.na; i++ {
			s.Xa0[i] += s.Xa[i]
		}
	}
	return
}

// auxiliary //////////////////////////////////////////////////////////////////////////////////////

// parent returns the structural node owning extended node j and the axis
// with flipped sign (-1 if none)
func (o *Meld) parent(j int) (p, sax int) {
	if j < o.ns {
		return j, -1
	}
	return j - o.ns, o.isym - 1
}

// reflect copies the 3 components of node j's value from a structural
// field, negating the symmetry axis component for ghost nodes
func (o *Meld) reflect(j int, field []float64, v *[3]float64) {
	p, sax := o.parent(j)
	for k := 0; k < 3; k++ {
		v[k] = field[3*p+k]
	}
	if sax >= 0 {
		v[sax] = -v[sax]
	}
}

// dist2 returns the squared distance between two points
func dist2(a, b []float64) (d2 float64) {
	for k := 0; k < 3; k++ {
		d2 += (a[k] - b[k]) * (a[k] - b[k])
	}
	return
}

// maxAbs3 returns the largest absolute value of three integers
func maxAbs3(a, b, c int) (m int) {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if c < 0 {
		c = -c
	}
	m = a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return
}

// meshkey returns the identity key of a nodal coordinates array
func meshkey(x []float64) uint64 {
	h := fnv.New64a()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(len(x)))
	h.Write(b[:])
	for _, v := range x {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		h.Write(b[:])
	}
	return h.Sum64()
}

// binsNdiv is the number of divisions of the spatial bins
var binsNdiv = 20

// add "meld" to database of transfer schemes
func init() {
	SetAllocator("meld", func() Scheme { return new(Meld) })
}
