// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package xfer implements transfer schemes mapping state between two
// non-matching discipline meshes while conserving virtual work
package xfer

import (
	"github.com/cpmech/gosl/chk"

	"github.com/mfkiwl/mphys/inp"
)

// Seeds holds directional (forward) or adjoint (reverse) values for the
// variables touched by a transfer scheme. Nil slices mean zero seeds.
type Seeds struct {

	// inputs of the nonlinear maps
	Us  []float64 // structural displacements [3*ns]
	Xa0 []float64 // reference aerodynamic coordinates [3*na]
	Xs0 []float64 // reference structural coordinates [3*ns]
	Fa  []float64 // aerodynamic loads [3*na]

	// outputs of the nonlinear maps
	Xa []float64 // deformed aerodynamic coordinates [3*na]
	Fs []float64 // structural loads [3*ns]
}

// Scheme defines the contract of transfer schemes. The forward maps are
//   TransferDisps:  xa = xa0 + W(xa0,xs0) us
//   TransferLoads:  fs = Wᵀ(xa0,xs0) fa
// and ApplyLinear gives the action of the full linearisation (and its
// transpose) about the last transferred fields, including the dependence
// of the weights on both reference meshes.
type Scheme interface {
	Init(prms *inp.XferData) error        // set parameters
	Build(xa0, xs0 []float64) error       // precompute the transfer map for one mesh pair
	Ready() bool                          // whether Build has run
	Verify(xa0, xs0 []float64) error      // fail if meshes differ from the ones the map was built from
	TransferDisps(us, xa []float64) error // displacement transfer
	TransferLoads(fa, fs []float64) error // load transfer (adjoint-consistent)
	ApplyLinear(mode string, s *Seeds) error // "fwd": outputs += J·inputs; "rev": inputs += Jᵀ·outputs
}

// New returns a new transfer scheme from the factory
func New(typ string) (scheme Scheme, err error) {
	allocator, ok := allocators[typ]
	if !ok {
		return nil, chk.Err("transfer scheme %q is not available in database", typ)
	}
	return allocator(), nil
}

// SetAllocator sets a new callback function to allocate a transfer scheme
func SetAllocator(typ string, fcn func() Scheme) {
	if _, ok := allocators[typ]; ok {
		chk.Panic("cannot set allocator function for %q because scheme name exists already", typ)
	}
	allocators[typ] = fcn
}

// allocators holds all available transfer schemes
var allocators = map[string]func() Scheme{}
