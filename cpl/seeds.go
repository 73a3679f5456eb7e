// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

// Seeds holds directional values (tangent mode) or adjoint accumulators
// (reverse mode) for coupling variables, keyed by variable name. A
// missing entry means a zero seed. Fixed entries are the given data of
// one linear solve (design-variable perturbations in tangent mode,
// function seeds in reverse mode) and are never cleared by the sweeps.
type Seeds struct {
	D     map[string][]float64 // seed values
	Fixed map[string]bool      // entries not cleared by solver sweeps
}

// NewSeeds returns a new Seeds store
func NewSeeds() *Seeds {
	return &Seeds{D: make(map[string][]float64), Fixed: make(map[string]bool)}
}

// Get returns the seed of a variable; nil if unset (zero seed)
func (o *Seeds) Get(name string) []float64 {
	return o.D[name]
}

// Of returns the seed of a variable, allocating a zero seed if unset
func (o *Seeds) Of(v *Variable) []float64 {
	if d, ok := o.D[v.Name]; ok {
		return d
	}
	d := make([]float64, v.Length)
	o.D[v.Name] = d
	return d
}

// SetFixed sets a given seed and protects it from sweep clearing
func (o *Seeds) SetFixed(name string, vals []float64) {
	o.D[name] = vals
	o.Fixed[name] = true
}

// ZeroVar clears the seed of one variable unless it is fixed
func (o *Seeds) ZeroVar(name string) {
	if o.Fixed[name] {
		return
	}
	if d, ok := o.D[name]; ok {
		for i := range d {
			d[i] = 0
		}
	}
}

// ZeroAll clears all non-fixed seeds
func (o *Seeds) ZeroAll() {
	for name := range o.D {
		o.ZeroVar(name)
	}
}
