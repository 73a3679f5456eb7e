// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

import (
	"github.com/cpmech/gosl/chk"

	"github.com/mfkiwl/mphys/inp"
)

// BuilderAllocator defines a function that allocates a discipline builder
type BuilderAllocator func(sim *inp.Simulation, disc *inp.DiscData) Builder

// NewBuilder returns a new discipline builder from the factory
func NewBuilder(sim *inp.Simulation, disc *inp.DiscData) (b Builder, err error) {
	fcn, ok := builderAllocators[disc.Type]
	if !ok {
		return nil, chk.Err("cannot find discipline builder type %q for discipline %q", disc.Type, disc.Name)
	}
	b = fcn(sim, disc)
	if b == nil {
		return nil, chk.Err("discipline builder {type=%q, name=%q} is not available", disc.Type, disc.Name)
	}
	return
}

// SetBuilderAllocator sets a new callback function to allocate a
// discipline builder
func SetBuilderAllocator(typ string, fcn BuilderAllocator) {
	if _, ok := builderAllocators[typ]; ok {
		chk.Panic("cannot set allocator function for %q because builder type exists already", typ)
	}
	builderAllocators[typ] = fcn
}

// builderAllocators holds all discipline builder allocators
var builderAllocators = make(map[string]BuilderAllocator)
