// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpl

// names of the coupling variables of an aerostructural scenario
const (
	KeyXAero0  = "x_aero0"  // reference aerodynamic surface coordinates
	KeyXStruct = "x_struct0" // reference structural coordinates
	KeyXAero   = "x_aero"   // deformed aerodynamic surface coordinates
	KeyUStruct = "u_struct" // structural displacements
	KeyFAero   = "f_aero"   // aerodynamic surface loads
	KeyFStruct = "f_struct" // structural loads
	KeyAoa     = "aoa"      // angle of attack
	KeyQinf    = "q_inf"    // dynamic pressure
)

// names of the units of an aerostructural scenario
const (
	UnitDvs        = "dvs"             // independent condition variables
	UnitMeshAero   = "mesh_aero"       // aerodynamic mesh
	UnitMeshStruct = "mesh_struct"     // structural mesh
	UnitDispXfer   = "disp_xfer"       // displacement transfer
	UnitLoadXfer   = "load_xfer"       // load transfer
	UnitCplAero    = "coupling_aero"   // aerodynamic state update
	UnitCplStruct  = "coupling_struct" // structural state update
	UnitPostAero   = "post_aero"       // aerodynamic functions
	UnitPostStruct = "post_struct"     // structural functions
)

// linear operator modes
const (
	Fwd = "fwd" // tangent (forward) mode
	Rev = "rev" // adjoint (reverse) mode
)
