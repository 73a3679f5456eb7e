// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.mph) JSON file
package inp

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Data holds global data for coupled simulations
type Data struct {
	Desc    string `json:"desc"`    // description of simulation
	DirOut  string `json:"dirout"`  // directory for output; e.g. /tmp/mphys
	ListVar bool   `json:"listvar"` // list coupling variables after assembling scenarios
}

// SolverData holds nonlinear and linear coupling solver data
type SolverData struct {

	// nonlinear block Gauss-Seidel
	Type    string  `json:"type"`    // coupling solver type; e.g. "gs" => block Gauss-Seidel
	NmaxIt  int     `json:"nmaxit"`  // number of max coupling iterations
	Atol    float64 `json:"atol"`    // absolute tolerance on state-change norm
	Rtol    float64 `json:"rtol"`    // relative tolerance on state-change norm
	ShowR   bool    `json:"showr"`   // show residual at each coupling iteration
	DvgCtrl bool    `json:"dvgctrl"` // use divergence control
	NdvgMax int     `json:"ndvgmax"` // max number of consecutive residual increases before declaring divergence

	// Aitken relaxation
	Aitken   bool    `json:"aitken"`   // use Aitken Δ² relaxation
	OmegaIni float64 `json:"omegaini"` // initial relaxation factor
	OmegaMin float64 `json:"omegamin"` // minimum relaxation factor
	OmegaMax float64 `json:"omegamax"` // maximum relaxation factor

	// linear (tangent/adjoint) solver
	LinNmaxIt int     `json:"linnmaxit"` // max iterations of linearised coupling solver
	LinAtol   float64 `json:"linatol"`   // absolute tolerance on linear residual
	LinRtol   float64 `json:"linrtol"`   // relative tolerance on linear residual

	// startup
	QRampFcn string `json:"qrampfcn"` // function (from database) ramping loads during startup; "none" => disabled
	NitRamp  int    `json:"nitramp"`  // number of startup iterations over which the ramp function is applied
}

// XferData holds transfer scheme data
type XferData struct {
	Type  string  `json:"type"`  // transfer scheme type; e.g. "meld"
	Nnear int     `json:"nnear"` // number of nearest structural nodes per aerodynamic node; 0 => all
	Beta  float64 `json:"beta"`  // decay coefficient of weighting kernel
	Isym  int     `json:"isym"`  // symmetry plane {1,2,3} => {x,y,z}; 0 => no symmetry
	Eps   float64 `json:"eps"`   // regularisation for coincident/duplicate nodes
}

// DiscData holds discipline data
type DiscData struct {

	// input data
	Name    string `json:"name"`    // name of discipline; e.g. "aero", "struct"
	Type    string `json:"type"`    // type of builder; e.g. "panel", "spring"
	Nnodes  int    `json:"nnodes"`  // number of coupling nodes
	Ndof    int    `json:"ndof"`    // number of degrees of freedom per node
	Mshfile string `json:"mshfile"` // file path of file with mesh coordinates; "" => generated

	// surrogate model parameters
	Eps3   float64 `json:"eps3"`   // cubic nonlinearity of load model
	Kstiff float64 `json:"kstiff"` // spring stiffness
	Gamma  float64 `json:"gamma"`  // cubic softening of springs
	Sref   float64 `json:"sref"`   // reference area for force coefficients
	Sigall float64 `json:"sigall"` // allowable stress for failure aggregation
}

// ScnData holds scenario (operating condition) data
type ScnData struct {
	Name string  `json:"name"` // name of scenario; e.g. "cruise", "maneuver"
	Aoa  float64 `json:"aoa"`  // angle of attack for this condition
	Qinf float64 `json:"qinf"` // dynamic pressure for this condition
	Skip bool    `json:"skip"` // do not run scenario
}

// DvData holds design variable data
type DvData struct {
	Name  string  `json:"name"`  // variable name; e.g. "cruise.aoa"
	Val   float64 `json:"val"`   // initial value
	Lower float64 `json:"lower"` // lower bound
	Upper float64 `json:"upper"` // upper bound
	Scale float64 `json:"scale"` // scaling factor for the optimizer
	Units string  `json:"units"` // units tag; e.g. "deg", "Pa"
}

// Simulation holds all simulation data
type Simulation struct {

	// input
	Data      Data        `json:"data"`      // global data
	Functions FuncsData   `json:"functions"` // all functions
	Solver    SolverData  `json:"solver"`    // coupling solver data
	Xfer      XferData    `json:"xfer"`      // transfer scheme data
	Disc      []*DiscData `json:"disc"`      // disciplines
	Scenarios []*ScnData  `json:"scenarios"` // operating conditions
	DesVars   []*DvData   `json:"desvars"`   // design variables

	// derived
	Key         string // simulation key; e.g. mysim01 if mysim01.mph
	DirIn       string // directory where .mph file is located
	GoroutineId int    // id of goroutine to avoid race problems when running tests concurrently
}

// ReadSim reads all simulation data from a .mph JSON file
func ReadSim(simfilepath string, verbose bool, goroutineId int) *Simulation {

	// new sim
	var o Simulation
	o.GoroutineId = goroutineId

	// read file
	b, err := os.ReadFile(simfilepath)
	if err != nil {
		chk.Panic("cannot read simulation file %q:\n%v", simfilepath, err)
	}

	// set paths
	o.DirIn = filepath.Dir(simfilepath)
	o.Key = fnkey(filepath.Base(simfilepath))

	// decode
	err = json.Unmarshal(b, &o)
	if err != nil {
		chk.Panic("cannot unmarshal simulation file %q:\n%v", simfilepath, err)
	}

	// default values
	o.SetDefaults()

	// validate
	err = o.Validate()
	if err != nil {
		chk.Panic("invalid simulation file %q:\n%v", simfilepath, err)
	}

	// message
	if verbose {
		io.Pf("> Simulation (.mph) file read: %s\n", o.Key)
	}
	return &o
}

// SetDefaults fills default values for zero entries
func (o *Simulation) SetDefaults() {

	// solver
	if o.Solver.Type == "" {
		o.Solver.Type = "gs"
	}
	if o.Solver.NmaxIt < 1 {
		o.Solver.NmaxIt = 25
	}
	if o.Solver.Atol <= 0 {
		o.Solver.Atol = 1e-14
	}
	if o.Solver.Rtol <= 0 {
		o.Solver.Rtol = 1e-14
	}
	if o.Solver.NdvgMax < 1 {
		o.Solver.NdvgMax = 4
	}
	if o.Solver.OmegaIni <= 0 {
		o.Solver.OmegaIni = 1.0
	}
	if o.Solver.OmegaMin <= 0 {
		o.Solver.OmegaMin = 0.25
	}
	if o.Solver.OmegaMax <= 0 {
		o.Solver.OmegaMax = 1.75
	}
	if o.Solver.LinNmaxIt < 1 {
		o.Solver.LinNmaxIt = o.Solver.NmaxIt
	}
	if o.Solver.LinAtol <= 0 {
		o.Solver.LinAtol = o.Solver.Atol
	}
	if o.Solver.LinRtol <= 0 {
		o.Solver.LinRtol = o.Solver.Rtol
	}
	if o.Solver.QRampFcn == "" {
		o.Solver.QRampFcn = "none"
	}
	if o.Solver.NitRamp < 1 {
		o.Solver.NitRamp = 5
	}

	// transfer scheme
	if o.Xfer.Type == "" {
		o.Xfer.Type = "meld"
	}
	if o.Xfer.Beta <= 0 {
		o.Xfer.Beta = 0.5
	}
	if o.Xfer.Eps <= 0 {
		o.Xfer.Eps = 1e-16
	}

	// disciplines
	for _, d := range o.Disc {
		if d.Ndof < 1 {
			d.Ndof = 3
		}
		if d.Sref <= 0 {
			d.Sref = 1.0
		}
	}

	// design variables
	for _, dv := range o.DesVars {
		if dv.Scale == 0 {
			dv.Scale = 1.0
		}
	}
}

// Validate checks consistency of input data
func (o *Simulation) Validate() (err error) {
	if len(o.Disc) < 2 {
		return chk.Err("at least two disciplines are required; %d given", len(o.Disc))
	}
	names := make(map[string]bool)
	for _, d := range o.Disc {
		if d.Name == "" || d.Type == "" {
			return chk.Err("discipline must have 'name' and 'type'; got {name=%q, type=%q}", d.Name, d.Type)
		}
		if names[d.Name] {
			return chk.Err("duplicate discipline named %q", d.Name)
		}
		names[d.Name] = true
		if d.Nnodes < 1 && d.Mshfile == "" {
			return chk.Err("discipline %q must have 'nnodes' or 'mshfile'", d.Name)
		}
	}
	if len(o.Scenarios) < 1 {
		return chk.Err("at least one scenario is required")
	}
	snames := make(map[string]bool)
	for _, s := range o.Scenarios {
		if s.Name == "" {
			return chk.Err("scenario must have 'name'")
		}
		if snames[s.Name] {
			return chk.Err("duplicate scenario named %q", s.Name)
		}
		snames[s.Name] = true
	}
	if o.Solver.OmegaMin > o.Solver.OmegaMax {
		return chk.Err("relaxation bounds are inconsistent: omegamin=%g > omegamax=%g", o.Solver.OmegaMin, o.Solver.OmegaMax)
	}
	return
}

// GetDiscipline returns discipline data by name; nil if not found
func (o *Simulation) GetDiscipline(name string) *DiscData {
	for _, d := range o.Disc {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// GetScenario returns scenario data by name; nil if not found
func (o *Simulation) GetScenario(name string) *ScnData {
	for _, s := range o.Scenarios {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// auxiliary //////////////////////////////////////////////////////////////////////////////////////

// fnkey returns the file name key; e.g. mysim01 if mysim01.mph
func fnkey(fn string) string {
	ext := filepath.Ext(fn)
	return fn[:len(fn)-len(ext)]
}
