// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Prm holds one scalar parameter of a function definition
type Prm struct {
	N string  `json:"n"` // name of parameter. ex: c, m, ta
	V float64 `json:"v"` // value of parameter
}

// Prms holds a set of parameters
type Prms []*Prm

// Find returns the value of a parameter or def if absent
func (o Prms) Find(name string, def float64) float64 {
	for _, p := range o {
		if p.N == name {
			return p.V
		}
	}
	return def
}

// Func defines a scalar ramp function of pseudo time. The space argument
// is accepted for interface compatibility and may be nil.
type Func interface {
	F(t float64, x []float64) float64
}

// FuncData holds function definition
type FuncData struct {
	Name string `json:"name"` // name of function. ex: zero, qramp, myfunction1, etc.
	Type string `json:"type"` // type of function. ex: cte, lin
	Prms Prms   `json:"prms"` // parameters
}

// FuncsData holds functions
type FuncsData []*FuncData

// Get returns function by name
func (o FuncsData) Get(name string) (fcn Func, err error) {
	if name == "zero" || name == "none" {
		fcn = &zeroFcn{}
		return
	}
	for _, f := range o {
		if f.Name == name {
			fcn, err = newFunc(f.Type, f.Prms)
			if err != nil {
				err = chk.Err("cannot get function named %q because of the following error:\n%v", name, err)
			}
			return
		}
	}
	err = chk.Err("cannot find function named %q\n", name)
	return
}

// newFunc allocates a function by type
func newFunc(typ string, prms Prms) (Func, error) {
	switch typ {
	case "cte":
		return &cteFcn{c: prms.Find("c", 0)}, nil
	case "lin":
		return &linFcn{m: prms.Find("m", 1), ta: prms.Find("ta", 0)}, nil
	case "zero":
		return &zeroFcn{}, nil
	}
	return nil, chk.Err("cannot find function type %q\n", typ)
}

// zeroFcn returns 0 for any time
type zeroFcn struct{}

func (o *zeroFcn) F(t float64, x []float64) float64 { return 0 }

// cteFcn returns a constant for any time
type cteFcn struct {
	c float64 // constant
}

func (o *cteFcn) F(t float64, x []float64) float64 { return o.c }

// linFcn returns m*(t-ta)
type linFcn struct {
	m  float64 // slope
	ta float64 // activation time
}

func (o *linFcn) F(t float64, x []float64) float64 {
	if t < o.ta {
		return 0
	}
	return o.m * (t - o.ta)
}

// auxiliary //////////////////////////////////////////////////////////////////////////////////////////

// String prints one parameter
func (o Prm) String() string {
	return io.Sf("{\"n\":%q, \"v\":%g}", o.N, o.V)
}

// String prints one function
func (o FuncData) String() string {
	l := io.Sf("    {\n      \"name\":%q, \"type\":%q, \"prms\" : [", o.Name, o.Type)
	for i, p := range o.Prms {
		if i > 0 {
			l += ", "
		}
		l += io.Sf("%v", p)
	}
	l += "]\n    }"
	return l
}

// String prints functions
func (o FuncsData) String() string {
	if len(o) == 0 {
		return "  \"functions\" : []"
	}
	l := "  \"functions\" : [\n"
	for i, f := range o {
		if i > 0 {
			l += ",\n"
		}
		l += io.Sf("%v", f)
	}
	l += "\n  ]"
	return l
}
