// Copyright 2016 The Mphys Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/gosl/utl"

	"github.com/mfkiwl/mphys/mdo"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			if mpi.WorldRank() == 0 {
				io.Pfred("\nERROR: %v", err)
				io.Pf("See location of error below:\n")
				chk.Verbose = true
				for i := 5; i > 3; i-- {
					chk.CallerInfo(i)
				}
			}
		}
		mpi.Stop()
	}()
	mpi.Start()

	// read input parameters
	fnamepath, _ := io.ArgToFilename(0, "", ".mph", true)
	verbose := io.ArgToBool(1, true)
	showDeriv := io.ArgToBool(2, false)
	doprof := io.ArgToInt(3, 0)

	// message
	if mpi.WorldRank() == 0 && verbose {
		io.PfWhite("\nMphys -- Coupled Aerostructural Analysis\n")
		io.Pf("Copyright 2016 The Mphys Authors. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n")

		io.Pf("\n%v\n", io.ArgsTable("INPUT ARGUMENTS",
			"filename path", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
			"compute total derivatives", "showDeriv", showDeriv,
			"profiling: 0=none 1=CPU 2=MEM", "doprof", doprof,
		))
	}

	// profiling?
	if doprof > 0 {
		defer utl.Prof(doprof == 2, false)()
	}

	// analysis
	analysis := mdo.NewMain(fnamepath, verbose && mpi.WorldRank() == 0, 0)

	// solve all scenarios
	err := analysis.Run()
	if err != nil {
		chk.Panic("Run failed:\n%v", err)
	}

	// report functions
	if mpi.WorldRank() == 0 {
		funcs, err := analysis.AllFunctions()
		if err != nil {
			chk.Panic("cannot collect functions:\n%v", err)
		}
		io.Pf("\nfunctions:\n")
		analysis.PrintFunctions(funcs)

		// total derivatives via the adjoint solver
		if showDeriv {
			der, err := analysis.Gradients("rev")
			if err != nil {
				chk.Panic("Gradients failed:\n%v", err)
			}
			io.Pf("\ntotal derivatives:\n")
			for _, fk := range analysis.FuncNames() {
				for _, dv := range analysis.Sim.DesVars {
					io.Pf("  d(%s)/d(%s) = %23.15e\n", fk, dv.Name, der[fk][dv.Name])
				}
			}
		}
	}
}
