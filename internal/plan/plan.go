// Package plan compiles CUE plan files into executable step lists.
//
// A plan file declares a top-level plan struct with a list of steps,
// each dispatching to one toolkit operation:
//
//	plan: {
//		name: "surface analysis"
//		steps: [{
//			kind:         "grids"
//			wavefunction: "mol.fchk"
//			properties: ["esp"]
//		}, {
//			kind:         "charges"
//			wavefunction: "mol.fchk"
//			methods: ["hirshfeld", "mbis"]
//		}]
//	}
//
// Compilation is strict: unknown kinds, unknown fields, missing
// required fields and non-concrete values are all errors, reported
// with their CUE source position.
package plan

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Step kinds, matching the commands they dispatch to.
const (
	KindExtract = "extract"
	KindGrids   = "grids"
	KindCharges = "charges"
	KindConvert = "convert"
	KindRun     = "run"
)

// Step is one compiled plan entry. Which fields are meaningful depends
// on Kind; the compiler rejects fields outside the kind's set.
type Step struct {
	Kind string
	// Name labels the step in logs and errors. Defaults to the kind.
	Name string

	Input        string   // extract, convert
	Output       string   // extract, grids, charges, convert
	Format       string   // extract: npz, arrow or json
	Wavefunction string   // grids, charges, run
	Properties   []string // grids
	GridMode     string   // grids: 1 low, 2 medium, 3 high
	Methods      []string // charges
	Overwrite    bool     // convert
	Script       string   // run
	Args         []string // run: extra Multiwfn command line arguments
}

// Label returns the step's name, falling back to its kind.
func (s *Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Kind
}

// Plan is a compiled plan file.
type Plan struct {
	Name  string
	Steps []Step
	// File is the source path. Relative step paths resolve against its
	// directory. Empty for plans compiled from memory.
	File string
}

// Load reads and compiles a CUE plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	planVal := v.LookupPath(cue.ParsePath("plan"))
	if !planVal.Exists() {
		return nil, &CompileError{
			Field:   "plan",
			Message: "a top-level plan struct is required",
			Pos:     v.Pos(),
		}
	}

	p, err := Compile(planVal)
	if err != nil {
		return nil, err
	}
	p.File = path
	return p, nil
}
