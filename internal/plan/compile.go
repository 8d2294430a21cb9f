package plan

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/wfnkit/wfnkit/internal/charges"
	"github.com/wfnkit/wfnkit/internal/grids"
)

// stepFields lists the accepted fields per step kind. Anything outside
// the kind's set is a compile error.
var stepFields = map[string]map[string]bool{
	KindExtract: {"kind": true, "name": true, "input": true, "output": true, "format": true},
	KindGrids:   {"kind": true, "name": true, "wavefunction": true, "properties": true, "grid_mode": true, "output": true},
	KindCharges: {"kind": true, "name": true, "wavefunction": true, "methods": true, "output": true},
	KindConvert: {"kind": true, "name": true, "input": true, "output": true, "overwrite": true},
	KindRun:     {"kind": true, "name": true, "script": true, "wavefunction": true, "args": true},
}

// Compile parses a CUE value into a Plan. The value should be the plan
// struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`plan: { steps: [...] }`)
//	p, err := Compile(v.LookupPath(cue.ParsePath("plan")))
func Compile(v cue.Value) (*Plan, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Plan{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Name = name
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{
			Field:   "steps",
			Message: "steps is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := stepsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		step, err := compileStep(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, *step)
	}
	if len(p.Steps) == 0 {
		return nil, &CompileError{
			Field:   "steps",
			Message: "at least one step is required",
			Pos:     stepsVal.Pos(),
		}
	}

	return p, nil
}

// compileStep parses and validates a single step struct.
func compileStep(v cue.Value, index int) (*Step, error) {
	field := func(name string) string {
		return fmt.Sprintf("steps[%d].%s", index, name)
	}

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{
			Field:   field("kind"),
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	allowed, ok := stepFields[kind]
	if !ok {
		return nil, &CompileError{
			Field:   field("kind"),
			Message: fmt.Sprintf("unknown step kind %q (choose extract, grids, charges, convert or run)", kind),
			Pos:     kindVal.Pos(),
		}
	}

	// Reject stray fields before reading anything else, so a typoed
	// field name fails even when the intended one has a default.
	fieldIter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for fieldIter.Next() {
		label := fieldIter.Label()
		if !allowed[label] {
			return nil, &CompileError{
				Field:   field(label),
				Message: fmt.Sprintf("field %q is not part of a %s step", label, kind),
				Pos:     fieldIter.Value().Pos(),
			}
		}
	}

	step := &Step{Kind: kind}
	if err := readString(v, "name", &step.Name); err != nil {
		return nil, err
	}

	switch kind {
	case KindExtract:
		if err := requireString(v, "input", field("input"), &step.Input); err != nil {
			return nil, err
		}
		if err := readString(v, "output", &step.Output); err != nil {
			return nil, err
		}
		if err := readString(v, "format", &step.Format); err != nil {
			return nil, err
		}
		switch step.Format {
		case "", "npz", "arrow", "json":
		default:
			return nil, &CompileError{
				Field:   field("format"),
				Message: fmt.Sprintf("unknown format %q (choose npz, arrow or json)", step.Format),
				Pos:     v.LookupPath(cue.ParsePath("format")).Pos(),
			}
		}

	case KindGrids:
		if err := requireString(v, "wavefunction", field("wavefunction"), &step.Wavefunction); err != nil {
			return nil, err
		}
		if err := requireStrings(v, "properties", field("properties"), &step.Properties); err != nil {
			return nil, err
		}
		for _, prop := range step.Properties {
			if !slices.Contains(grids.SupportedProperties(), prop) {
				return nil, &CompileError{
					Field:   field("properties"),
					Message: fmt.Sprintf("unsupported property %q (supported: %s)", prop, strings.Join(grids.SupportedProperties(), ", ")),
					Pos:     v.LookupPath(cue.ParsePath("properties")).Pos(),
				}
			}
		}
		if err := readString(v, "grid_mode", &step.GridMode); err != nil {
			return nil, err
		}
		switch step.GridMode {
		case "", "1", "2", "3":
		default:
			return nil, &CompileError{
				Field:   field("grid_mode"),
				Message: fmt.Sprintf("grid mode must be one of '1', '2' or '3', got %q", step.GridMode),
				Pos:     v.LookupPath(cue.ParsePath("grid_mode")).Pos(),
			}
		}
		if err := readString(v, "output", &step.Output); err != nil {
			return nil, err
		}

	case KindCharges:
		if err := requireString(v, "wavefunction", field("wavefunction"), &step.Wavefunction); err != nil {
			return nil, err
		}
		if err := requireStrings(v, "methods", field("methods"), &step.Methods); err != nil {
			return nil, err
		}
		for _, method := range step.Methods {
			if !slices.Contains(charges.SupportedMethods(), method) {
				return nil, &CompileError{
					Field:   field("methods"),
					Message: fmt.Sprintf("unsupported method %q (supported: %s)", method, strings.Join(charges.SupportedMethods(), ", ")),
					Pos:     v.LookupPath(cue.ParsePath("methods")).Pos(),
				}
			}
		}
		if err := readString(v, "output", &step.Output); err != nil {
			return nil, err
		}

	case KindConvert:
		if err := requireString(v, "input", field("input"), &step.Input); err != nil {
			return nil, err
		}
		if err := readString(v, "output", &step.Output); err != nil {
			return nil, err
		}
		if err := readBool(v, "overwrite", &step.Overwrite); err != nil {
			return nil, err
		}

	case KindRun:
		if err := requireString(v, "script", field("script"), &step.Script); err != nil {
			return nil, err
		}
		if err := requireString(v, "wavefunction", field("wavefunction"), &step.Wavefunction); err != nil {
			return nil, err
		}
		if err := readStrings(v, "args", &step.Args); err != nil {
			return nil, err
		}
	}

	return step, nil
}

// readString fills dst when the field exists.
func readString(v cue.Value, name string, dst *string) error {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return nil
	}
	s, err := val.String()
	if err != nil {
		return formatCUEError(err)
	}
	*dst = s
	return nil
}

// requireString fills dst and errors when the field is missing.
func requireString(v cue.Value, name, errField string, dst *string) error {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return &CompileError{
			Field:   errField,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := val.String()
	if err != nil {
		return formatCUEError(err)
	}
	*dst = s
	return nil
}

// readStrings fills dst when the field exists.
func readStrings(v cue.Value, name string, dst *[]string) error {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return nil
	}
	iter, err := val.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return formatCUEError(err)
		}
		*dst = append(*dst, s)
	}
	return nil
}

// requireStrings fills dst and errors when the field is missing or the
// list is empty.
func requireStrings(v cue.Value, name, errField string, dst *[]string) error {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return &CompileError{
			Field:   errField,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	if err := readStrings(v, name, dst); err != nil {
		return err
	}
	if len(*dst) == 0 {
		return &CompileError{
			Field:   errField,
			Message: "at least one entry is required",
			Pos:     val.Pos(),
		}
	}
	return nil
}

// readBool fills dst when the field exists.
func readBool(v cue.Value, name string, dst *bool) error {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return nil
	}
	b, err := val.Bool()
	if err != nil {
		return formatCUEError(err)
	}
	*dst = b
	return nil
}

// CompileError is a plan compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE's own errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
