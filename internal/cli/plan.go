package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfnkit/wfnkit/internal/catalog"
	"github.com/wfnkit/wfnkit/internal/plan"
)

// PlanOptions holds flags for the plan subcommands.
type PlanOptions struct {
	*RootOptions
	Jobs int
}

// StepView is the JSON shape of one plan step.
type StepView struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// PlanView is the JSON shape of a compiled plan.
type PlanView struct {
	Name  string     `json:"name"`
	File  string     `json:"file"`
	Steps []StepView `json:"steps"`
}

// NewPlanCommand creates the plan command group.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compile and execute CUE plan files",
		Long: `Compile and execute batch plans written in CUE.

A plan file declares a list of steps (extract, grids, charges, convert
or run) with per-step parameters. Compilation is strict: unknown kinds,
stray fields and non-concrete values are rejected with their source
position. Steps are independent and run concurrently up to --jobs.`,
	}

	cmd.AddCommand(newPlanRunCommand(opts))
	cmd.AddCommand(newPlanVetCommand(opts))

	return cmd
}

func newPlanRunCommand(opts *PlanOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <plan.cue>",
		Short: "Execute every step of a plan",
		Long: `Compile a plan file and execute its steps.

Relative paths inside the plan resolve against the plan file's own
directory, so a plan behaves the same from any working directory. The
first failing step cancels the rest.

Examples:
  wfnkit plan run analysis.cue
  wfnkit plan run analysis.cue --jobs 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 1, "number of steps to run concurrently")

	return cmd
}

func newPlanVetCommand(opts *PlanOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vet <plan.cue>",
		Short: "Compile a plan without executing it",
		Long: `Compile a plan file and report its steps without running anything.

Examples:
  wfnkit plan vet analysis.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanVet(opts, args[0], cmd)
		},
	}
}

func runPlanVet(opts *PlanOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := plan.Load(path)
	if err != nil {
		return outputPlanError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(planView(p))
	}
	fmt.Fprintf(formatter.Writer, "✓ Plan %q compiles: %d step(s)\n\n", p.Name, len(p.Steps))
	for i, step := range p.Steps {
		fmt.Fprintf(formatter.Writer, "  %d. %s (%s)\n", i+1, step.Label(), step.Kind)
	}
	return nil
}

func runPlanRun(opts *PlanOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := plan.Load(path)
	if err != nil {
		return outputPlanError(formatter, err)
	}

	settings, err := LoadSettings(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	runner := &plan.Runner{
		Driver:     settings.Driver,
		ScriptDirs: settings.Config.ScriptDirs,
		Jobs:       opts.Jobs,
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	started := time.Now()
	run := catalog.Run{
		Operation: "plan",
		Command:   commandLine(cmd, []string{path}),
	}

	if err := runner.Run(ctx, p); err != nil {
		recordRun(ctx, settings.Config.Catalog, run, started, err)
		_ = formatter.Error(ErrCodePlanStep, err.Error(), nil)
		return WrapExitError(ExitFailure, "plan failed", err)
	}

	runID := recordRun(ctx, settings.Config.Catalog, run, started, nil)

	if formatter.Format == "json" {
		return formatter.SuccessRun(planView(p), runID)
	}
	fmt.Fprintf(formatter.Writer, "✓ Plan %q finished: %d step(s)\n", p.Name, len(p.Steps))
	return nil
}

// planView converts a compiled plan to its JSON shape.
func planView(p *plan.Plan) PlanView {
	view := PlanView{
		Name:  p.Name,
		File:  p.File,
		Steps: make([]StepView, len(p.Steps)),
	}
	for i, step := range p.Steps {
		view.Steps[i] = StepView{Name: step.Label(), Kind: step.Kind}
	}
	return view
}

// outputPlanError reports a plan compilation failure with its source
// position when the compiler provides one.
func outputPlanError(formatter *OutputFormatter, err error) error {
	var compileErr *plan.CompileError
	if errors.As(err, &compileErr) {
		details := map[string]string{"field": compileErr.Field}
		if compileErr.Pos.IsValid() {
			details["position"] = fmt.Sprintf("%s:%d:%d",
				compileErr.Pos.Filename(), compileErr.Pos.Line(), compileErr.Pos.Column())
		}
		_ = formatter.Error(ErrCodePlanCompile, compileErr.Error(), details)
	} else {
		_ = formatter.Error(ErrCodePlanCompile, err.Error(), nil)
	}
	return WrapExitError(ExitCommandError, "plan rejected", err)
}
