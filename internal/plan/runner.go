package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wfnkit/wfnkit/internal/arrowio"
	"github.com/wfnkit/wfnkit/internal/charges"
	"github.com/wfnkit/wfnkit/internal/columnar"
	"github.com/wfnkit/wfnkit/internal/convert"
	"github.com/wfnkit/wfnkit/internal/extract"
	"github.com/wfnkit/wfnkit/internal/grids"
	"github.com/wfnkit/wfnkit/internal/multiwfn"
	"github.com/wfnkit/wfnkit/internal/npz"
	"github.com/wfnkit/wfnkit/internal/scripts"
)

// Runner executes compiled plans.
type Runner struct {
	// Driver runs Multiwfn for the steps that need it.
	Driver *multiwfn.Driver
	// ScriptDirs are searched when a run step names a script.
	ScriptDirs []string
	// Jobs bounds how many steps run at once. Zero or less means one.
	Jobs int
}

// Run executes every step of the plan. Steps are independent of each
// other: they run concurrently up to the Jobs limit, and the first
// failure cancels the rest.
func (r *Runner) Run(ctx context.Context, p *Plan) error {
	jobs := r.Jobs
	if jobs < 1 {
		jobs = 1
	}

	base := ""
	if p.File != "" {
		base = filepath.Dir(p.File)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range p.Steps {
		step := &p.Steps[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slog.Info("running plan step", "step", step.Label(), "kind", step.Kind)
			artifact, err := r.runStep(ctx, base, step)
			if err != nil {
				return fmt.Errorf("step %q: %w", step.Label(), err)
			}
			if artifact != "" {
				slog.Info("plan step finished", "step", step.Label(), "artifact", artifact)
			}
			return nil
		})
	}
	return g.Wait()
}

// runStep dispatches one step to its operation and returns the artifact
// path for steps that produce one.
func (r *Runner) runStep(ctx context.Context, base string, step *Step) (string, error) {
	switch step.Kind {
	case KindExtract:
		return runExtract(base, step)
	case KindGrids:
		mode := step.GridMode
		if mode == "" {
			mode = "2"
		}
		return grids.Export(ctx, r.Driver, grids.ExportOptions{
			Wavefunction: resolve(base, step.Wavefunction),
			Output:       resolve(base, step.Output),
			Properties:   step.Properties,
			GridMode:     mode,
		})
	case KindCharges:
		return charges.Export(ctx, r.Driver, charges.ExportOptions{
			Wavefunction: resolve(base, step.Wavefunction),
			Output:       resolve(base, step.Output),
			Methods:      step.Methods,
		})
	case KindConvert:
		return convert.ToMwfn(ctx, r.Driver, convert.Options{
			Input:     resolve(base, step.Input),
			Output:    resolve(base, step.Output),
			Overwrite: step.Overwrite,
		})
	case KindRun:
		return "", r.runScript(ctx, base, step)
	default:
		return "", fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

// runExtract parses a critical point report and writes the aggregate in
// the step's format.
func runExtract(base string, step *Step) (string, error) {
	input := resolve(base, step.Input)
	raw, err := os.ReadFile(input)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	records := extract.Parse(extract.Decode(raw))
	if len(records) == 0 {
		return "", fmt.Errorf("no critical point records found in %s", input)
	}
	agg := columnar.Build(records)

	format := step.Format
	if format == "" {
		format = "npz"
	}
	output := resolve(base, step.Output)
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ArtifactExtension(format)
	}
	if err := WriteArtifact(output, format, agg); err != nil {
		return "", err
	}
	return output, nil
}

// WriteArtifact writes agg to path in the given format. The extract
// command and extract plan steps both go through here so a report
// extracted either way yields byte-identical artifacts.
func WriteArtifact(path, format string, agg *columnar.Aggregate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	switch format {
	case "npz":
		err = npz.WriteAggregate(f, agg)
	case "arrow":
		err = arrowio.WriteAggregate(f, agg)
	case "json":
		var data []byte
		data, err = json.MarshalIndent(agg, "", "  ")
		if err == nil {
			_, err = f.Write(append(data, '\n'))
		}
	default:
		err = fmt.Errorf("unknown format %q (choose npz, arrow or json)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ArtifactExtension returns the artifact extension for an extract format.
func ArtifactExtension(format string) string {
	switch format {
	case "arrow":
		return ".arrow"
	case "json":
		return ".json"
	default:
		return ".npz"
	}
}

// runScript resolves a Multiwfn menu script by identifier or stem and
// feeds it to the driver, working from the script's own directory so
// companion files next to it stay reachable.
func (r *Runner) runScript(ctx context.Context, base string, step *Step) error {
	list := scripts.Discover(r.ScriptDirs)
	script := scripts.Find(list, step.Script)
	if script == nil {
		return fmt.Errorf("script %q not found under %s", step.Script, strings.Join(r.ScriptDirs, ", "))
	}
	if script.Executor != scripts.ExecutorMultiwfn {
		return fmt.Errorf("script %q uses executor %q, which plans cannot run", script.Identifier, script.Executor)
	}

	text, err := os.ReadFile(script.Path)
	if err != nil {
		return fmt.Errorf("failed to read script %s: %w", script.Path, err)
	}
	_, err = r.Driver.Execute(ctx, string(text), multiwfn.Options{
		Wavefunction: resolve(base, step.Wavefunction),
		WorkDir:      filepath.Dir(script.Path),
		ExtraArgs:    step.Args,
	})
	return err
}

// resolve makes a step path absolute relative to the plan file's
// directory, so a plan behaves the same from any working directory.
func resolve(base, path string) string {
	if path == "" || base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
