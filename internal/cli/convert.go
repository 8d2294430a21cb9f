package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfnkit/wfnkit/internal/catalog"
	"github.com/wfnkit/wfnkit/internal/convert"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Output    string
	Overwrite bool
}

// ConvertResult summarizes a completed conversion.
type ConvertResult struct {
	Input    string `json:"input"`
	Artifact string `json:"artifact"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <wavefunction>",
		Short: "Convert a wavefunction file to the .mwfn format",
		Long: `Convert a wavefunction file to Multiwfn's native .mwfn format.

Multiwfn reads the input and exports it through its file-export menu.
Inputs without basis set information export nothing, so the destination
is verified after the run. An existing destination is never replaced
unless --overwrite is given.

Examples:
  wfnkit convert h2o.fchk
  wfnkit convert h2o.molden -o wavefunctions/h2o.mwfn --overwrite`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "destination path (defaults to <input stem>.mwfn)")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace the destination if it already exists")

	return cmd
}

func runConvert(opts *ConvertOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	settings, err := LoadSettings(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	started := time.Now()
	run := catalog.Run{
		Operation:    "convert",
		Command:      commandLine(cmd, []string{input}),
		Wavefunction: input,
	}

	artifact, err := convert.ToMwfn(ctx, settings.Driver, convert.Options{
		Input:     input,
		Output:    opts.Output,
		Overwrite: opts.Overwrite,
	})
	if err != nil {
		recordRun(ctx, settings.Config.Catalog, run, started, err)
		_ = formatter.Error(ErrCodeMultiwfn, err.Error(), nil)
		return WrapExitError(ExitFailure, "conversion failed", err)
	}

	run.Artifact = artifact
	runID := recordRun(ctx, settings.Config.Catalog, run, started, nil)

	result := &ConvertResult{Input: input, Artifact: artifact}
	if formatter.Format == "json" {
		return formatter.SuccessRun(result, runID)
	}
	fmt.Fprintf(formatter.Writer, "✓ Converted %s to %s\n", result.Input, result.Artifact)
	return nil
}
