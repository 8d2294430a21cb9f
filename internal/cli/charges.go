package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfnkit/wfnkit/internal/catalog"
	"github.com/wfnkit/wfnkit/internal/charges"
)

// ChargesOptions holds flags for the charges command.
type ChargesOptions struct {
	*RootOptions
	Output  string
	Methods []string
}

// ChargesResult summarizes a completed charge export.
type ChargesResult struct {
	Wavefunction string   `json:"wavefunction"`
	Artifact     string   `json:"artifact"`
	Methods      []string `json:"methods"`
}

// NewChargesCommand creates the charges command.
func NewChargesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChargesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "charges <wavefunction>",
		Short: "Compute atomic charges and export them to an NPZ archive",
		Long: `Run one or more population analyses and collect the charges.

Each method is one Multiwfn pass through the population analysis menu.
The per-atom charges of every method, the element symbols and the
coordinates land in a single NPZ archive; the MBIS method additionally
carries its atomic dipoles and quadrupoles.

Examples:
  wfnkit charges h2o.fchk --method hirshfeld
  wfnkit charges h2o.fchk -m adch -m cm5 -o h2o_charges.npz`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCharges(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "archive path (defaults to <wavefunction stem>_charges.npz)")
	cmd.Flags().StringSliceVarP(&opts.Methods, "method", "m", nil, "charge method to run (repeatable: "+strings.Join(charges.SupportedMethods(), ", ")+")")

	return cmd
}

func runCharges(opts *ChargesOptions, wavefunction string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if len(opts.Methods) == 0 {
		msg := fmt.Sprintf("no methods requested; pass --method (supported: %s)",
			strings.Join(charges.SupportedMethods(), ", "))
		_ = formatter.Error(ErrCodeBadRequest, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	supported := make(map[string]bool)
	for _, m := range charges.SupportedMethods() {
		supported[m] = true
	}
	for _, m := range opts.Methods {
		if !supported[m] {
			msg := fmt.Sprintf("unsupported method %q (supported: %s)",
				m, strings.Join(charges.SupportedMethods(), ", "))
			_ = formatter.Error(ErrCodeBadRequest, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
	}

	settings, err := LoadSettings(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	started := time.Now()
	run := catalog.Run{
		Operation:    "charges",
		Command:      commandLine(cmd, []string{wavefunction}),
		Wavefunction: wavefunction,
	}

	artifact, err := charges.Export(ctx, settings.Driver, charges.ExportOptions{
		Wavefunction: wavefunction,
		Output:       opts.Output,
		Methods:      opts.Methods,
	})
	if err != nil {
		recordRun(ctx, settings.Config.Catalog, run, started, err)
		_ = formatter.Error(ErrCodeMultiwfn, err.Error(), nil)
		return WrapExitError(ExitFailure, "charge export failed", err)
	}

	run.Artifact = artifact
	runID := recordRun(ctx, settings.Config.Catalog, run, started, nil)

	result := &ChargesResult{
		Wavefunction: wavefunction,
		Artifact:     artifact,
		Methods:      opts.Methods,
	}
	if formatter.Format == "json" {
		return formatter.SuccessRun(result, runID)
	}
	fmt.Fprintf(formatter.Writer, "✓ Exported %s charge(s) to %s\n",
		strings.Join(result.Methods, ", "), result.Artifact)
	return nil
}
