package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfnkit/wfnkit/internal/catalog"
	"github.com/wfnkit/wfnkit/internal/columnar"
	"github.com/wfnkit/wfnkit/internal/extract"
	"github.com/wfnkit/wfnkit/internal/plan"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	Output         string // artifact path
	ArtifactFormat string // npz, arrow or json
}

// ExtractResult summarizes a completed extraction.
type ExtractResult struct {
	Input    string   `json:"input"`
	Artifact string   `json:"artifact"`
	Format   string   `json:"format"`
	Records  int      `json:"records"`
	Keys     []string `json:"keys"`
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <report>",
		Short: "Extract critical point records into a columnar artifact",
		Long: `Extract critical point records from a Multiwfn topology report.

The report is split into CP blocks, each block's labeled scalars, vectors,
matrices and free text become typed fields, and the records are unified
into typed columns written as an NPZ, Arrow IPC or JSON artifact.

A report with no recognizable CP blocks is an operational failure, not a
silent empty artifact.

Examples:
  wfnkit extract CPprop.txt
  wfnkit extract CPprop.txt -o cps.npz
  wfnkit extract CPprop.txt --format arrow -o cps.arrow`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "artifact path (defaults next to the report)")
	cmd.Flags().StringVar(&opts.ArtifactFormat, "format", "npz", "artifact format (npz|arrow|json)")

	return cmd
}

func runExtract(opts *ExtractOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	switch opts.ArtifactFormat {
	case "npz", "arrow", "json":
	default:
		msg := fmt.Sprintf("unknown format %q (choose npz, arrow or json)", opts.ArtifactFormat)
		_ = formatter.Error(ErrCodeBadRequest, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	settings, err := LoadSettings(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		msg := fmt.Sprintf("failed to read report %s: %v", input, err)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return WrapExitError(ExitCommandError, "failed to read report", err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	started := time.Now()
	run := catalog.Run{
		Operation: "extract",
		Command:   commandLine(cmd, []string{input}),
	}

	records := extract.Parse(extract.Decode(raw))
	formatter.VerboseLog("Parsed %d record(s) from %s", len(records), input)

	if len(records) == 0 {
		msg := fmt.Sprintf("no critical point records found in %s", input)
		recordRun(ctx, settings.Config.Catalog, run, started, errors.New(msg))
		_ = formatter.Error(ErrCodeNoRecords, msg, nil)
		return NewExitError(ExitFailure, msg)
	}

	agg := columnar.Build(records)

	output := opts.Output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + plan.ArtifactExtension(opts.ArtifactFormat)
	}
	if err := plan.WriteArtifact(output, opts.ArtifactFormat, agg); err != nil {
		recordRun(ctx, settings.Config.Catalog, run, started, err)
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to write artifact", err)
	}

	run.Artifact = output
	runID := recordRun(ctx, settings.Config.Catalog, run, started, nil)

	result := &ExtractResult{
		Input:    input,
		Artifact: output,
		Format:   opts.ArtifactFormat,
		Records:  agg.Records(),
		Keys:     agg.Keys(),
	}
	return outputExtractSuccess(formatter, result, runID)
}

// outputExtractSuccess outputs a successful extraction.
func outputExtractSuccess(formatter *OutputFormatter, result *ExtractResult, runID string) error {
	if formatter.Format == "json" {
		return formatter.SuccessRun(result, runID)
	}

	fmt.Fprintf(formatter.Writer, "✓ Extracted %d record(s), %d column(s)\n",
		result.Records, len(result.Keys))
	fmt.Fprintf(formatter.Writer, "Wrote %s artifact to %s\n", result.Format, result.Artifact)
	return nil
}
