package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfnkit/wfnkit/internal/catalog"
)

// RunsOptions holds flags for the runs subcommands.
type RunsOptions struct {
	*RootOptions
	Operation string
	Limit     int
}

// RunView is the JSON shape of one catalog entry.
type RunView struct {
	ID           string `json:"id"`
	Operation    string `json:"operation"`
	Command      string `json:"command"`
	Wavefunction string `json:"wavefunction,omitempty"`
	Artifact     string `json:"artifact,omitempty"`
	ExitCode     int    `json:"exit_code"`
	Error        string `json:"error,omitempty"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at"`
}

// NewRunsCommand creates the runs command group.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run catalog",
		Long: `Inspect the catalog of recorded invocations.

Every artifact-producing command records what ran, against which
wavefunction, what it produced and how it exited. Runs are addressed by
their full ID or any unique prefix of it.`,
	}

	cmd.AddCommand(newRunsListCommand(opts))
	cmd.AddCommand(newRunsShowCommand(opts))

	return cmd
}

func newRunsListCommand(opts *RunsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Long: `List recorded runs, newest first.

Examples:
  wfnkit runs list
  wfnkit runs list --operation grids --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Operation, "operation", "", "only list runs of this operation (extract, grids, charges, filter, convert, run, plan)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")

	return cmd
}

func newRunsShowCommand(opts *RunsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run",
		Long: `Show one recorded run by ID or unique ID prefix.

Examples:
  wfnkit runs show 018f3c64
  wfnkit runs show 018f3c64-2f6a-7e11-bb3c-1de07f4dc6ba --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(opts, args[0], cmd)
		},
	}
}

func runRunsList(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	settings, err := LoadSettings(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	cat, err := catalog.Open(settings.Config.Catalog)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open run catalog", err)
	}
	defer cat.Close()

	ctx, stop := signalContext(cmd)
	defer stop()
	runs, err := cat.List(ctx, opts.Operation, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		views := make([]RunView, len(runs))
		for i, run := range runs {
			views[i] = runView(run)
		}
		return formatter.Success(views)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	header := fmt.Sprintf("%-8s  %-9s  %-19s  %-6s  %s", "ID", "OPERATION", "STARTED", "EXIT", "ARTIFACT")
	fmt.Fprintln(formatter.Writer, header)
	fmt.Fprintln(formatter.Writer, strings.Repeat("-", len(header)))
	for _, run := range runs {
		fmt.Fprintf(formatter.Writer, "%-8s  %-9s  %-19s  %-6d  %s\n",
			shortID(run.ID),
			run.Operation,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.ExitCode,
			run.Artifact)
	}
	return nil
}

func runRunsShow(opts *RunsOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	settings, err := LoadSettings(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	cat, err := catalog.Open(settings.Config.Catalog)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open run catalog", err)
	}
	defer cat.Close()

	ctx, stop := signalContext(cmd)
	defer stop()
	run, err := cat.Get(ctx, id)
	if err != nil {
		code := ErrCodeCatalog
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrAmbiguousID) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to look up run", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(runView(*run))
	}

	fmt.Fprintf(formatter.Writer, "ID:           %s\n", run.ID)
	fmt.Fprintf(formatter.Writer, "Operation:    %s\n", run.Operation)
	fmt.Fprintf(formatter.Writer, "Command:      %s\n", run.Command)
	if run.Wavefunction != "" {
		fmt.Fprintf(formatter.Writer, "Wavefunction: %s\n", run.Wavefunction)
	}
	if run.Artifact != "" {
		fmt.Fprintf(formatter.Writer, "Artifact:     %s\n", run.Artifact)
	}
	fmt.Fprintf(formatter.Writer, "Exit code:    %d\n", run.ExitCode)
	if run.Error != "" {
		fmt.Fprintf(formatter.Writer, "Error:        %s\n", run.Error)
	}
	fmt.Fprintf(formatter.Writer, "Started:      %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(formatter.Writer, "Finished:     %s (%s)\n",
		run.FinishedAt.Local().Format(time.RFC3339),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return nil
}

// runView converts a catalog run to its JSON shape.
func runView(run catalog.Run) RunView {
	return RunView{
		ID:           run.ID,
		Operation:    run.Operation,
		Command:      run.Command,
		Wavefunction: run.Wavefunction,
		Artifact:     run.Artifact,
		ExitCode:     run.ExitCode,
		Error:        run.Error,
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt:   run.FinishedAt.UTC().Format(time.RFC3339Nano),
	}
}

// shortID truncates a UUID for the listing; the show command accepts the
// prefix back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
