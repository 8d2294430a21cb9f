package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wfnkit/wfnkit/internal/catalog"
	"github.com/wfnkit/wfnkit/internal/multiwfn"
	"github.com/wfnkit/wfnkit/internal/scripts"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Wavefunction string
	WorkDir      string
	DryRun       bool
	ExtraArgs    []string
}

// RunResult summarizes a script execution.
type RunResult struct {
	Script   string   `json:"script"`
	Command  []string `json:"command"`
	DryRun   bool     `json:"dry_run,omitempty"`
	ExitCode int      `json:"exit_code"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Execute a Multiwfn menu script",
		Long: `Execute a discovered script by feeding it to Multiwfn on stdin.

The script is located by identifier or name among the configured script
directories and runs from its own directory so companion files next to
it stay reachable. Only Multiwfn menu scripts are runnable; shell, VMD
and gnuplot files are listed for reference but belong to their own
tools.

Examples:
  wfnkit run scripts:ESP/esp_settings.txt --wavefunction h2o.fchk
  wfnkit run esp_settings -w h2o.fchk --extra-arg -silent
  wfnkit run esp_settings --dry-run`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Wavefunction, "wavefunction", "w", "", "wavefunction file passed to Multiwfn")
	cmd.Flags().StringVar(&opts.WorkDir, "cwd", "", "working directory for the execution (defaults to the script's directory)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the command and script without invoking Multiwfn")
	cmd.Flags().StringArrayVar(&opts.ExtraArgs, "extra-arg", nil, "additional argument passed through to Multiwfn (repeatable)")

	return cmd
}

func runScript(opts *RunOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	settings, err := LoadSettings(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	script := scripts.Find(scripts.Discover(settings.Config.ScriptDirs), query)
	if script == nil {
		msg := fmt.Sprintf("unknown script: %s", query)
		_ = formatter.Error(ErrCodeUnknownScript, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if script.Executor != scripts.ExecutorMultiwfn {
		msg := fmt.Sprintf("script %q uses executor %q, which the run command does not support",
			script.Identifier, script.Executor)
		_ = formatter.Error(ErrCodeUnknownScript, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if !opts.DryRun && opts.Wavefunction == "" {
		msg := "a wavefunction file path is required to run Multiwfn; pass --wavefunction"
		_ = formatter.Error(ErrCodeBadRequest, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	raw, err := os.ReadFile(script.Path)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read script", err)
	}
	text := string(raw)

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(script.Path)
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	started := time.Now()
	run := catalog.Run{
		Operation:    "run",
		Command:      commandLine(cmd, []string{query}),
		Wavefunction: opts.Wavefunction,
	}

	// Multiwfn's console output streams through; in JSON mode it goes to
	// stderr so the envelope on stdout stays parseable.
	stdout := formatter.Writer
	if formatter.Format == "json" {
		stdout = formatter.GetErrWriter()
	}

	res, err := settings.Driver.Execute(ctx, text, multiwfn.Options{
		Wavefunction: opts.Wavefunction,
		WorkDir:      workDir,
		ExtraArgs:    opts.ExtraArgs,
		DryRun:       opts.DryRun,
		Stdout:       stdout,
		Stderr:       formatter.GetErrWriter(),
	})
	if err != nil {
		recordRun(ctx, settings.Config.Catalog, run, started, err)
		_ = formatter.Error(ErrCodeMultiwfn, err.Error(), nil)
		return WrapExitError(ExitFailure, "script execution failed", err)
	}

	result := &RunResult{
		Script:   script.Identifier,
		Command:  res.Command,
		DryRun:   res.DryRun,
		ExitCode: res.Code,
	}

	if res.DryRun {
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "Command: %s\n", strings.Join(res.Command, " "))
		fmt.Fprintln(formatter.Writer, "Input script:")
		fmt.Fprintln(formatter.Writer, text)
		return nil
	}

	runID := recordRun(ctx, settings.Config.Catalog, run, started, nil)
	if formatter.Format == "json" {
		return formatter.SuccessRun(result, runID)
	}
	fmt.Fprintf(formatter.Writer, "Multiwfn completed with exit code %d.\n", res.Code)
	return nil
}
