package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wfnkit/wfnkit/internal/catalog"
	"github.com/wfnkit/wfnkit/internal/config"
	"github.com/wfnkit/wfnkit/internal/multiwfn"
)

// Settings bundles the resolved configuration with the driver every
// Multiwfn-backed command shares.
type Settings struct {
	Config *config.Config
	Driver *multiwfn.Driver
}

// LoadSettings loads the configuration file and applies the global flag
// overrides: flag values win over file values, file values win over
// built-in defaults.
func LoadSettings(opts *RootOptions) (*Settings, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.MultiwfnPath != "" {
		cfg.MultiwfnPath = opts.MultiwfnPath
	}
	if len(opts.ScriptDirs) > 0 {
		cfg.ScriptDirs = opts.ScriptDirs
	}
	if opts.Database != "" {
		cfg.Catalog = opts.Database
	}

	return &Settings{
		Config: cfg,
		Driver: &multiwfn.Driver{Path: cfg.MultiwfnPath},
	}, nil
}

// signalContext derives the command's context, cancelled on SIGINT or
// SIGTERM so a hung Multiwfn process can be interrupted cleanly.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// commandLine reconstructs the invocation for the catalog: the command
// path, its positional arguments and every flag the user actually set.
func commandLine(cmd *cobra.Command, args []string) string {
	parts := append([]string{cmd.CommandPath()}, args...)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		parts = append(parts, "--"+f.Name+"="+f.Value.String())
	})
	return strings.Join(parts, " ")
}

// recordRun appends one invocation to the run catalog, stamping the
// timestamps and, on failure, the exit code and message. Recording is
// best effort: by the time it happens the command's real work is done,
// so catalog trouble is logged rather than turned into a failure.
func recordRun(ctx context.Context, catalogPath string, run catalog.Run, started time.Time, runErr error) string {
	run.StartedAt = started
	run.FinishedAt = time.Now()
	if runErr != nil {
		run.ExitCode = ExitFailure
		run.Error = runErr.Error()
	}

	cat, err := catalog.Open(catalogPath)
	if err != nil {
		slog.Warn("run catalog unavailable", "path", catalogPath, "error", err)
		return ""
	}
	defer cat.Close()

	id, err := cat.Record(ctx, run)
	if err != nil {
		slog.Warn("failed to record run", "error", err)
		return ""
	}
	return id
}

// Stable error codes carried in JSON envelopes and text error lines.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Configuration could not be loaded
	ErrCodeNotFound    = "E003" // Input path not found
	ErrCodeReadFailed  = "E004" // Input read error
	ErrCodeWriteFailed = "E005" // Artifact write error
	ErrCodeCatalog     = "E006" // Run catalog error

	// Extraction errors
	ErrCodeNoRecords = "E101" // No critical point records in the input

	// Multiwfn execution errors
	ErrCodeMultiwfn      = "E201" // Multiwfn invocation failed
	ErrCodeBadRequest    = "E202" // Unsupported property, method, mode or format
	ErrCodeUnknownScript = "E203" // Script not found or not runnable

	// Plan errors
	ErrCodePlanCompile = "E301" // Plan file rejected by the compiler
	ErrCodePlanStep    = "E302" // Plan step failed during execution
)
