package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath overrides the default configuration file location.
	ConfigPath string
	// MultiwfnPath overrides the configured Multiwfn executable.
	MultiwfnPath string
	// ScriptDirs replaces the configured script directories.
	ScriptDirs []string
	// Database overrides the configured run catalog path.
	Database string
}

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wfnkit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wfnkit",
		Short: "wfnkit - Multiwfn companion toolkit",
		Long: `Drive Multiwfn non-interactively and turn its text output into typed data.

wfnkit composes answers to Multiwfn's interactive menus and feeds them to
the binary on stdin: it exports property grids, atomic charges and
wavefunction conversions, runs the scripts shipped with Multiwfn, and
extracts critical point reports into columnar NPZ, Arrow or JSON
artifacts. Artifact-producing invocations are recorded in a local run
catalog for later inspection with "wfnkit runs".`,
		SilenceUsage:  true, // Errors are reported once, by main or by the command's formatter
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q, expected one of %v", opts.Format, ValidFormats)
			}
			setupLogging(cmd, opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to configuration file (defaults to ~/.config/wfnkit/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.MultiwfnPath, "multiwfn", "", "path to the Multiwfn executable (overrides config)")
	cmd.PersistentFlags().StringArrayVar(&opts.ScriptDirs, "scripts-dir", nil, "directory containing runnable scripts (repeatable, overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the run catalog database (overrides config)")

	cmd.AddCommand(NewExtractCommand(opts))
	cmd.AddCommand(NewGridsCommand(opts))
	cmd.AddCommand(NewChargesCommand(opts))
	cmd.AddCommand(NewFilterCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewScriptsCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLogging points the default slog logger at the command's stderr so
// progress lines from long Multiwfn runs never corrupt JSON output.
func setupLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
