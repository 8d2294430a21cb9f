package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wfnkit/wfnkit/internal/scripts"
)

// ScriptsOptions holds flags for the scripts subcommands.
type ScriptsOptions struct {
	*RootOptions
	Executor string // list: filter by executor type
	Head     int    // show: only print the first N lines
}

// ScriptView is the JSON shape of one discovered script.
type ScriptView struct {
	Identifier string `json:"identifier"`
	Path       string `json:"path"`
	Executor   string `json:"executor"`
	Category   string `json:"category"`
	Text       string `json:"text,omitempty"`
}

// NewScriptsCommand creates the scripts command group.
func NewScriptsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScriptsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "Discover and inspect the scripts shipped with Multiwfn",
		Long: `Discover the example scripts under the configured script directories.

Each file is classified by how it is meant to be run: Multiwfn menu
scripts, shell scripts, VMD and gnuplot helpers, or plain data files.
Scripts are addressed by identifier ("<dir>:<relative path>") or, when
unambiguous, by bare file name.`,
	}

	cmd.AddCommand(newScriptsListCommand(opts))
	cmd.AddCommand(newScriptsShowCommand(opts))

	return cmd
}

func newScriptsListCommand(opts *ScriptsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available scripts",
		Long: `List every script found under the configured script directories.

Examples:
  wfnkit scripts list
  wfnkit scripts list --executor multiwfn
  wfnkit scripts list --scripts-dir ./my-scripts`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScriptsList(opts, cmd)
		},
	}

	executors := make([]string, len(scripts.Executors))
	for i, e := range scripts.Executors {
		executors[i] = string(e)
	}
	cmd.Flags().StringVar(&opts.Executor, "executor", "", "only list scripts with this executor type ("+strings.Join(executors, ", ")+")")

	return cmd
}

func newScriptsShowCommand(opts *ScriptsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <script>",
		Short: "Print the contents of a script",
		Long: `Print a script's contents, located by identifier or name.

Examples:
  wfnkit scripts show scripts:ESP/esp_settings.txt
  wfnkit scripts show esp_settings --head 20`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScriptsShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Head, "head", 0, "only show the first N lines")

	return cmd
}

func runScriptsList(opts *ScriptsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	settings, err := LoadSettings(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	list := scripts.Discover(settings.Config.ScriptDirs)
	if opts.Executor != "" {
		filtered := list[:0]
		for _, s := range list {
			if string(s.Executor) == opts.Executor {
				filtered = append(filtered, s)
			}
		}
		list = filtered
	}
	formatter.VerboseLog("Discovered %d script(s) under %s", len(list), strings.Join(settings.Config.ScriptDirs, ", "))

	if formatter.Format == "json" {
		views := make([]ScriptView, len(list))
		for i, s := range list {
			views[i] = ScriptView{
				Identifier: s.Identifier,
				Path:       s.Path,
				Executor:   string(s.Executor),
				Category:   s.Category,
			}
		}
		return formatter.Success(views)
	}

	if len(list) == 0 {
		fmt.Fprintln(formatter.Writer, "No scripts found. Adjust --scripts-dir or check your configuration.")
		return nil
	}

	header := fmt.Sprintf("%-40s  %-12s  %s", "IDENTIFIER", "EXECUTOR", "CATEGORY")
	fmt.Fprintln(formatter.Writer, header)
	fmt.Fprintln(formatter.Writer, strings.Repeat("-", len(header)))
	for _, s := range list {
		identifier := s.Identifier
		if len(identifier) > 40 {
			identifier = identifier[:40]
		}
		fmt.Fprintf(formatter.Writer, "%-40s  %-12s  %s\n", identifier, s.Executor, s.Category)
	}
	return nil
}

func runScriptsShow(opts *ScriptsOptions, query string, cmd *cobra.Command) error {
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

	raw, err := os.ReadFile(script.Path)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read script", err)
	}
	text := string(raw)
	if opts.Head > 0 {
		lines := strings.Split(text, "\n")
		if opts.Head < len(lines) {
			text = strings.Join(lines[:opts.Head], "\n")
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(ScriptView{
			Identifier: script.Identifier,
			Path:       script.Path,
			Executor:   string(script.Executor),
			Category:   script.Category,
			Text:       text,
		})
	}
	fmt.Fprintln(formatter.Writer, text)
	return nil
}
