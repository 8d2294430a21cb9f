package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Process exit codes. Operational failures (a Multiwfn run that exited
// badly, an extraction that found no records) are distinguished from
// command errors (bad flags, unknown properties, missing files) so shell
// scripts can branch on the difference.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the process exit code a failed command wants.
// Commands return it from RunE; main translates it into os.Exit.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError builds an ExitError without an underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and message to an existing error.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps an error to its process exit code, defaulting to
// ExitFailure for plain errors.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as plain text or as one JSON
// envelope per invocation, depending on the --format flag.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	// ErrWriter takes verbose notes and streamed subprocess output so
	// they cannot interleave with a JSON envelope on Writer. Falls back
	// to Writer when nil.
	ErrWriter io.Writer
	Verbose   bool
}

// newFormatter builds a command's formatter over cobra's configured
// streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the JSON envelope every command emits in JSON mode.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
	// RunID names the catalog row recorded for this invocation, when
	// one was.
	RunID string `json:"run_id,omitempty"`
}

// CLIError is the error half of the envelope. Code is one of the E-code
// constants; Details carries structured context that has no stable text
// rendering.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success reports a successful result.
func (f *OutputFormatter) Success(data interface{}) error {
	return f.SuccessRun(data, "")
}

// SuccessRun reports a successful result tagged with the catalog run ID
// recorded for the invocation. An empty ID omits the tag.
func (f *OutputFormatter) SuccessRun(data interface{}, runID string) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data, RunID: runID})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error reports a failure. In text mode details print only with
// --verbose; in JSON mode they ride in the envelope unconditionally.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog prints a diagnostic line when --verbose is set, routed away
// from Writer so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the diagnostic stream: ErrWriter when set,
// otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
