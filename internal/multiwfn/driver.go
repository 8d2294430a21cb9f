package multiwfn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ExecError reports a Multiwfn invocation that exited with an unexpected
// code. Stdout and stderr are carried along because Multiwfn writes its
// diagnostics to the console rather than to a status code.
type ExecError struct {
	Code   int
	Stdout string
	Stderr string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("multiwfn exited with code %d", e.Code)
}

// ComposeScript joins menu answers into a script, one answer per line,
// with a trailing newline so the final answer is actually consumed.
func ComposeScript(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

// Driver invokes a Multiwfn binary.
type Driver struct {
	// Path to the executable.
	Path string
}

// Result holds the captured output of a successful invocation.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Run feeds script to Multiwfn on stdin with dir as the working directory
// and captures the output. Exit codes 0 and 24 are success: Multiwfn
// reports 24 when it reads EOF after the script has been consumed.
func (d *Driver) Run(ctx context.Context, script, dir string) (*Result, error) {
	slog.Debug("running multiwfn", "path", d.Path, "dir", dir, "script_lines", strings.Count(script, "\n"))

	cmd := exec.CommandContext(ctx, d.Path)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to start multiwfn at %q: %w", d.Path, err)
		}
		code = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("multiwfn interrupted: %w", ctx.Err())
	}

	if code != 0 && code != 24 {
		return nil, &ExecError{Code: code, Stdout: stdout.String(), Stderr: stderr.String()}
	}

	slog.Debug("multiwfn finished", "code", code, "stdout_bytes", stdout.Len())
	return &Result{Stdout: stdout.String(), Stderr: stderr.String(), Code: code}, nil
}
