package multiwfn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Options configures Execute.
type Options struct {
	// Wavefunction is passed to Multiwfn as its input file argument.
	// Required unless DryRun is set.
	Wavefunction string
	// WorkDir is the working directory for the process.
	WorkDir string
	// ExtraArgs are appended to the command line verbatim.
	ExtraArgs []string
	// DryRun returns the composed command without running anything.
	DryRun bool
	// Stdout and Stderr receive the process output. They default to the
	// calling process's own streams: Execute runs user scripts whose
	// console output is the point.
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult describes an Execute invocation.
type RunResult struct {
	Command []string
	Code    int
	DryRun  bool
}

// Execute runs a user script file's text against Multiwfn, streaming
// output through instead of capturing it. Unlike Run, only exit code 0
// counts as success here: scripts are expected to quit Multiwfn cleanly
// rather than let stdin drain.
func (d *Driver) Execute(ctx context.Context, scriptText string, opts Options) (*RunResult, error) {
	command := []string{d.Path}
	if opts.Wavefunction != "" {
		command = append(command, opts.Wavefunction)
	}
	command = append(command, opts.ExtraArgs...)

	if opts.DryRun {
		return &RunResult{Command: command, DryRun: true}, nil
	}
	if opts.Wavefunction == "" {
		return nil, errors.New("a wavefunction file path is required to run Multiwfn")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = opts.WorkDir
	cmd.Stdin = strings.NewReader(scriptText)
	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to start multiwfn at %q: %w", d.Path, err)
		}
		return nil, &ExecError{Code: exitErr.ExitCode()}
	}
	return &RunResult{Command: command, Code: 0}, nil
}
