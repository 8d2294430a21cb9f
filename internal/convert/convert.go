// Package convert rewrites wavefunction files into Multiwfn's native
// .mwfn format via the export menu.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wfnkit/wfnkit/internal/multiwfn"
)

// Options configures ToMwfn.
type Options struct {
	// Input is the wavefunction to convert, in any format Multiwfn reads.
	Input string
	// Output is the destination; empty swaps the input's extension for
	// ".mwfn".
	Output string
	// Overwrite allows replacing an existing destination.
	Overwrite bool
}

// buildScript answers the menus for an .mwfn export: other functions
// (100), export files (2), export as .mwfn (32), the destination path,
// back out twice, quit.
func buildScript(input, dest string) string {
	return multiwfn.ComposeScript([]string{
		input,
		"100",
		"2",
		"32",
		dest,
		"0",
		"0",
		"q",
	})
}

// ToMwfn converts the input wavefunction and returns the destination
// path. Multiwfn silently skips the export when the input lacks basis set
// information, so the destination is checked after the run.
func ToMwfn(ctx context.Context, d *multiwfn.Driver, opts Options) (string, error) {
	input, err := filepath.Abs(opts.Input)
	if err != nil {
		return "", fmt.Errorf("failed to resolve input path: %w", err)
	}
	if _, err := os.Stat(input); err != nil {
		return "", fmt.Errorf("input file not found: %s", input)
	}

	dest := opts.Output
	if dest == "" {
		dest = strings.TrimSuffix(input, filepath.Ext(input)) + ".mwfn"
	} else if dest, err = filepath.Abs(dest); err != nil {
		return "", fmt.Errorf("failed to resolve output path: %w", err)
	}

	if _, err := os.Stat(dest); err == nil && !opts.Overwrite {
		return "", fmt.Errorf("destination %s already exists; use --overwrite to replace it", dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	res, err := d.Run(ctx, buildScript(input, dest), filepath.Dir(dest))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dest); err != nil {
		out := strings.TrimSpace(res.Stdout)
		if len(out) > 2000 {
			out = "..." + out[len(out)-2000:]
		}
		return "", fmt.Errorf("multiwfn did not create the expected .mwfn file; check the input for basis set information.\nMultiwfn output:\n%s", out)
	}

	slog.Info("wavefunction converted", "input", input, "output", dest)
	return dest, nil
}
