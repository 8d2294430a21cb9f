// Command wfnkit drives Multiwfn non-interactively: it runs the example
// scripts, exports grids, charges and conversions, and extracts critical
// point reports into columnar artifacts.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/wfnkit/wfnkit/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			// The command already reported through its formatter.
			os.Exit(exitErr.Code)
		}
		// Cobra-level errors (unknown commands, bad flags) were not.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}
}
