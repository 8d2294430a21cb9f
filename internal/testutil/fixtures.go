// Package testutil provides shared fixtures for tests that drive external
// processes.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// FakeMultiwfn writes an executable shell script standing in for the
// Multiwfn binary and returns its path. body runs after the script's
// stdin handling, so fakes typically start with `cat > answers.txt` (or
// `cat > /dev/null`) to drain the piped menu answers the way the real
// binary would.
func FakeMultiwfn(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake multiwfn requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "multiwfn")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake multiwfn: %v", err)
	}
	return path
}
