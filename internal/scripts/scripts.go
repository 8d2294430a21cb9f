// Package scripts discovers the helper scripts that ship alongside
// Multiwfn examples and classifies how each should be executed.
package scripts

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Executor says how a discovered file is meant to be run.
type Executor string

const (
	ExecutorMultiwfn Executor = "multiwfn"
	ExecutorShell    Executor = "shell"
	ExecutorBatch    Executor = "batch"
	ExecutorVMD      Executor = "vmd"
	ExecutorTcl      Executor = "tcl"
	ExecutorGnuplot  Executor = "gnuplot"
	ExecutorData     Executor = "data"
	ExecutorUnknown  Executor = "unknown"
)

// Executors lists every executor type, in lookup priority order.
var Executors = []Executor{
	ExecutorMultiwfn,
	ExecutorShell,
	ExecutorBatch,
	ExecutorVMD,
	ExecutorTcl,
	ExecutorGnuplot,
	ExecutorData,
	ExecutorUnknown,
}

// Script describes one discovered file.
type Script struct {
	// Identifier is "<dir base name>:<path relative to that dir>",
	// with forward slashes.
	Identifier string
	// Path is the absolute location on disk.
	Path string
	// Executor classifies the file.
	Executor Executor
	// Category is the relative directory holding the file, "." at the
	// top of a script dir.
	Category string
}

// Stem returns the file name without its extension.
func (s *Script) Stem() string {
	name := filepath.Base(s.Path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// menuLineRE matches a line that looks like a single Multiwfn menu
// answer: file names, menu numbers, "y"/"n", option codes.
var menuLineRE = regexp.MustCompile(`^[A-Za-z0-9+\-_.]+$`)

// detectExecutor classifies by suffix. Plain .txt files are ambiguous:
// the Multiwfn examples mix scripted menu answers and data tables under
// the same extension, so those are sniffed line by line.
func detectExecutor(path string) Executor {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sh", ".bash":
		return ExecutorShell
	case ".bat":
		return ExecutorBatch
	case ".vmd":
		return ExecutorVMD
	case ".tcl":
		return ExecutorTcl
	case ".gnu":
		return ExecutorGnuplot
	case ".txt":
		return sniffText(path)
	default:
		return ExecutorUnknown
	}
}

// sniffText decides whether a .txt file is a Multiwfn menu script. When
// at least 70% of its non-empty lines look like single menu answers it
// is treated as runnable; otherwise it is data.
func sniffText(path string) Executor {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ExecutorUnknown
	}

	var total, simple int
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		if menuLineRE.MatchString(line) {
			simple++
		}
	}
	if total == 0 {
		return ExecutorUnknown
	}
	if float64(simple)/float64(total) >= 0.7 {
		return ExecutorMultiwfn
	}
	return ExecutorData
}

// Discover walks the given directories and returns every file found,
// classified and sorted by identifier. Missing directories are skipped;
// unreadable entries are ignored rather than failing the walk.
func Discover(dirs []string) []*Script {
	var found []*Script
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		base := filepath.Base(abs)

		filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(abs, path)
			if err != nil {
				return nil
			}
			category := filepath.ToSlash(filepath.Dir(rel))
			found = append(found, &Script{
				Identifier: base + ":" + filepath.ToSlash(rel),
				Path:       path,
				Executor:   detectExecutor(path),
				Category:   category,
			})
			return nil
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return strings.ToLower(found[i].Identifier) < strings.ToLower(found[j].Identifier)
	})
	return found
}
