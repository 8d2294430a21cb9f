// Package geometry obtains molecular geometry by having Multiwfn export
// a PDB file and parsing its fixed-column atom records.
package geometry

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wfnkit/wfnkit/internal/multiwfn"
)

// Molecule holds parallel atom arrays. Coords is row-major with three
// components per atom, in Angstrom.
type Molecule struct {
	Symbols []string
	Coords  []float64
}

// Len returns the atom count.
func (m *Molecule) Len() int {
	return len(m.Symbols)
}

// Coord returns atom i's position.
func (m *Molecule) Coord(i int) (x, y, z float64) {
	return m.Coords[3*i], m.Coords[3*i+1], m.Coords[3*i+2]
}

// exportScript drives Multiwfn's file-export menu to write a PDB next to
// the working directory: main function 100, export submenu 2, PDB is
// option 1, accept the default name, then back out and quit.
func exportScript(wavefunction string) string {
	return multiwfn.ComposeScript([]string{
		wavefunction,
		"100",
		"2",
		"1",
		"",
		"0",
		"0",
		"q",
	})
}

// Export runs Multiwfn to dump the wavefunction's geometry as a PDB in a
// scratch directory and parses it.
func Export(ctx context.Context, d *multiwfn.Driver, wavefunction string) (*Molecule, error) {
	abs, err := filepath.Abs(wavefunction)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wavefunction path: %w", err)
	}

	tmp, err := os.MkdirTemp("", "wfnkit-geom-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if _, err := d.Run(ctx, exportScript(abs), tmp); err != nil {
		return nil, fmt.Errorf("geometry export failed: %w", err)
	}

	base := filepath.Base(abs)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	pdbPath := filepath.Join(tmp, stem+".pdb")
	f, err := os.Open(pdbPath)
	if err != nil {
		return nil, fmt.Errorf("multiwfn did not emit the expected PDB %q: %w", stem+".pdb", err)
	}
	defer f.Close()

	return ParsePDB(f)
}

// ParsePDB reads ATOM/HETATM records from fixed-column PDB text. The
// element comes from columns 77-78 when present, as Multiwfn writes it,
// falling back to the atom name columns 13-16.
func ParsePDB(r io.Reader) (*Molecule, error) {
	mol := &Molecule{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}

		element := strings.TrimSpace(slice(line, 76, 78))
		if element == "" {
			element = strings.TrimSpace(slice(line, 12, 16))
		}
		element = capitalize(element)

		x, err := coordField(line, 30, 38)
		if err != nil {
			return nil, fmt.Errorf("pdb line %d: %w", lineNo, err)
		}
		y, err := coordField(line, 38, 46)
		if err != nil {
			return nil, fmt.Errorf("pdb line %d: %w", lineNo, err)
		}
		z, err := coordField(line, 46, 54)
		if err != nil {
			return nil, fmt.Errorf("pdb line %d: %w", lineNo, err)
		}

		mol.Symbols = append(mol.Symbols, element)
		mol.Coords = append(mol.Coords, x, y, z)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pdb: %w", err)
	}
	if len(mol.Symbols) == 0 {
		return nil, fmt.Errorf("no atom records parsed from exported PDB")
	}
	return mol, nil
}

// slice returns line[from:to] tolerating short lines.
func slice(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return line[from:to]
}

func coordField(line string, from, to int) (float64, error) {
	text := strings.TrimSpace(slice(line, from, to))
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("bad coordinate %q in columns %d-%d", text, from+1, to)
	}
	return v, nil
}

func capitalize(symbol string) string {
	if symbol == "" {
		return symbol
	}
	return strings.ToUpper(symbol[:1]) + strings.ToLower(symbol[1:])
}
