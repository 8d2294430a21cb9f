package grids

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wfnkit/wfnkit/internal/geometry"
	"github.com/wfnkit/wfnkit/internal/multiwfn"
	"github.com/wfnkit/wfnkit/internal/npz"
)

// propertyCodes maps property names to Multiwfn's spatial-grid menu codes.
var propertyCodes = map[string]string{
	"esp": "12", // total electrostatic potential
	"vdw": "25", // van der Waals potential (probe=C)
}

// SupportedProperties lists the exportable grid properties.
func SupportedProperties() []string {
	names := make([]string, 0, len(propertyCodes))
	for name := range propertyCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildScript answers the menus for one property export: spatial grid
// analysis (5), the property code, the grid density mode, export to
// output.txt (3), back to the main menu, quit.
func buildScript(wavefunction, propertyCode, gridMode string) string {
	return multiwfn.ComposeScript([]string{
		wavefunction,
		"5",
		propertyCode,
		gridMode,
		"3",
		"0",
		"q",
	})
}

// ExportOptions configures Export.
type ExportOptions struct {
	// Wavefunction is the input file handed to Multiwfn.
	Wavefunction string
	// Output is the destination archive; empty derives
	// "<wavefunction stem>_grid.npz" next to the wavefunction.
	Output string
	// Properties to export, each over the same grid.
	Properties []string
	// GridMode is Multiwfn's grid quality menu answer: 1 low, 2 medium,
	// 3 high.
	GridMode string
}

// Export runs Multiwfn once per property, checks every pass produced the
// same grid, appends the molecular geometry and writes an NPZ archive.
// It returns the archive path.
func Export(ctx context.Context, d *multiwfn.Driver, opts ExportOptions) (string, error) {
	wfn, err := filepath.Abs(opts.Wavefunction)
	if err != nil {
		return "", fmt.Errorf("failed to resolve wavefunction path: %w", err)
	}
	if _, err := os.Stat(wfn); err != nil {
		return "", fmt.Errorf("wavefunction file not found: %s", wfn)
	}

	switch opts.GridMode {
	case "1", "2", "3":
	default:
		return "", fmt.Errorf("grid mode must be one of '1', '2' or '3', got %q", opts.GridMode)
	}

	if len(opts.Properties) == 0 {
		return "", fmt.Errorf("no grid properties specified")
	}
	for _, prop := range opts.Properties {
		if _, ok := propertyCodes[prop]; !ok {
			return "", fmt.Errorf("unsupported property %q (supported: %s)",
				prop, strings.Join(SupportedProperties(), ", "))
		}
	}

	output := opts.Output
	if output == "" {
		stem := strings.TrimSuffix(filepath.Base(wfn), filepath.Ext(wfn))
		output = filepath.Join(filepath.Dir(wfn), stem+"_grid.npz")
	}

	tmp, err := os.MkdirTemp("", "wfnkit-grid-")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	var (
		gridPoints []float64
		md         *Metadata
		propValues = make(map[string][]float64, len(opts.Properties))
	)
	for _, prop := range opts.Properties {
		slog.Info("exporting grid property", "property", prop, "mode", opts.GridMode)
		res, err := d.Run(ctx, buildScript(wfn, propertyCodes[prop], opts.GridMode), tmp)
		if err != nil {
			return "", fmt.Errorf("property %q: %w", prop, err)
		}

		info, err := parseMetadata(res.Stdout)
		if err != nil {
			return "", fmt.Errorf("property %q: %w", prop, err)
		}

		gridFile := filepath.Join(tmp, "output.txt")
		f, err := os.Open(gridFile)
		if err != nil {
			return "", fmt.Errorf("multiwfn did not produce the expected output.txt grid file for %q", prop)
		}
		points, values, err := loadGridFile(f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("property %q: %w", prop, err)
		}
		// Each pass rewrites output.txt; remove it so a later failure
		// cannot silently reuse stale points.
		os.Remove(gridFile)

		if gridPoints == nil {
			gridPoints = points
			md = info
		} else {
			if !floatsClose(gridPoints, points) {
				return "", fmt.Errorf("grid mismatch for property %q: all properties must use the same grid configuration", prop)
			}
			if !floatsClose(md.OriginBohr[:], info.OriginBohr[:]) ||
				!floatsClose(md.EndBohr[:], info.EndBohr[:]) ||
				!floatsClose(md.SpacingBohr[:], info.SpacingBohr[:]) {
				return "", fmt.Errorf("grid metadata mismatch across properties; ensure consistent grid settings")
			}
			if md.Counts != info.Counts {
				return "", fmt.Errorf("grid point counts mismatch across properties; ensure consistent grid settings")
			}
		}
		propValues[prop] = values
	}

	mol, err := geometry.Export(ctx, d, wfn)
	if err != nil {
		return "", err
	}

	if err := writeArchive(output, opts.Properties, propValues, gridPoints, md, mol); err != nil {
		return "", err
	}
	slog.Info("grid archive written", "path", output, "points", len(gridPoints)/3)
	return output, nil
}

func writeArchive(output string, order []string, propValues map[string][]float64, points []float64, md *Metadata, mol *geometry.Molecule) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	n := len(points) / 3
	w := npz.NewWriter(f)
	for _, prop := range order {
		if err := w.PutFloats(prop+"_au", []int{n}, propValues[prop]); err != nil {
			return err
		}
	}
	if err := w.PutFloats("grid_points_angstrom", []int{n, 3}, points); err != nil {
		return err
	}
	if err := w.PutInts("grid_shape", []int{3}, []int64{int64(md.Counts[0]), int64(md.Counts[1]), int64(md.Counts[2])}); err != nil {
		return err
	}
	extents := []struct {
		name string
		vals [3]float64
	}{
		{"grid_origin", md.OriginBohr},
		{"grid_end", md.EndBohr},
		{"grid_spacing", md.SpacingBohr},
	}
	for _, entry := range extents {
		if err := w.PutFloats(entry.name+"_bohr", []int{3}, entry.vals[:]); err != nil {
			return err
		}
	}
	for _, entry := range extents {
		scaled := []float64{
			entry.vals[0] * BohrToAngstrom,
			entry.vals[1] * BohrToAngstrom,
			entry.vals[2] * BohrToAngstrom,
		}
		if err := w.PutFloats(entry.name+"_angstrom", []int{3}, scaled); err != nil {
			return err
		}
	}
	if err := w.PutStrings("atom_symbols", mol.Symbols); err != nil {
		return err
	}
	if err := w.PutFloats("atom_coords_angstrom", []int{mol.Len(), 3}, mol.Coords); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}
