package charges

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/wfnkit/wfnkit/internal/multiwfn"
	"github.com/wfnkit/wfnkit/internal/npz"
)

// methodScripts holds the menu answers for each population analysis,
// starting below the wavefunction line: enter menu 7, pick the method,
// accept exporting the .chg file, back out and quit. MBIS goes through
// menu 20's iterative scheme and additionally writes multipoles.
var methodScripts = map[string][]string{
	"hirshfeld": {"7", "1", "1", "y", "0", "q"},
	"vdd":       {"7", "2", "1", "y", "0", "q"},
	"becke":     {"7", "10", "0", "y", "0", "q"},
	"adch":      {"7", "11", "1", "y", "0", "q"},
	"chelpg":    {"7", "12", "1", "y", "0", "0", "q"},
	"mk":        {"7", "13", "1", "y", "0", "0", "q"},
	"cm5":       {"7", "16", "1", "y", "0", "q"},
	"mbis":      {"7", "20", "-3", "-4", "1", "n", "y", "y", "0", "0", "q"},
}

// SupportedMethods lists the available charge analysis methods.
func SupportedMethods() []string {
	names := make([]string, 0, len(methodScripts))
	for name := range methodScripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildScript(wavefunction, method string) string {
	lines := append([]string{wavefunction}, methodScripts[method]...)
	return multiwfn.ComposeScript(lines)
}

// ExportOptions configures Export.
type ExportOptions struct {
	// Wavefunction is the input file handed to Multiwfn.
	Wavefunction string
	// Output is the destination archive; empty derives
	// "<wavefunction stem>_charges.npz" next to the wavefunction.
	Output string
	// Methods to run, one Multiwfn pass each.
	Methods []string
}

// Export runs one population analysis per requested method, cross-checks
// that every pass saw the same atoms and writes the collected charges to
// an NPZ archive. It returns the archive path.
func Export(ctx context.Context, d *multiwfn.Driver, opts ExportOptions) (string, error) {
	wfn, err := filepath.Abs(opts.Wavefunction)
	if err != nil {
		return "", fmt.Errorf("failed to resolve wavefunction path: %w", err)
	}
	if _, err := os.Stat(wfn); err != nil {
		return "", fmt.Errorf("wavefunction file not found: %s", wfn)
	}

	if len(opts.Methods) == 0 {
		return "", fmt.Errorf("no charge analysis methods specified")
	}
	for _, method := range opts.Methods {
		if _, ok := methodScripts[method]; !ok {
			return "", fmt.Errorf("unsupported method %q (supported: %s)",
				method, strings.Join(SupportedMethods(), ", "))
		}
	}

	stem := strings.TrimSuffix(filepath.Base(wfn), filepath.Ext(wfn))
	output := opts.Output
	if output == "" {
		output = filepath.Join(filepath.Dir(wfn), stem+"_charges.npz")
	}

	tmp, err := os.MkdirTemp("", "wfnkit-charges-")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	var (
		atoms         []string
		coords        []float64
		methodCharges = make(map[string][]float64, len(opts.Methods))
		mbis          *multipoles
	)
	for _, method := range opts.Methods {
		slog.Info("computing atomic charges", "method", method)
		if _, err := d.Run(ctx, buildScript(wfn, method), tmp); err != nil {
			return "", fmt.Errorf("method %q: %w", method, err)
		}

		// Every pass rewrites "<stem>.chg"; claim it under the method's
		// name before the next pass can clobber it.
		target := filepath.Join(tmp, method+".chg")
		if err := os.Rename(filepath.Join(tmp, stem+".chg"), target); err != nil {
			return "", fmt.Errorf("multiwfn did not produce the expected charge file for method %q", method)
		}

		curAtoms, curCoords, curCharges, err := parseChgFile(target)
		if err != nil {
			return "", fmt.Errorf("method %q: %w", method, err)
		}
		if atoms == nil {
			atoms = curAtoms
			coords = curCoords
		} else if !slices.Equal(curAtoms, atoms) {
			return "", fmt.Errorf("atomic ordering mismatch between charge files; all methods must see the same geometry")
		}
		methodCharges[method] = curCharges

		if method == "mbis" {
			mplTarget := filepath.Join(tmp, "mbis.mpl")
			if err := os.Rename(filepath.Join(tmp, stem+".mbis_mpl"), mplTarget); err != nil {
				return "", fmt.Errorf("multiwfn did not generate the MBIS multipole file")
			}
			mbis, err = parseMultipolesFile(mplTarget, len(atoms))
			if err != nil {
				return "", err
			}
		}
	}

	if err := writeArchive(output, atoms, coords, opts.Methods, methodCharges, mbis); err != nil {
		return "", err
	}
	slog.Info("charge archive written", "path", output, "atoms", len(atoms), "methods", len(opts.Methods))
	return output, nil
}

func writeArchive(output string, atoms []string, coords []float64, order []string, methodCharges map[string][]float64, mbis *multipoles) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	n := len(atoms)
	w := npz.NewWriter(f)
	if err := w.PutStrings("atoms", atoms); err != nil {
		return err
	}
	if err := w.PutFloats("coordinates_angstrom", []int{n, 3}, coords); err != nil {
		return err
	}
	for _, method := range order {
		if err := w.PutFloats("charges_"+method, []int{n}, methodCharges[method]); err != nil {
			return err
		}
	}
	if mbis != nil {
		if err := w.PutFloats("mbis_charges_raw", []int{n}, mbis.ChargesRaw); err != nil {
			return err
		}
		if err := w.PutFloats("mbis_dipoles", []int{n, 3}, mbis.Dipoles); err != nil {
			return err
		}
		if err := w.PutFloats("mbis_quadrupole_cartesian", []int{n, 6}, mbis.QuadrupoleCartesian); err != nil {
			return err
		}
		if err := w.PutFloats("mbis_quadrupole_traceless", []int{n, 6}, mbis.QuadrupoleTraceless); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}
