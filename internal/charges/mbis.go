package charges

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// multipoles holds the per-atom MBIS expansion, rows flattened in atom
// order: dipoles three-wide, quadrupoles six-wide.
type multipoles struct {
	ChargesRaw          []float64
	Dipoles             []float64
	QuadrupoleCartesian []float64
	QuadrupoleTraceless []float64
}

// parseMultipoles walks the section headers of Multiwfn's multipole dump
// and pulls the per-atom rows under each one. Parsing stops at the
// molecular summary that follows the atomic sections.
func parseMultipoles(r io.Reader, atomCount int) (*multipoles, error) {
	mp := &multipoles{}

	section := ""
	scanner := bufio.NewScanner(r)
scan:
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Atomic charges"):
			section = "charges"
			continue
		case strings.HasPrefix(line, "Atomic dipoles"):
			section = "dipoles"
			continue
		case strings.HasPrefix(line, "Atomic quadrupoles, Cartesian"):
			section = "cartesian"
			continue
		case strings.HasPrefix(line, "Atomic quadrupoles, Traceless"):
			section = "traceless"
			continue
		case strings.HasPrefix(line, "Atomic to molecular condensed"):
			break scan
		}

		parts := strings.Fields(line)
		switch section {
		case "charges":
			if len(parts) >= 2 {
				v, err := parseMultipoleFields(parts[1:2])
				if err != nil {
					return nil, err
				}
				mp.ChargesRaw = append(mp.ChargesRaw, v...)
			}
		case "dipoles":
			if len(parts) >= 4 {
				v, err := parseMultipoleFields(parts[1:4])
				if err != nil {
					return nil, err
				}
				mp.Dipoles = append(mp.Dipoles, v...)
			}
		case "cartesian":
			if len(parts) >= 7 {
				v, err := parseMultipoleFields(parts[1:7])
				if err != nil {
					return nil, err
				}
				mp.QuadrupoleCartesian = append(mp.QuadrupoleCartesian, v...)
			}
		case "traceless":
			if len(parts) >= 7 {
				v, err := parseMultipoleFields(parts[1:7])
				if err != nil {
					return nil, err
				}
				mp.QuadrupoleTraceless = append(mp.QuadrupoleTraceless, v...)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read multipole file: %w", err)
	}

	if len(mp.ChargesRaw) != atomCount {
		return nil, fmt.Errorf("unexpected number of MBIS charges in multipole file: got %d, want %d", len(mp.ChargesRaw), atomCount)
	}
	if len(mp.Dipoles) != 3*atomCount {
		return nil, fmt.Errorf("unexpected number of MBIS dipoles in multipole file")
	}
	if len(mp.QuadrupoleCartesian) != 6*atomCount {
		return nil, fmt.Errorf("unexpected number of MBIS Cartesian quadrupoles in multipole file")
	}
	if len(mp.QuadrupoleTraceless) != 6*atomCount {
		return nil, fmt.Errorf("unexpected number of MBIS traceless quadrupoles in multipole file")
	}
	return mp, nil
}

func parseMultipoleFields(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("multipole file: bad number %q", field)
		}
		out[i] = v
	}
	return out, nil
}

func parseMultipolesFile(path string, atomCount int) (*multipoles, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open multipole file: %w", err)
	}
	defer f.Close()
	return parseMultipoles(f, atomCount)
}
