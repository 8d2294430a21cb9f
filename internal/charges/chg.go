package charges

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// parseChg reads Multiwfn's .chg format: one atom per line as
// "symbol x y z charge", coordinates in Angstrom. Lines with fewer than
// five fields are ignored, matching Multiwfn's occasional footers.
func parseChg(r io.Reader) (atoms []string, coords []float64, charges []float64, err error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 5 {
			continue
		}

		row := make([]float64, 4)
		for i, part := range parts[1:5] {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("charge file line %d: bad number %q", lineNo, part)
			}
			row[i] = v
		}
		atoms = append(atoms, parts[0])
		coords = append(coords, row[0], row[1], row[2])
		charges = append(charges, row[3])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read charge file: %w", err)
	}
	if len(atoms) == 0 {
		return nil, nil, nil, fmt.Errorf("charge file did not contain any data")
	}
	return atoms, coords, charges, nil
}

func parseChgFile(path string) ([]string, []float64, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open charge file: %w", err)
	}
	defer f.Close()
	return parseChg(f)
}
