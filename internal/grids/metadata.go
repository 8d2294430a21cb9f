package grids

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// BohrToAngstrom is the CODATA 2018 Bohr radius in Angstrom.
const BohrToAngstrom = 0.529177210903

// Metadata is the grid geometry Multiwfn prints while exporting, all in
// Bohr except the point counts.
type Metadata struct {
	OriginBohr  [3]float64
	EndBohr     [3]float64
	SpacingBohr [3]float64
	Counts      [3]int
}

// Points returns the total grid point count.
func (m *Metadata) Points() int {
	return m.Counts[0] * m.Counts[1] * m.Counts[2]
}

const tripleFloat = `\s+([-0-9.E+]+)\s+([-0-9.E+]+)\s+([-0-9.E+]+)`

var (
	originRE  = regexp.MustCompile(`Coordinate of origin in X,Y,Z is` + tripleFloat + `\s+Bohr`)
	endRE     = regexp.MustCompile(`Coordinate of end point in X,Y,Z is` + tripleFloat + `\s+Bohr`)
	spacingRE = regexp.MustCompile(`Grid spacing in X,Y,Z is` + tripleFloat + `\s+Bohr`)
	countsRE  = regexp.MustCompile(`Number of points in X,Y,Z is\s+(\d+)\s+(\d+)\s+(\d+)`)
)

// parseMetadata extracts the grid geometry from Multiwfn's console output.
func parseMetadata(stdout string) (*Metadata, error) {
	md := &Metadata{}

	for _, spec := range []struct {
		re   *regexp.Regexp
		dst  *[3]float64
		what string
	}{
		{originRE, &md.OriginBohr, "grid origin"},
		{endRE, &md.EndBohr, "grid end point"},
		{spacingRE, &md.SpacingBohr, "grid spacing"},
	} {
		m := spec.re.FindStringSubmatch(stdout)
		if m == nil {
			return nil, fmt.Errorf("failed to parse %s from multiwfn output", spec.what)
		}
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(m[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s component %q: %w", spec.what, m[i+1], err)
			}
			spec.dst[i] = v
		}
	}

	m := countsRE.FindStringSubmatch(stdout)
	if m == nil {
		return nil, fmt.Errorf("failed to parse grid point counts from multiwfn output")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return nil, fmt.Errorf("failed to parse grid point count %q: %w", m[i+1], err)
		}
		md.Counts[i] = n
	}
	return md, nil
}

// loadGridFile reads the four-column (x, y, z, value) point file Multiwfn
// exports. Points come back flattened row-major with three components per
// point, values as a parallel array.
func loadGridFile(r io.Reader) (points, values []float64, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, nil, fmt.Errorf("grid file line %d: expected four columns (x, y, z, value), got %d", lineNo, len(fields))
		}
		row := make([]float64, 4)
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.ReplaceAll(f, "D", "E"), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid file line %d: bad number %q", lineNo, f)
			}
			row[i] = v
		}
		points = append(points, row[0], row[1], row[2])
		values = append(values, row[3])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read grid file: %w", err)
	}
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("grid file contained no points")
	}
	return points, values, nil
}

// floatsClose reports approximate equality with numpy-style tolerances.
func floatsClose(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	const (
		rtol = 1e-5
		atol = 1e-8
	)
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		bound := b[i]
		if bound < 0 {
			bound = -bound
		}
		if diff > atol+rtol*bound {
			return false
		}
	}
	return true
}
