package grids

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wfnkit/wfnkit/internal/geometry"
	"github.com/wfnkit/wfnkit/internal/multiwfn"
	"github.com/wfnkit/wfnkit/internal/npz"
)

// FilterOptions configures Filter. Nil pointer fields mean "no such
// threshold".
type FilterOptions struct {
	// GridPath is an archive produced by Export.
	GridPath string
	// Output is the destination; empty derives "<grid stem>_filtered.npz".
	Output string
	// PropertyKey names the value array the thresholds apply to,
	// e.g. "esp_au".
	PropertyKey string

	// RadiusScale scales each atom's covalent radius into an exclusion
	// sphere. Ignored when MinDistance is set.
	RadiusScale float64
	// FallbackRadius substitutes for elements missing from the radii
	// table.
	FallbackRadius float64
	// MinDistance, when set, is a fixed exclusion distance in Angstrom
	// applied to every atom instead of scaled radii.
	MinDistance *float64

	// MaxValue keeps only points with property <= MaxValue.
	MaxValue *float64
	// MaxAbsValue keeps only points with |property| <= MaxAbsValue.
	MaxAbsValue *float64

	// TargetCount, when positive and below the surviving point count,
	// downsamples to exactly that many points.
	TargetCount int
	// Sampling picks the downsampling strategy; defaults to random.
	Sampling Sampling
	// Seed fixes the sampler's randomness.
	Seed *int64

	// Wavefunction and Driver are only consulted when the archive
	// carries no geometry, to re-export it.
	Wavefunction string
	Driver       *multiwfn.Driver
}

// Filter culls an exported grid archive and writes the surviving points
// to a new archive, masking every array whose leading dimension matches
// the point count and recording the before/after counts. It returns the
// output path.
func Filter(ctx context.Context, opts FilterOptions) (string, error) {
	gridPath, err := filepath.Abs(opts.GridPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve grid path: %w", err)
	}
	archive, err := npz.ReadFile(gridPath)
	if err != nil {
		return "", fmt.Errorf("failed to read grid archive: %w", err)
	}

	pointsArr, ok := archive.Array("grid_points_angstrom")
	if !ok {
		return "", fmt.Errorf("archive %s has no grid_points_angstrom array; was it produced by the grids exporter?", filepath.Base(gridPath))
	}
	points := pointsArr.Floats
	count := shapeLead(pointsArr.Shape)

	propArr, ok := archive.Array(opts.PropertyKey)
	if !ok {
		return "", fmt.Errorf("property %q not found in %s (available: %s)",
			opts.PropertyKey, filepath.Base(gridPath), strings.Join(arrayNames(archive), ", "))
	}
	values := propArr.Floats
	if shapeLead(propArr.Shape) != count {
		return "", fmt.Errorf("property array length does not match number of grid points")
	}

	mol, err := archiveGeometry(ctx, archive, opts)
	if err != nil {
		return "", err
	}
	radii := geometry.CovalentRadii(mol.Symbols, opts.FallbackRadius)

	mask := distanceMask(points, mol.Coords, radii, opts)
	if opts.MaxValue != nil {
		for i, v := range values {
			if v > *opts.MaxValue {
				mask[i] = false
			}
		}
	}
	if opts.MaxAbsValue != nil {
		limit := *opts.MaxAbsValue
		for i, v := range values {
			if v > limit || v < -limit {
				mask[i] = false
			}
		}
	}

	kept := countTrue(mask)
	if kept == 0 {
		return "", fmt.Errorf("all grid points were filtered; adjust thresholds")
	}

	if opts.TargetCount > 0 && opts.TargetCount < kept {
		mask = downsample(points, mask, kept, opts)
		if mask == nil {
			return "", fmt.Errorf("unsupported sampling method %q (choose %q or %q)",
				opts.Sampling, SamplingRandom, SamplingFarthest)
		}
		kept = countTrue(mask)
	}

	output := opts.Output
	if output == "" {
		stem := strings.TrimSuffix(filepath.Base(gridPath), filepath.Ext(gridPath))
		output = filepath.Join(filepath.Dir(gridPath), stem+"_filtered.npz")
	}
	if err := writeFiltered(output, archive, mask, count, kept); err != nil {
		return "", err
	}
	slog.Info("grid filtered", "path", output, "kept", kept, "original", count)
	return output, nil
}

// archiveGeometry uses the atoms stored in the archive, falling back to a
// fresh Multiwfn export for archives from before geometry was bundled.
func archiveGeometry(ctx context.Context, archive *npz.Archive, opts FilterOptions) (*geometry.Molecule, error) {
	symbols, okSym := archive.Array("atom_symbols")
	coords, okCrd := archive.Array("atom_coords_angstrom")
	if okSym && okCrd {
		return &geometry.Molecule{Symbols: symbols.Strings, Coords: coords.Floats}, nil
	}
	if opts.Driver == nil || opts.Wavefunction == "" {
		return nil, fmt.Errorf("archive carries no geometry; a wavefunction file is required to recover it")
	}
	return geometry.Export(ctx, opts.Driver, opts.Wavefunction)
}

// distanceMask keeps points that clear every atom's exclusion sphere:
// a fixed MinDistance when set, otherwise that atom's scaled radius.
func distanceMask(points, atomCoords []float64, radii []float64, opts FilterOptions) []bool {
	natoms := len(atomCoords) / 3
	thresholds := make([]float64, natoms)
	for a := 0; a < natoms; a++ {
		if opts.MinDistance != nil {
			thresholds[a] = *opts.MinDistance * *opts.MinDistance
		} else {
			r := radii[a] * opts.RadiusScale
			thresholds[a] = r * r
		}
	}

	count := len(points) / 3
	mask := make([]bool, count)
	for i := 0; i < count; i++ {
		px, py, pz := points[3*i], points[3*i+1], points[3*i+2]
		keep := true
		for a := 0; a < natoms; a++ {
			dx := px - atomCoords[3*a]
			dy := py - atomCoords[3*a+1]
			dz := pz - atomCoords[3*a+2]
			if dx*dx+dy*dy+dz*dz < thresholds[a] {
				keep = false
				break
			}
		}
		mask[i] = keep
	}
	return mask
}

// downsample restricts mask to a sampled subset of its surviving points.
func downsample(points []float64, mask []bool, kept int, opts FilterOptions) []bool {
	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	keptIndices := make([]int, 0, kept)
	for i, keep := range mask {
		if keep {
			keptIndices = append(keptIndices, i)
		}
	}
	keptPoints := make([]float64, 0, 3*kept)
	for _, idx := range keptIndices {
		keptPoints = append(keptPoints, points[3*idx], points[3*idx+1], points[3*idx+2])
	}

	var chosen []int
	switch opts.Sampling {
	case SamplingRandom, "":
		chosen = randomSample(kept, opts.TargetCount, rng)
	case SamplingFarthest:
		chosen = farthestPointSample(keptPoints, opts.TargetCount, rng)
	default:
		return nil
	}

	sampled := make([]bool, len(mask))
	for _, idx := range chosen {
		sampled[keptIndices[idx]] = true
	}
	return sampled
}

func writeFiltered(output string, archive *npz.Archive, mask []bool, count, kept int) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	w := npz.NewWriter(f)
	for _, name := range archive.Names() {
		arr, _ := archive.Array(name)
		if err := writeMasked(w, name, arr, mask, count, kept); err != nil {
			return err
		}
	}
	if err := w.PutInts("filtered_point_count", nil, []int64{int64(kept)}); err != nil {
		return err
	}
	if err := w.PutInts("original_point_count", nil, []int64{int64(count)}); err != nil {
		return err
	}
	for _, name := range archive.RawNames() {
		raw, _ := archive.Raw(name)
		if err := w.PutJSON(strings.TrimSuffix(name, ".json"), raw); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// writeMasked copies one array, keeping only masked rows when its leading
// dimension matches the grid point count and passing it through otherwise.
func writeMasked(w *npz.Writer, name string, arr *npz.Array, mask []bool, count, kept int) error {
	if shapeLead(arr.Shape) != count || len(arr.Shape) == 0 {
		return putArray(w, name, arr)
	}

	rowElems := 1
	for _, d := range arr.Shape[1:] {
		rowElems *= d
	}
	outShape := append([]int{kept}, arr.Shape[1:]...)

	switch arr.Kind {
	case npz.Float64:
		out := make([]float64, 0, kept*rowElems)
		for i, keep := range mask {
			if keep {
				out = append(out, arr.Floats[i*rowElems:(i+1)*rowElems]...)
			}
		}
		return w.PutFloats(name, outShape, out)
	case npz.Int64:
		out := make([]int64, 0, kept*rowElems)
		for i, keep := range mask {
			if keep {
				out = append(out, arr.Ints[i*rowElems:(i+1)*rowElems]...)
			}
		}
		return w.PutInts(name, outShape, out)
	case npz.Unicode:
		out := make([]string, 0, kept*rowElems)
		for i, keep := range mask {
			if keep {
				out = append(out, arr.Strings[i*rowElems:(i+1)*rowElems]...)
			}
		}
		return w.PutStrings(name, out)
	}
	return putArray(w, name, arr)
}

func putArray(w *npz.Writer, name string, arr *npz.Array) error {
	switch arr.Kind {
	case npz.Float64:
		return w.PutFloats(name, arr.Shape, arr.Floats)
	case npz.Int64:
		return w.PutInts(name, arr.Shape, arr.Ints)
	case npz.Unicode:
		return w.PutStrings(name, arr.Strings)
	}
	return fmt.Errorf("array %q has an unsupported kind", name)
}

func shapeLead(shape []int) int {
	if len(shape) == 0 {
		return -1
	}
	return shape[0]
}

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}

func arrayNames(archive *npz.Archive) []string {
	names := append([]string(nil), archive.Names()...)
	sort.Strings(names)
	return names
}
