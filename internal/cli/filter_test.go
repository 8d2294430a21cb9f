package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfnkit/wfnkit/internal/catalog"
	"github.com/wfnkit/wfnkit/internal/npz"
)

// writeGridArchive builds a minimal grids-exporter archive: four points on
// the x axis around a single oxygen at the origin.
func writeGridArchive(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "h2o_grid.npz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := npz.NewWriter(f)
	require.NoError(t, w.PutFloats("esp_au", []int{4}, []float64{0.5, -0.2, 0.1, 3.0}))
	require.NoError(t, w.PutFloats("grid_points_angstrom", []int{4, 3}, []float64{
		0, 0, 0,
		2, 0, 0,
		3, 0, 0,
		10, 0, 0,
	}))
	require.NoError(t, w.PutStrings("atom_symbols", []string{"O"}))
	require.NoError(t, w.PutFloats("atom_coords_angstrom", []int{1, 3}, []float64{0, 0, 0}))
	require.NoError(t, w.Close())
	return path
}

func TestFilterMasksPointsAndRecords(t *testing.T) {
	dir := t.TempDir()
	grid := writeGridArchive(t, dir)
	out := filepath.Join(dir, "culled.npz")
	db := filepath.Join(dir, "catalog.db")

	stdout, _, err := execute(t, "filter", grid,
		"--property", "esp_au",
		"--min-distance", "1.0",
		"--max-value", "1.0",
		"-o", out, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Filtered "+grid)

	archive, err := npz.ReadFile(out)
	require.NoError(t, err)

	esp, ok := archive.Array("esp_au")
	require.True(t, ok)
	assert.Equal(t, []float64{-0.2, 0.1}, esp.Floats)

	points, ok := archive.Array("grid_points_angstrom")
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, points.Shape)

	kept, ok := archive.Array("filtered_point_count")
	require.True(t, ok)
	assert.Equal(t, []int64{2}, kept.Ints)
	original, ok := archive.Array("original_point_count")
	require.True(t, ok)
	assert.Equal(t, []int64{4}, original.Ints)

	// Geometry passes through unmasked.
	symbols, ok := archive.Array("atom_symbols")
	require.True(t, ok)
	assert.Equal(t, []string{"O"}, symbols.Strings)

	cat, err := catalog.Open(db)
	require.NoError(t, err)
	defer cat.Close()
	runs, err := cat.List(context.Background(), "filter", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out, runs[0].Artifact)
	assert.Equal(t, 0, runs[0].ExitCode)
}

func TestFilterDownsamplesToTargetCount(t *testing.T) {
	dir := t.TempDir()
	grid := writeGridArchive(t, dir)
	out := filepath.Join(dir, "sampled.npz")
	db := filepath.Join(dir, "catalog.db")

	_, _, err := execute(t, "filter", grid,
		"--property", "esp_au",
		"--min-distance", "1.0",
		"--target-count", "1",
		"--sampling", "farthest",
		"--seed", "7",
		"-o", out, "--db", db)
	require.NoError(t, err)

	archive, err := npz.ReadFile(out)
	require.NoError(t, err)
	kept, ok := archive.Array("filtered_point_count")
	require.True(t, ok)
	assert.Equal(t, []int64{1}, kept.Ints)
}

func TestFilterRejectsUnknownSampling(t *testing.T) {
	dir := t.TempDir()
	grid := writeGridArchive(t, dir)
	db := filepath.Join(dir, "catalog.db")

	stdout, _, err := execute(t, "filter", grid,
		"--property", "esp_au", "--sampling", "stratified", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E202]")
	assert.Contains(t, stdout, `unsupported sampling method "stratified"`)
	assert.NoFileExists(t, db)
}

func TestFilterAllPointsRemovedIsOperational(t *testing.T) {
	dir := t.TempDir()
	grid := writeGridArchive(t, dir)
	db := filepath.Join(dir, "catalog.db")

	stdout, _, err := execute(t, "filter", grid,
		"--property", "esp_au", "--min-distance", "100", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "all grid points were filtered")

	cat, err := catalog.Open(db)
	require.NoError(t, err)
	defer cat.Close()
	runs, err := cat.List(context.Background(), "filter", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ExitFailure, runs[0].ExitCode)
}

func TestFilterUnknownProperty(t *testing.T) {
	dir := t.TempDir()
	grid := writeGridArchive(t, dir)
	db := filepath.Join(dir, "catalog.db")

	stdout, _, err := execute(t, "filter", grid,
		"--property", "rho_au", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, `property "rho_au" not found`)
}
