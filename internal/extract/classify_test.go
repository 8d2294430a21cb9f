package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfnkit/wfnkit/internal/field"
)

// parseBlock parses a single record whose body is the given lines.
func parseBlock(t *testing.T, body ...string) *Record {
	t.Helper()
	input := "----------------   CP 1,     Type (3,-3)   ----------------\n" +
		strings.Join(body, "\n")
	records := Parse(input)
	require.Len(t, records, 1)
	return records[0]
}

func TestClassifyLabeledRepresentations(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		key   string
		want  field.Value
		label string
	}{
		{
			name:  "one token is scalar",
			line:  " Density of all electrons:  0.1127957091E+03",
			key:   "density_of_all_electrons",
			want:  field.Scalar(112.7957091),
			label: "Density of all electrons",
		},
		{
			name:  "several tokens are vector",
			line:  " Position (Bohr):    -0.061511873782    2.208098029130    0.000000000000",
			key:   "position_bohr",
			want:  field.Vector{-0.061511873782, 2.208098029130, 0},
			label: "Position (Bohr)",
		},
		{
			name:  "no tokens is text",
			line:  " Attractor kind: nuclear attractor",
			key:   "attractor_kind",
			want:  field.Text("nuclear attractor"),
			label: "Attractor kind",
		},
		{
			name:  "fortran exponent",
			line:  " Laplacian of electron density: -0.1527D+03",
			key:   "laplacian_of_electron_density",
			want:  field.Scalar(-152.7),
			label: "Laplacian of electron density",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parseBlock(t, tt.line)

			v, ok := rec.Fields.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, v)

			label, ok := rec.Provenance.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestClassifyEmptyValueWritesNothing(t *testing.T) {
	rec := parseBlock(t, " Components of gradient in x/y/z are:")

	_, ok := rec.Fields.Get("components_of_gradient_in_x_y_z_are")
	assert.False(t, ok)
	_, ok = rec.Provenance.Get("components_of_gradient_in_x_y_z_are")
	assert.False(t, ok)
}

func TestClassifyNucleusReference(t *testing.T) {
	rec := parseBlock(t, " Corresponding nucleus:     5(C )")

	idx, ok := rec.Fields.Get("corresponding_nucleus_index")
	require.True(t, ok)
	assert.Equal(t, field.Scalar(5), idx)

	label, ok := rec.Fields.Get("corresponding_nucleus_label")
	require.True(t, ok)
	assert.Equal(t, field.Text("C"), label)

	prov, ok := rec.Provenance.Get("corresponding_nucleus_index")
	require.True(t, ok)
	assert.Equal(t, "Corresponding nucleus index", prov)

	prov, ok = rec.Provenance.Get("corresponding_nucleus_label")
	require.True(t, ok)
	assert.Equal(t, "Corresponding nucleus label", prov)
}

func TestClassifyNucleusUnmatchedFallsThrough(t *testing.T) {
	// Without a capturable integer the line is an ordinary labeled field.
	rec := parseBlock(t, " Corresponding nucleus: unknown(C)")

	v, ok := rec.Fields.Get("corresponding_nucleus")
	require.True(t, ok)
	assert.Equal(t, field.Text("unknown(C)"), v)
}

func TestClassifyMatrixAccumulation(t *testing.T) {
	rec := parseBlock(t,
		" Hessian matrix:",
		" -0.365610711787E+06   0.191982771377E+01",
		"  0.191982771377E+01  -0.365610711665E+06",
		"",
		" eta index:    1.000000",
	)

	v, ok := rec.Fields.Get("hessian_matrix")
	require.True(t, ok)
	assert.Equal(t, field.Matrix{
		{-0.365610711787e+06, 0.191982771377e+01},
		{0.191982771377e+01, -0.365610711665e+06},
	}, v)

	label, ok := rec.Provenance.Get("hessian_matrix")
	require.True(t, ok)
	assert.Equal(t, "Hessian matrix", label)

	// Rows after the blank line went nowhere near the matrix.
	eta, ok := rec.Fields.Get("eta_index")
	require.True(t, ok)
	assert.Equal(t, field.Scalar(1), eta)
}

func TestClassifyEigenvectorsPrefixAccumulates(t *testing.T) {
	rec := parseBlock(t,
		" Eigenvectors(columns) of Hessian:",
		" -0.997870027926   0.000022577043",
		" -0.000039069440   0.999999991554",
	)

	v, ok := rec.Fields.Get("eigenvectors_columns_of_hessian")
	require.True(t, ok)
	assert.Equal(t, field.Matrix{
		{-0.997870027926, 0.000022577043},
		{-0.000039069440, 0.999999991554},
	}, v)
}

func TestClassifyMatrixFlushedByNextLabeledLine(t *testing.T) {
	rec := parseBlock(t,
		" Stress tensor matrix:",
		"  1.0  2.0",
		" Norm of gradient is:  0.5",
		"  3.0  4.0",
	)

	v, ok := rec.Fields.Get("stress_tensor_matrix")
	require.True(t, ok)
	assert.Equal(t, field.Matrix{{1, 2}}, v)

	// The row after the labeled line had no open accumulation left, so it
	// landed in the overflow bucket.
	overflow, ok := rec.Fields.Get("values")
	require.True(t, ok)
	assert.Equal(t, field.Matrix{{3, 4}}, overflow)
}

func TestClassifyMatrixFlushedByNucleusLine(t *testing.T) {
	rec := parseBlock(t,
		" Hessian matrix:",
		"  1.0  2.0",
		" Corresponding nucleus:     3(N )",
	)

	v, ok := rec.Fields.Get("hessian_matrix")
	require.True(t, ok)
	assert.Equal(t, field.Matrix{{1, 2}}, v)

	idx, ok := rec.Fields.Get("corresponding_nucleus_index")
	require.True(t, ok)
	assert.Equal(t, field.Scalar(3), idx)
}

func TestClassifyInlineValueSurvivesEmptyAccumulation(t *testing.T) {
	// The label opens matrix accumulation and writes an inline scalar; with
	// no rows before the flush, the scalar stays.
	rec := parseBlock(t,
		" Overlap matrix:  0.5",
		"",
	)

	v, ok := rec.Fields.Get("overlap_matrix")
	require.True(t, ok)
	assert.Equal(t, field.Scalar(0.5), v)
}

func TestClassifyAccumulatedRowsOverwriteInlineValue(t *testing.T) {
	rec := parseBlock(t,
		" Density: 1.5",
		" Overlap matrix:  0.5",
		"  1.0  2.0",
		"",
	)

	v, ok := rec.Fields.Get("overlap_matrix")
	require.True(t, ok)
	assert.Equal(t, field.Matrix{{1, 2}}, v)

	// Overwriting keeps the key's first-seen position.
	assert.Equal(t,
		[]string{"cp_index", "cp_type", "density", "overlap_matrix", "raw_block"},
		rec.Fields.Keys())
}

func TestClassifyMatrixLabelAloneRecordsProvenanceOnly(t *testing.T) {
	rec := parseBlock(t, " Hessian matrix:")

	_, ok := rec.Fields.Get("hessian_matrix")
	assert.False(t, ok)

	label, ok := rec.Provenance.Get("hessian_matrix")
	require.True(t, ok)
	assert.Equal(t, "Hessian matrix", label)
}

func TestClassifyOverflowBucketGrows(t *testing.T) {
	rec := parseBlock(t,
		" Components of gradient in x/y/z are:",
		"  0.000000000000E+00  -0.711542551969E-11   0.000000000000E+00",
		" Components of Laplacian in x/y/z are:",
		" -0.365610711787E+06  -0.365610711665E+06  -0.365610711887E+06",
	)

	v, ok := rec.Fields.Get("values")
	require.True(t, ok)
	assert.Equal(t, field.Matrix{
		{0, -0.711542551969e-11, 0},
		{-0.365610711787e+06, -0.365610711665e+06, -0.365610711887e+06},
	}, v)

	label, ok := rec.Provenance.Get("values")
	require.True(t, ok)
	assert.Equal(t, "values", label)
}

func TestClassifyOverflowReplacesLabeledNonBucketValue(t *testing.T) {
	// A labeled "Values:" field claims the bucket key; a later bare numeric
	// line starts the bucket fresh over it rather than extending a vector.
	rec := parseBlock(t,
		" Values: 1.0 2.0",
		" 3.0 4.0",
	)

	v, ok := rec.Fields.Get("values")
	require.True(t, ok)
	assert.Equal(t, field.Matrix{{3, 4}}, v)
}

func TestClassifyUnmatchedLineOnlyFeedsRawSpan(t *testing.T) {
	rec := parseBlock(t, " (no separator and no digits here)")

	assert.Equal(t, []string{"cp_index", "cp_type", "raw_block"}, rec.Fields.Keys())
	assert.Contains(t, rec.RawSpan, "(no separator and no digits here)")
}
