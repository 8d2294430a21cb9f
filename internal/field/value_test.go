package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Verify all types implement Value (compile-time check via assignment)
	var _ Value = Scalar(1.5)
	var _ Value = Vector{1, 2}
	var _ Value = Matrix{{1, 2}, {3, 4}}
	var _ Value = Text("hello")
}

func TestValueKind(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		kind string
	}{
		{"scalar", Scalar(3.14), "scalar"},
		{"vector", Vector{1, 2, 3}, "vector"},
		{"matrix", Matrix{{1}, {2}}, "matrix"},
		{"text", Text("C"), "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.val.Kind())
		})
	}
}

func TestScalarIsInteger(t *testing.T) {
	tests := []struct {
		name string
		val  Scalar
		want bool
	}{
		{"zero", Scalar(0), true},
		{"positive int", Scalar(42), true},
		{"negative int", Scalar(-7), true},
		{"fraction", Scalar(1.5), false},
		{"negative fraction", Scalar(-0.25), false},
		{"large exact", Scalar(1 << 53), true},
		{"too large", Scalar(math.Pow(2, 54)), false},
		{"positive inf", Scalar(math.Inf(1)), false},
		{"negative inf", Scalar(math.Inf(-1)), false},
		{"nan", Scalar(math.NaN()), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.IsInteger())
		})
	}
}

func TestMarshalValue(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"scalar", Scalar(1.5), "1.5"},
		{"scalar integer", Scalar(2), "2"},
		{"scalar exponent", Scalar(6.02e23), "6.02e+23"},
		{"scalar inf", Scalar(math.Inf(1)), `"Infinity"`},
		{"scalar neg inf", Scalar(math.Inf(-1)), `"-Infinity"`},
		{"scalar nan", Scalar(math.NaN()), `"NaN"`},
		{"vector", Vector{1.5, -2, 3e-4}, "[1.5,-2,0.0003]"},
		{"empty vector", Vector{}, "[]"},
		{"matrix", Matrix{{1, 2}, {3, 4}}, "[[1,2],[3,4]]"},
		{"ragged matrix", Matrix{{1, 2}, {3}}, "[[1,2],[3]]"},
		{"text", Text("3,-1"), `"3,-1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalValue(tt.val)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalValueUnknownType(t *testing.T) {
	_, err := MarshalValue(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field value type")
}
