package columnar

import (
	"github.com/wfnkit/wfnkit/internal/field"
)

// Column is a sealed interface over the unified array representations.
// Only IntColumn, FloatColumn, StringColumn, TensorColumn and OpaqueColumn
// implement it.
type Column interface {
	column() // Sealed - only these types implement it

	// Len is the number of contributing records.
	Len() int
	// Kind returns the representation name: "int", "float", "string",
	// "tensor" or "opaque".
	Kind() string
}

// IntColumn holds one integer per contributing record.
type IntColumn []int64

func (IntColumn) column() {}

// Len implements Column.
func (c IntColumn) Len() int { return len(c) }

// Kind implements Column.
func (IntColumn) Kind() string { return "int" }

// FloatColumn holds one float per contributing record.
type FloatColumn []float64

func (FloatColumn) column() {}

// Len implements Column.
func (c FloatColumn) Len() int { return len(c) }

// Kind implements Column.
func (FloatColumn) Kind() string { return "float" }

// StringColumn holds one string per contributing record.
type StringColumn []string

func (StringColumn) column() {}

// Len implements Column.
func (c StringColumn) Len() int { return len(c) }

// Kind implements Column.
func (StringColumn) Kind() string { return "string" }

// TensorColumn holds same-shape numeric values stacked along a new leading
// dimension: Shape[0] is the contributing record count and Data is the
// row-major flattening.
type TensorColumn struct {
	Shape []int
	Data  []float64
}

func (TensorColumn) column() {}

// Len implements Column.
func (c TensorColumn) Len() int {
	if len(c.Shape) == 0 {
		return 0
	}
	return c.Shape[0]
}

// Kind implements Column.
func (TensorColumn) Kind() string { return "tensor" }

// OpaqueColumn boxes the original per-record values when no unified
// numeric or string representation exists.
type OpaqueColumn []field.Value

func (OpaqueColumn) column() {}

// Len implements Column.
func (c OpaqueColumn) Len() int { return len(c) }

// Kind implements Column.
func (OpaqueColumn) Kind() string { return "opaque" }
