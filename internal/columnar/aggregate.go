package columnar

import (
	"github.com/wfnkit/wfnkit/internal/extract"
	"github.com/wfnkit/wfnkit/internal/field"
)

// Aggregate is the read-only columnar view over a record sequence: one
// typed array per key plus the per-record provenance maps.
type Aggregate struct {
	keys       []string
	columns    map[string]Column
	sources    map[string][]int
	provenance []*field.Labels
	count      int
}

// Build pivots finalized records into an Aggregate. An empty record slice
// yields an empty aggregate; that is a normal outcome, not an error. No
// cross-key validation happens here - records are free to disagree on
// their key sets.
func Build(records []*extract.Record) *Aggregate {
	agg := &Aggregate{
		columns: make(map[string]Column),
		sources: make(map[string][]int),
		count:   len(records),
	}

	type collected struct {
		values []field.Value
		recs   []int
	}
	cells := make(map[string]*collected)
	var keys []string

	for i, rec := range records {
		for _, key := range rec.Fields.Keys() {
			v, _ := rec.Fields.Get(key)
			cell, ok := cells[key]
			if !ok {
				cell = &collected{}
				cells[key] = cell
				keys = append(keys, key)
			}
			cell.values = append(cell.values, v)
			cell.recs = append(cell.recs, i)
		}
		agg.provenance = append(agg.provenance, rec.Provenance.Clone())
	}

	agg.keys = keys
	for _, key := range keys {
		cell := cells[key]
		agg.columns[key] = unify(cell.values)
		agg.sources[key] = cell.recs
	}
	return agg
}

// Keys returns the column keys in first-seen order across the record
// sequence. The returned slice is shared; callers must not mutate it.
func (a *Aggregate) Keys() []string {
	return a.keys
}

// Column returns the unified array for key and whether it exists.
func (a *Aggregate) Column(key string) (Column, bool) {
	c, ok := a.columns[key]
	return c, ok
}

// Sources returns the indices of the records that contributed to key's
// column, in record order. For a key present in every record this is
// simply 0..Records()-1.
func (a *Aggregate) Sources(key string) []int {
	return a.sources[key]
}

// Provenance returns one label map per record, index-aligned to the full
// record sequence.
func (a *Aggregate) Provenance() []*field.Labels {
	return a.provenance
}

// Records returns the total number of aggregated records.
func (a *Aggregate) Records() int {
	return a.count
}

// unify picks a key's representation, trying each rung in order.
func unify(values []field.Value) Column {
	if c, ok := asIntColumn(values); ok {
		return c
	}
	if c, ok := asFloatColumn(values); ok {
		return c
	}
	if c, ok := asStringColumn(values); ok {
		return c
	}
	if c, ok := asTensorColumn(values); ok {
		return c
	}
	boxed := make(OpaqueColumn, len(values))
	copy(boxed, values)
	return boxed
}

func asIntColumn(values []field.Value) (IntColumn, bool) {
	out := make(IntColumn, len(values))
	for i, v := range values {
		s, ok := v.(field.Scalar)
		if !ok || !s.IsInteger() {
			return nil, false
		}
		out[i] = int64(s)
	}
	return out, true
}

func asFloatColumn(values []field.Value) (FloatColumn, bool) {
	out := make(FloatColumn, len(values))
	for i, v := range values {
		s, ok := v.(field.Scalar)
		if !ok {
			return nil, false
		}
		out[i] = float64(s)
	}
	return out, true
}

func asStringColumn(values []field.Value) (StringColumn, bool) {
	out := make(StringColumn, len(values))
	for i, v := range values {
		s, ok := v.(field.Text)
		if !ok {
			return nil, false
		}
		out[i] = string(s)
	}
	return out, true
}

// asTensorColumn stacks the values along a new leading axis when every
// value has the same fixed numeric shape. Text values and ragged matrices
// have no shape, so their presence fails the stack.
func asTensorColumn(values []field.Value) (TensorColumn, bool) {
	base, ok := shapeOf(values[0])
	if !ok {
		return TensorColumn{}, false
	}
	for _, v := range values[1:] {
		shape, ok := shapeOf(v)
		if !ok || !shapeEqual(base, shape) {
			return TensorColumn{}, false
		}
	}

	shape := append([]int{len(values)}, base...)
	data := make([]float64, 0, len(values)*sizeOf(base))
	for _, v := range values {
		data = appendFlat(data, v)
	}
	return TensorColumn{Shape: shape, Data: data}, true
}

// shapeOf treats a Scalar as 0-D, a Vector as 1-D and a rectangular Matrix
// as 2-D. ok is false for Text and for ragged matrices.
func shapeOf(v field.Value) ([]int, bool) {
	switch val := v.(type) {
	case field.Scalar:
		return []int{}, true
	case field.Vector:
		return []int{len(val)}, true
	case field.Matrix:
		if len(val) == 0 {
			return []int{0, 0}, true
		}
		cols := len(val[0])
		for _, row := range val[1:] {
			if len(row) != cols {
				return nil, false
			}
		}
		return []int{len(val), cols}, true
	default:
		return nil, false
	}
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sizeOf(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func appendFlat(data []float64, v field.Value) []float64 {
	switch val := v.(type) {
	case field.Scalar:
		return append(data, float64(val))
	case field.Vector:
		return append(data, val...)
	case field.Matrix:
		for _, row := range val {
			data = append(data, row...)
		}
		return data
	default:
		return data
	}
}
