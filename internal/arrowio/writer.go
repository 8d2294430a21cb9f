package arrowio

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/wfnkit/wfnkit/internal/columnar"
	"github.com/wfnkit/wfnkit/internal/field"
)

// WriteAggregate writes agg to w as an Arrow IPC file holding one record
// batch, with sparse columns realigned via nulls.
func WriteAggregate(w io.Writer, agg *columnar.Aggregate) error {
	mem := memory.NewGoAllocator()

	schema, err := buildSchema(agg)
	if err != nil {
		return err
	}

	arrays := make([]arrow.Array, 0, len(agg.Keys()))
	defer func() {
		for _, arr := range arrays {
			arr.Release()
		}
	}()
	for _, key := range agg.Keys() {
		col, _ := agg.Column(key)
		arr, err := buildArray(mem, col, agg.Sources(key), agg.Records())
		if err != nil {
			return fmt.Errorf("failed to build column %q: %w", key, err)
		}
		arrays = append(arrays, arr)
	}

	rec := array.NewRecord(schema, arrays, int64(agg.Records()))
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to open ipc writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	return fw.Close()
}

func buildSchema(agg *columnar.Aggregate) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(agg.Keys()))
	for _, key := range agg.Keys() {
		col, _ := agg.Column(key)
		fields = append(fields, arrow.Field{
			Name:     key,
			Type:     arrowType(col),
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{"kind"}, []string{col.Kind()}),
		})
	}

	keyMap, err := agg.KeyMapJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key_map: %w", err)
	}
	md := arrow.NewMetadata([]string{"key_map"}, []string{string(keyMap)})
	return arrow.NewSchema(fields, &md), nil
}

func arrowType(col columnar.Column) arrow.DataType {
	switch c := col.(type) {
	case columnar.IntColumn:
		return arrow.PrimitiveTypes.Int64
	case columnar.FloatColumn:
		return arrow.PrimitiveTypes.Float64
	case columnar.StringColumn:
		return arrow.BinaryTypes.String
	case columnar.TensorColumn:
		// Shape[0] is the record axis; the rest nest as fixed-size
		// lists around float64 leaves. Fixed-size lists cannot have
		// zero width, so degenerate shapes travel as JSON text.
		if degenerate(c.Shape[1:]) {
			return arrow.BinaryTypes.String
		}
		t := arrow.DataType(arrow.PrimitiveTypes.Float64)
		for i := len(c.Shape) - 1; i >= 1; i-- {
			t = arrow.FixedSizeListOf(int32(c.Shape[i]), t)
		}
		return t
	default:
		// Boxed values travel as JSON text.
		return arrow.BinaryTypes.String
	}
}

// buildArray materializes one full-length Arrow array for a column.
// sources holds the record index of each stored value; rows in between
// become nulls.
func buildArray(mem memory.Allocator, col columnar.Column, sources []int, total int) (arrow.Array, error) {
	switch c := col.(type) {
	case columnar.IntColumn:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		next := 0
		for row := 0; row < total; row++ {
			if next < len(sources) && sources[next] == row {
				b.Append(c[next])
				next++
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	case columnar.FloatColumn:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		next := 0
		for row := 0; row < total; row++ {
			if next < len(sources) && sources[next] == row {
				b.Append(c[next])
				next++
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	case columnar.StringColumn:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		next := 0
		for row := 0; row < total; row++ {
			if next < len(sources) && sources[next] == row {
				b.Append(c[next])
				next++
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	case columnar.TensorColumn:
		return buildTensorArray(mem, c, sources, total)

	case columnar.OpaqueColumn:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		next := 0
		for row := 0; row < total; row++ {
			if next < len(sources) && sources[next] == row {
				data, err := field.MarshalValue(c[next])
				if err != nil {
					return nil, err
				}
				b.Append(string(data))
				next++
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	default:
		return nil, fmt.Errorf("unknown column type: %T", col)
	}
}

func buildTensorArray(mem memory.Allocator, col columnar.TensorColumn, sources []int, total int) (arrow.Array, error) {
	dims := col.Shape[1:]
	elems := 1
	for _, d := range dims {
		elems *= d
	}

	if degenerate(dims) {
		b := array.NewStringBuilder(mem)
		defer b.Release()
		next := 0
		for row := 0; row < total; row++ {
			if next < len(sources) && sources[next] == row {
				b.Append(string(tensorJSON(nil, dims, nil)))
				next++
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	}

	b := array.NewBuilder(mem, arrowType(col))
	defer b.Release()

	next := 0
	for row := 0; row < total; row++ {
		if next < len(sources) && sources[next] == row {
			appendTensor(b, dims, col.Data[next*elems:(next+1)*elems])
			next++
		} else {
			b.AppendNull()
		}
	}
	return b.NewArray(), nil
}

func degenerate(dims []int) bool {
	for _, d := range dims {
		if d <= 0 {
			return true
		}
	}
	return false
}

// tensorJSON renders one record's sub-tensor as nested JSON arrays.
func tensorJSON(dst []byte, dims []int, data []float64) []byte {
	if len(dims) == 0 {
		return field.AppendFloat(dst, data[0])
	}
	inner := 1
	for _, d := range dims[1:] {
		inner *= d
	}
	dst = append(dst, '[')
	for i := 0; i < dims[0]; i++ {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = tensorJSON(dst, dims[1:], data[i*inner:(i+1)*inner])
	}
	return append(dst, ']')
}

// appendTensor recurses the fixed-size list nesting down to float64
// leaves, consuming data in row-major order.
func appendTensor(b array.Builder, dims []int, data []float64) {
	if len(dims) == 0 {
		b.(*array.Float64Builder).Append(data[0])
		return
	}
	lb := b.(*array.FixedSizeListBuilder)
	lb.Append(true)
	inner := 1
	for _, d := range dims[1:] {
		inner *= d
	}
	vb := lb.ValueBuilder()
	for i := 0; i < dims[0]; i++ {
		appendTensor(vb, dims[1:], data[i*inner:(i+1)*inner])
	}
}
