package npz

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wfnkit/wfnkit/internal/columnar"
	"github.com/wfnkit/wfnkit/internal/field"
)

// WriteAggregate writes one archive entry per column, in key order, plus a
// "key_map" sidecar holding the per-record provenance maps. Opaque columns
// become .json sidecars: their mixed shapes have no array dtype short of
// pickling, which the readers here refuse.
func WriteAggregate(w io.Writer, agg *columnar.Aggregate) error {
	zw := NewWriter(w)
	for _, key := range agg.Keys() {
		col, _ := agg.Column(key)
		if err := writeColumn(zw, key, col); err != nil {
			return err
		}
	}

	keyMap, err := agg.KeyMapJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal key_map: %w", err)
	}
	if err := zw.PutJSON("key_map", keyMap); err != nil {
		return err
	}
	return zw.Close()
}

func writeColumn(zw *Writer, key string, col columnar.Column) error {
	switch c := col.(type) {
	case columnar.IntColumn:
		return zw.PutInts(key, []int{len(c)}, c)
	case columnar.FloatColumn:
		return zw.PutFloats(key, []int{len(c)}, c)
	case columnar.StringColumn:
		return zw.PutStrings(key, c)
	case columnar.TensorColumn:
		return zw.PutFloats(key, c.Shape, c.Data)
	case columnar.OpaqueColumn:
		data, err := marshalOpaque(c)
		if err != nil {
			return fmt.Errorf("failed to marshal column %q: %w", key, err)
		}
		return zw.PutJSON(key, data)
	default:
		return fmt.Errorf("unknown column type for %q: %T", key, col)
	}
}

func marshalOpaque(col columnar.OpaqueColumn) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range col {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := field.MarshalValue(v)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
