package columnar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/wfnkit/wfnkit/internal/field"
)

// MarshalJSON emits the aggregate byte-for-byte deterministically: the
// record count, the columns in first-seen key order, and the per-record
// provenance array under "key_map" (the same name the archive layer
// uses). Sparse columns additionally list their contributing record
// indices.
func (a *Aggregate) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"records":`)
	buf.WriteString(strconv.Itoa(a.count))
	buf.WriteString(`,"columns":{`)
	for i, key := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", key, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		if err := writeColumn(&buf, a.columns[key], a.sources[key], a.count); err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", key, err)
		}
	}
	buf.WriteString(`},"key_map":`)
	keyMap, err := a.KeyMapJSON()
	if err != nil {
		return nil, err
	}
	buf.Write(keyMap)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// KeyMapJSON encodes the per-record provenance maps as a JSON array, one
// object per record in record order. The exporters embed this payload
// verbatim, so in-memory, archive and IPC views of a run agree on it.
func (a *Aggregate) KeyMapJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, labels := range a.provenance {
		if i > 0 {
			buf.WriteByte(',')
		}
		labelBytes, err := labels.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(labelBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeColumn(buf *bytes.Buffer, col Column, sources []int, total int) error {
	buf.WriteString(`{"kind":"`)
	buf.WriteString(col.Kind())
	buf.WriteByte('"')

	if col.Len() != total {
		buf.WriteString(`,"records":`)
		writeInts(buf, sources)
	}

	switch c := col.(type) {
	case IntColumn:
		buf.WriteString(`,"values":[`)
		for i, v := range c {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.FormatInt(v, 10))
		}
		buf.WriteByte(']')
	case FloatColumn:
		buf.WriteString(`,"values":`)
		writeFloats(buf, c)
	case StringColumn:
		buf.WriteString(`,"values":[`)
		for i, v := range c {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
	case TensorColumn:
		buf.WriteString(`,"shape":`)
		writeInts(buf, c.Shape)
		buf.WriteString(`,"values":`)
		writeFloats(buf, c.Data)
	case OpaqueColumn:
		buf.WriteString(`,"values":[`)
		for i, v := range c {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := field.MarshalValue(v)
			if err != nil {
				return err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unknown column type: %T", col)
	}

	buf.WriteByte('}')
	return nil
}

func writeInts(buf *bytes.Buffer, vals []int) {
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(v))
	}
	buf.WriteByte(']')
}

func writeFloats(buf *bytes.Buffer, vals []float64) {
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(field.AppendFloat(nil, v))
	}
	buf.WriteByte(']')
}
