package field

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a sealed interface over the four field representations a record
// line can produce. Only Scalar, Vector, Matrix, and Text implement it.
// A value never changes variant after extraction; reconciliation across
// records happens at aggregation time, not here.
type Value interface {
	fieldValue() // Sealed - only these types implement it

	// Kind returns the variant name: "scalar", "vector", "matrix" or "text".
	Kind() string
}

// Scalar is a single numeric value.
type Scalar float64

func (Scalar) fieldValue() {}

// Kind implements Value.
func (Scalar) Kind() string { return "scalar" }

// Vector is an ordered row of numeric values.
type Vector []float64

func (Vector) fieldValue() {}

// Kind implements Value.
func (Vector) Kind() string { return "vector" }

// Matrix is an ordered list of numeric rows. Rows are not required to have
// equal length; ragged matrices are legal here and only resolved (or boxed)
// during aggregation.
type Matrix [][]float64

func (Matrix) fieldValue() {}

// Kind implements Value.
func (Matrix) Kind() string { return "matrix" }

// Text is a non-numeric field value, kept verbatim after trimming.
type Text string

func (Text) fieldValue() {}

// Kind implements Value.
func (Text) Kind() string { return "text" }

// IsInteger reports whether s holds an exactly representable integer.
// Non-finite values and magnitudes beyond 2^53 are not integers: above
// that float64 no longer distinguishes consecutive integers.
func (s Scalar) IsInteger() bool {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f == math.Trunc(f) && math.Abs(f) <= 1<<53
}

// AppendFloat appends the canonical JSON encoding of f to dst: shortest
// round-trip decimal form. JSON has no encoding for non-finite floats, so
// those become quoted "Infinity", "-Infinity" and "NaN" rather than
// failing the whole document.
func AppendFloat(dst []byte, f float64) []byte {
	switch {
	case math.IsInf(f, 1):
		return append(dst, `"Infinity"`...)
	case math.IsInf(f, -1):
		return append(dst, `"-Infinity"`...)
	case math.IsNaN(f):
		return append(dst, `"NaN"`...)
	default:
		return strconv.AppendFloat(dst, f, 'g', -1, 64)
	}
}

func appendFloat(buf *bytes.Buffer, f float64) {
	buf.Write(AppendFloat(nil, f))
}

// MarshalJSON implements json.Marshaler for Scalar.
func (s Scalar) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	appendFloat(&buf, float64(s))
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for Vector.
func (v Vector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		appendFloat(&buf, f)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for Matrix.
func (m Matrix) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		rowBytes, err := Vector(row).MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(rowBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for Text.
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

// MarshalValue marshals any Value to JSON bytes using type-switch dispatch.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Scalar:
		return val.MarshalJSON()
	case Vector:
		return val.MarshalJSON()
	case Matrix:
		return val.MarshalJSON()
	case Text:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown field value type: %T", v)
	}
}
