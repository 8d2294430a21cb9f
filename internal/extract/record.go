package extract

import (
	"github.com/wfnkit/wfnkit/internal/field"
)

// Record is one critical-point block. It is mutated while its span is
// being parsed and becomes immutable once the next header line (or end of
// input) finalizes it.
//
// Fields holds normalized key → value in first-seen order; the last write
// for a key wins but keeps the key's original position. Provenance maps
// each normalized key back to the original label text and may contain keys
// that never received a value (a matrix-style label is recorded the moment
// it is seen). RawSpan is the verbatim block text: the stripped header
// line followed by the body lines, outer whitespace trimmed.
type Record struct {
	Index      int
	TypeLabel  string
	Fields     *field.Map
	Provenance *field.Labels
	RawSpan    string
}

// newRecord seeds a record with the index and type captured from its
// header line. Both are ordinary fields as well as struct members, so they
// participate in aggregation like anything else.
func newRecord(index int, typeLabel string) *Record {
	r := &Record{
		Index:      index,
		TypeLabel:  typeLabel,
		Fields:     field.NewMap(),
		Provenance: field.NewLabels(),
	}
	r.setField("cp_index", "CP index", field.Scalar(index))
	r.setField("cp_type", "CP type", field.Text(typeLabel))
	return r
}

// setField writes a value and its provenance label under the same key.
func (r *Record) setField(key, label string, v field.Value) {
	r.Fields.Set(key, v)
	r.Provenance.Set(key, label)
}
