package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/wfnkit/wfnkit/internal/field"
)

// nucleusRE is anchored: the reference only counts at the start of the
// stripped line.
var nucleusRE = regexp.MustCompile(`^Corresponding nucleus:\s*(\d+)\(([^)]+)\)`)

// overflowKey collects numeric lines that appear outside any labeled
// matrix accumulation.
const overflowKey = "values"

// classify applies the field-extraction rules to one stripped body line of
// the open record, in priority order:
//
//  1. blank → flush pending matrix
//  2. nucleus reference → flush, then write index and label fields
//  3. "label: value" → flush, extract tokens, write scalar/vector/text;
//     a matrix-style label additionally opens a new accumulation
//  4. bare numeric line under an open accumulation → one matrix row
//  5. bare numeric line otherwise → overflow bucket
//  6. anything else → no field (the line still lives in the raw span)
func (p *parser) classify(stripped string) {
	if stripped == "" {
		p.flushMatrix()
		return
	}

	if m := nucleusRE.FindStringSubmatch(stripped); m != nil {
		p.flushMatrix()
		p.current.setField("corresponding_nucleus_index",
			"Corresponding nucleus index", field.Scalar(parseDigits(m[1])))
		p.current.setField("corresponding_nucleus_label",
			"Corresponding nucleus label", field.Text(strings.TrimSpace(m[2])))
		return
	}

	if label, value, found := strings.Cut(stripped, ":"); found {
		p.flushMatrix()
		p.classifyLabeled(strings.TrimSpace(label), strings.TrimSpace(value))
		return
	}

	numbers := parseNumbers(stripped)
	if len(numbers) == 0 {
		return
	}
	if p.pendingKey != "" {
		p.pendingRows = append(p.pendingRows, numbers)
		return
	}
	p.appendOverflow(numbers)
}

// classifyLabeled handles a "label: value" line. The token count decides
// the representation. Independently of that, a label ending in "matrix" or
// starting with "eigenvectors" opens matrix accumulation under the same
// key; its provenance is recorded immediately, and a matrix flushed later
// overwrites whatever inline value was written here. Multiwfn emits both
// forms, sometimes on the same label, so both writes happen rather than
// second-guessing which one the line meant.
func (p *parser) classifyLabeled(label, value string) {
	numbers := parseNumbers(value)
	key := field.Sanitize(label)

	lower := strings.ToLower(label)
	if strings.HasSuffix(lower, "matrix") || strings.HasPrefix(lower, "eigenvectors") {
		p.pendingKey = label
		p.pendingRows = nil
		p.current.Provenance.Set(key, label)
	}

	switch {
	case len(numbers) == 1:
		p.current.setField(key, label, field.Scalar(numbers[0]))
	case len(numbers) > 1:
		p.current.setField(key, label, field.Vector(numbers))
	case value != "":
		p.current.setField(key, label, field.Text(value))
	}
}

// appendOverflow grows the anonymous numeric bucket by one token row. If a
// labeled field already claimed the bucket key with a non-matrix value,
// the bucket starts fresh over it (last write wins).
func (p *parser) appendOverflow(numbers []float64) {
	rows := field.Matrix{numbers}
	if existing, ok := p.current.Fields.Get(overflowKey); ok {
		if m, isMatrix := existing.(field.Matrix); isMatrix {
			rows = append(m, numbers)
		}
	}
	p.current.setField(overflowKey, overflowKey, rows)
}

// parseDigits converts a digits-only capture to float64. Values beyond
// int64 simply saturate through ParseFloat; extraction never fails on
// content.
func parseDigits(digits string) float64 {
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return f
}
