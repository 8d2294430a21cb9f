package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wfnkit/wfnkit/internal/field"
)

// headerRE captures the record index and parenthesized type label from a
// divider line such as
//
//	----------------   CP 12,     Type (3,-1)   ----------------
var headerRE = regexp.MustCompile(`CP\s+(\d+),\s+Type\s+\(([^)]+)\)`)

// parser carries the state machine for one parse: the finished records,
// the record under construction with its raw span lines, and the optional
// pending-matrix accumulation.
type parser struct {
	records  []*Record
	current  *Record
	rawLines []string

	// pendingKey is the raw (unsanitized) label of a matrix-style field
	// whose rows are still accumulating. Empty means no pending matrix.
	pendingKey  string
	pendingRows [][]float64
}

// Parse runs the segmenter and line classifier over a decoded text buffer
// and returns the finalized records in input order. Zero records from a
// non-empty input is a normal outcome; callers decide whether to treat it
// as an error. The result is deterministic for identical input.
func Parse(text string) []*Record {
	p := &parser{}
	for _, line := range splitLines(text) {
		p.feed(line)
	}
	p.finalizeCurrent()
	return p.records
}

// feed routes one raw line: header candidates may open a new record, body
// lines go to the classifier, anything before the first header is
// discarded.
func (p *parser) feed(line string) {
	stripped := strings.TrimSpace(line)

	if isHeaderCandidate(stripped) {
		index, typeLabel, ok := parseHeader(stripped)
		if !ok {
			// Divider that merely resembles a header: not a record
			// boundary, and not part of any raw span.
			return
		}
		p.finalizeCurrent()
		p.current = newRecord(index, typeLabel)
		p.rawLines = []string{stripped}
		return
	}

	if p.current == nil {
		return
	}
	p.rawLines = append(p.rawLines, line)
	p.classify(stripped)
}

// finalizeCurrent flushes any pending matrix, captures the raw span (also
// exposed as the raw_block field), and appends the record. No-op when no
// record is open.
func (p *parser) finalizeCurrent() {
	if p.current == nil {
		return
	}
	p.flushMatrix()
	p.current.RawSpan = strings.TrimSpace(strings.Join(p.rawLines, "\n"))
	p.current.Fields.Set("raw_block", field.Text(p.current.RawSpan))
	p.records = append(p.records, p.current)
	p.current = nil
	p.rawLines = nil
	p.pendingKey = ""
	p.pendingRows = nil
}

// flushMatrix writes the accumulated rows as a Matrix field under the
// pending key and clears the accumulation. With zero accumulated rows
// nothing is written, so an inline value stored under the same key
// survives.
func (p *parser) flushMatrix() {
	if p.pendingKey != "" && len(p.pendingRows) > 0 {
		key := field.Sanitize(p.pendingKey)
		p.current.setField(key, p.pendingKey, field.Matrix(p.pendingRows))
	}
	p.pendingKey = ""
	p.pendingRows = nil
}

// isHeaderCandidate is the cheap screen applied before the capture regex.
func isHeaderCandidate(stripped string) bool {
	return strings.HasPrefix(stripped, "----------------") &&
		strings.Contains(stripped, "CP") &&
		strings.Contains(stripped, "Type")
}

// parseHeader extracts the record index and type label. ok is false when
// the capture fails, including an index too large for int.
func parseHeader(stripped string) (index int, typeLabel string, ok bool) {
	m := headerRE.FindStringSubmatch(stripped)
	if m == nil {
		return 0, "", false
	}
	index, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return index, strings.TrimSpace(m[2]), true
}

// splitLines splits on newlines and drops carriage returns so DOS-encoded
// output parses identically.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
