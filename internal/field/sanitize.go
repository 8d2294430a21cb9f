package field

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRE      = regexp.MustCompile(`[^a-z0-9]+`)
	underscoreRunRE = regexp.MustCompile(`_+`)
)

// Sanitize normalizes a human-readable field label into a stable
// identifier: lower-case, "(columns)" becomes "columns", every run of
// characters outside [a-z0-9] becomes a single underscore, runs of
// underscores collapse, and leading/trailing underscores are stripped.
// An empty result becomes the literal "field".
//
// Sanitize is pure and idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(label string) string {
	s := strings.ToLower(label)
	s = strings.ReplaceAll(s, "(columns)", "columns")
	s = nonAlnumRE.ReplaceAllString(s, "_")
	s = underscoreRunRE.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "field"
	}
	return s
}
