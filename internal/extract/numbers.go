package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// floatRE matches a decimal or scientific-notation float token. Fortran
// D-exponents are normalized to E before matching, so "0.1527D-02" is one
// token.
var floatRE = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// parseNumbers extracts every float token from text. Substrings that do
// not match the float grammar are simply not tokens. A token whose value
// overflows float64 keeps the ±Inf result rather than being dropped.
func parseNumbers(text string) []float64 {
	normalized := strings.ReplaceAll(text, "D", "E")
	matches := floatRE.FindAllString(normalized, -1)
	if len(matches) == 0 {
		return nil
	}
	nums := make([]float64, 0, len(matches))
	for _, m := range matches {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			continue
		}
		nums = append(nums, f)
	}
	if len(nums) == 0 {
		return nil
	}
	return nums
}
