package extract

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Decode converts raw file bytes into a UTF-8 string, replacing ill-formed
// byte sequences with U+FFFD. Scientific tool output occasionally carries
// stray bytes from locale mishaps; decoding must not be the reason a parse
// aborts.
func Decode(raw []byte) string {
	out, _, err := transform.Bytes(runes.ReplaceIllFormed(), raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
