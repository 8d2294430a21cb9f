// Package extract parses Multiwfn critical-point output into records.
//
// The parser is a single-pass, line-oriented state machine with three
// states: idle (before the first header), in-record, and in-record with a
// pending matrix accumulation. A decorative divider line carrying
// "CP <n>, Type (<label>)" opens a new record and finalizes the previous
// one; end of input finalizes the last. Divider lines that fail the
// index/type capture are ignored outright - they neither finalize the open
// record nor enter its raw span, so unrelated separators cannot create
// spurious record boundaries.
//
// Parsing never fails on malformed content. Multiwfn's text format is not
// contractually stable, so partial extraction always beats a hard error:
// unreadable bytes are substituted, unparseable tokens are dropped, and a
// line that fits no rule still contributes to the record's raw span.
//
// The parser owns exactly one in-progress record and one pending-matrix
// accumulator; there is no package-level mutable state, so any number of
// parses may run concurrently over their own inputs.
package extract
