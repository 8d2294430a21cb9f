// Package arrowio exports aggregates as Arrow IPC files.
//
// Each aggregate becomes a single record batch. Unlike the archive layer,
// which stores sparse columns densely and leaves realignment to the
// reader, Arrow columns are realigned here: a record that never produced
// a key gets a null in that key's column, so every column spans the full
// record sequence and row i always means record i.
//
// Column types follow the aggregation ladder: int64, float64 and utf8 for
// the scalar rungs, nested fixed-size lists for stacked tensors, and
// utf8-encoded JSON for boxed fallback columns. Each field carries its
// ladder rung under the "kind" metadata key, and the schema carries the
// per-record provenance array under "key_map".
package arrowio
