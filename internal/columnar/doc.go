// Package columnar pivots parsed records into per-key arrays.
//
// The aggregate's key set is the first-seen union of all records' field
// keys. A key's array is built only from the records that define it: sparse
// keys produce shorter arrays, not padded ones, and each column carries the
// indices of its contributing records so consumers that need full alignment
// (the Arrow export does) can realign explicitly.
//
// Per key the representation is decided by a fixed ladder: integer array,
// float array, string array, stacked fixed-shape tensor, and finally an
// opaque column boxing the original values. Shape mismatches are never an
// error; they land on the opaque rung.
package columnar
