// Package field provides the value types shared by the extraction pipeline.
//
// This package contains type definitions and the key sanitizer only. All
// other internal packages import field; field imports nothing internal.
// This keeps it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Value is a sealed variant (Scalar, Vector, Matrix, Text); consumers
//     type-switch exhaustively instead of probing dynamic types
//   - Map and Labels preserve insertion order so downstream output is
//     byte-for-byte reproducible
//   - Sanitize is pure and idempotent
package field
