// Package catalog provides SQLite-backed storage for the run history.
//
// Every artifact-producing command records one row: what ran, against
// which wavefunction, what it produced and how it exited. Run IDs are
// time-sortable UUIDv7 strings, so a truncated prefix is usually enough
// to name a run on the command line.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package catalog
