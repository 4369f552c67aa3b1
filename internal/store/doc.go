// Package store provides SQLite-backed storage for parsed programs,
// optimizer output and the run log.
//
// The database holds three tables:
//   - programs: parsed instruction sequences keyed by ir.ProgramHash
//   - compilations: optimizer output keyed by program hash and config hash
//   - runs: one record per evaluation, with input, output and error code
//
// # Ordering
//
// Every table carries a seq column assigned by the store. Listings are
// ordered by seq, never by wall-clock time, so a replay of the run log is
// deterministic.
//
// # Encoding
//
// Instruction sequences are stored as canonical CBOR. Configurations are
// stored as canonical JSON, the same bytes ir.ConfigHash hashes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
