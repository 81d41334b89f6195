// Package store provides SQLite-backed storage for program versions and
// their rendered explanations.
//
// A version is identified by (program, version) and content-addressed by
// ir.ProgramHash. Saving the same version twice is a no-op; saving
// different content under an existing (program, version) is an error.
//
// # Ordering
//
// Versions carry a seq counter assigned at save time. All list queries use
// ORDER BY seq ASC, id ASC COLLATE BINARY so results never depend on wall
// time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
