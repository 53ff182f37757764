// Package store provides SQLite-backed durable storage for saved plans.
//
// A plan is stored as one row keyed by name: the plan document as JSON
// plus its canonical content hash. Saving a plan whose hash matches the
// stored row is a no-op, so repeated saves of an unchanged plan do not
// touch the saved_at timestamp.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Content hashes are computed in internal/plan using RFC 8785 canonical
// JSON and SHA-256 with domain separation.
package store
