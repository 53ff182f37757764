// Package catalog holds the static reference data for the planner:
// recipes, machine tiers, and modules, plus the pure derivation
// functions over them (effective speed, bonus totals, module legality,
// machine counts).
//
// A Catalog is immutable after construction. It is loaded once at
// process start (from compiled CUE data or a test fixture) and shared
// read-only by the engine and the CLI. Reverse indices (item to
// producing recipes, item to consuming recipes) are built eagerly so
// lookups during solving are allocation-free.
package catalog
