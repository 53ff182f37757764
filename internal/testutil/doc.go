// Package testutil provides shared fixtures for tests: a small but
// representative catalog and deterministic ID generation. Production
// code must not import it.
package testutil
