// Package plan defines the persisted data model of a production plan:
// nodes (placed recipe instances), edges (item-typed connections), and
// the document that bundles them for import/export.
//
// The package also provides the canonical JSON encoder and the
// content-addressed document hash used for persistence deduplication
// and golden-trace comparison. Everything here is passive data; the
// engine package owns mutation and rate computation.
package plan
