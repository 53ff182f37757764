package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a catalog compilation failure with source position.
type CompileError struct {
	// Field names the catalog entry and field that failed, e.g.
	// "recipe.iron-gear.time".
	Field string

	// Message describes what is wrong.
	Message string

	// Pos points into the CUE source when available.
	Pos token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// formatCUEError converts a raw CUE error into a CompileError,
// preserving the first position CUE reports.
func formatCUEError(field string, err error) *CompileError {
	ce := &CompileError{Field: field, Message: errors.Details(err, nil)}
	if positions := errors.Positions(errors.Promote(err, "")); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
