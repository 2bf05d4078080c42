package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingName flags records without a usable name.
	ErrMissingName = errors.New("schema: field name is required")
	// ErrMissingType flags records without a raw kind tag.
	ErrMissingType = errors.New("schema: field type is required")
	// ErrUnknownDefault flags default values outside the field's universe.
	ErrUnknownDefault = errors.New("schema: default value not in values")
	// ErrNotAList is returned when a raw form document is not a sequence.
	ErrNotAList = errors.New("schema: raw form must be a list of field records")
)

// SchemaError describes a malformed record that was skipped or repaired.
// Index is the position of the record in the raw input.
type SchemaError struct {
	Index int
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: record %d (%s): %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("schema: record %d: %v", e.Index, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// DuplicateFieldError records a field name seen more than once. The first
// occurrence wins.
type DuplicateFieldError struct {
	Field      string
	FirstIndex int
	Index      int
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("schema: duplicate field %q at record %d (first at %d)", e.Field, e.Index, e.FirstIndex)
}

// Diagnostic is a non-fatal finding produced while decoding or normalizing.
type Diagnostic struct {
	Err error
}

func (d Diagnostic) String() string {
	if d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

// IsDuplicate reports whether the diagnostic wraps a DuplicateFieldError.
func (d Diagnostic) IsDuplicate() bool {
	var dup *DuplicateFieldError
	return errors.As(d.Err, &dup)
}
