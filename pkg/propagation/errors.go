package propagation

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a change names a field the form lacks.
	ErrUnknownField = errors.New("propagation: unknown field")
	// ErrNoConstrainer is returned by New without a constraint source.
	ErrNoConstrainer = errors.New("propagation: constrainer is required")
	// ErrDuplicateController is returned when two controllers share a name.
	ErrDuplicateController = errors.New("propagation: duplicate controller name")
)

// ConstraintQueryError wraps a failed constraint query. The cycle that issued
// it was aborted before touching any controller.
type ConstraintQueryError struct {
	Err error
}

func (e *ConstraintQueryError) Error() string {
	return fmt.Sprintf("propagation: constraint query failed: %v", e.Err)
}

func (e *ConstraintQueryError) Unwrap() error {
	return e.Err
}
