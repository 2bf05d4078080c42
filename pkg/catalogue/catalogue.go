package catalogue

import (
	"context"
	"errors"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// ErrCollectionNotFound is returned when a catalogue has no collection for the
// requested id.
var ErrCollectionNotFound = errors.New("catalogue: collection not found")

// Selection maps field names to their non-empty selected values.
type Selection map[string][]string

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Constraints maps field names to their currently allowed values. Responses
// are sparse: a field missing from the map keeps its current allowed values.
type Constraints map[string][]string

// Catalogue lists collections and resolves them by id.
type Catalogue interface {
	CollectionIDs(ctx context.Context) ([]string, error)
	Collection(ctx context.Context, id string) (Collection, error)
}

// Collection is one dataset with its raw form and constraint function.
type Collection interface {
	ID() string
	Title() string
	Form(ctx context.Context) ([]schema.RawField, error)
	ApplyConstraints(ctx context.Context, selection Selection) (Constraints, error)
}

// ConstraintFunc adapts a function into the constraint half of a Collection.
type ConstraintFunc func(ctx context.Context, selection Selection) (Constraints, error)

// ApplyConstraints calls f.
func (f ConstraintFunc) ApplyConstraints(ctx context.Context, selection Selection) (Constraints, error) {
	return f(ctx, selection)
}
