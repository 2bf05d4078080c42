// Package dynform builds interactive selection forms whose allowed values are
// narrowed by a collection's constraint function as the user picks values.
package dynform

import (
	"context"

	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/field"
	"github.com/goliatone/go-dynform/pkg/propagation"
	"github.com/goliatone/go-dynform/pkg/request"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/session"
)

// Option configures the session behind a Handle.
type Option = session.Option

// Surface receives a view of the form after every build and cycle.
type Surface = session.Surface

// Request aliases request.Request for callers of ExtractRequest.
type Request = request.Request

// ErrStaleField is returned by FieldHandle.Set and Toggle once the handle's
// form has been replaced by another collection.
var ErrStaleField = session.ErrStaleField

// WithSurface attaches a display surface.
func WithSurface(surface Surface) Option {
	return session.WithSurface(surface)
}

// WithInitialCollection selects id instead of the catalogue's first
// collection. Pass session.NoCollection to start with an empty form.
func WithInitialCollection(id string) Option {
	return session.WithInitialCollection(id)
}

// Handle is the collection selector plus the fields of the selected form.
type Handle struct {
	session *session.Session
}

// Build lists the catalogue's collections, builds the initial form and runs its
// first constraint cycle.
func Build(ctx context.Context, cat catalogue.Catalogue, options ...Option) (*Handle, error) {
	s, err := session.New(ctx, cat, options...)
	if err != nil {
		return nil, err
	}
	return &Handle{session: s}, nil
}

// Session exposes the underlying form session.
func (h *Handle) Session() *session.Session {
	return h.session
}

// Collections lists the selectable collection ids.
func (h *Handle) Collections() []string {
	return h.session.CollectionIDs()
}

// Selected returns the current collection id.
func (h *Handle) Selected() string {
	return h.session.CollectionID()
}

// Select rebuilds the form for collection id.
func (h *Handle) Select(ctx context.Context, id string) error {
	return h.session.Select(ctx, id)
}

// Fields maps every field of the current form to its control. Controls stay
// bound to that form: after Select they still read the old form's state, and
// Set or Toggle on them fails with ErrStaleField.
func (h *Handle) Fields() map[string]*FieldHandle {
	engine := h.session.Engine()
	names := engine.Names()
	out := make(map[string]*FieldHandle, len(names))
	for _, name := range names {
		out[name] = &FieldHandle{session: h.session, engine: engine, name: name}
	}
	return out
}

// FieldNames returns the current field names in form order.
func (h *Handle) FieldNames() []string {
	return h.session.Form().Fields.Names()
}

// FieldHandle controls one field of the form it was taken from.
type FieldHandle struct {
	session *session.Session
	engine  *propagation.Engine
	name    string
}

// Name returns the field name.
func (f *FieldHandle) Name() string {
	return f.name
}

// Definition returns the field's definition.
func (f *FieldHandle) Definition() schema.FieldDefinition {
	def, _ := f.engine.Definition(f.name)
	return def
}

// State returns a copy of the field state.
func (f *FieldHandle) State() field.State {
	state, _ := f.engine.State(f.name)
	return state
}

// Value returns the current selection.
func (f *FieldHandle) Value() []string {
	return f.State().Selection
}

// Allowed returns the currently allowed values.
func (f *FieldHandle) Allowed() []string {
	return f.State().Allowed
}

// Stale reports whether another collection has been selected since the
// handle was taken.
func (f *FieldHandle) Stale() bool {
	return f.session.Engine() != f.engine
}

// Set replaces the selection and runs a constraint cycle.
func (f *FieldHandle) Set(ctx context.Context, values ...string) error {
	return f.session.SetOn(ctx, f.engine, f.name, values...)
}

// Toggle flips one value of the selection.
func (f *FieldHandle) Toggle(ctx context.Context, value string) error {
	return f.session.ToggleOn(ctx, f.engine, f.name, value)
}

// ExtractRequest returns the collection id and the submission mapping of the
// handle's current form.
func ExtractRequest(h *Handle) (string, Request) {
	return request.Extract(h.session)
}
