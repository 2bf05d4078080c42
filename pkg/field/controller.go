// Package field holds the per-field selection state and the three controller
// variants (multi-select, single-select, free multi-select) that own it.
package field

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// ErrInvalidSelectionState signals a selection that escaped its allowed
// values. Controllers never produce it; seeing it means a bug.
var ErrInvalidSelectionState = errors.New("field: selection not a subset of allowed values")

// State is a copy of a controller's mutable state.
type State struct {
	Selection []string `json:"selection"`
	Allowed   []string `json:"allowed"`
}

// Controller owns one field's State. Selection is always a subset of Allowed.
// Controllers are not safe for concurrent use; the propagation engine
// serialises access.
type Controller interface {
	Name() string
	Kind() schema.Kind
	Definition() schema.FieldDefinition

	// Value returns the current selection in controller order.
	Value() []string
	// Allowed returns the currently permitted values.
	Allowed() []string
	State() State

	// SetValue is the user-driven mutation. The selection becomes the allowed
	// subset of values; disallowed input is dropped, never reported.
	SetValue(values ...string)
	// ApplyAllowed replaces the allowed values and clears selections that are
	// no longer permitted.
	ApplyAllowed(values []string)
	// ClearInvalid drops selected values outside Allowed and reports whether
	// anything changed.
	ClearInvalid() bool
}

// New builds the controller matching the definition's kind. Unknown kinds get
// multi-select behaviour while still reporting their raw kind. The initial
// allowed values are the full universe and the selection holds the defaults.
func New(def schema.FieldDefinition) Controller {
	def = def.Clone()
	b := newBase(def)
	switch def.Kind {
	case schema.KindSingleSelect:
		c := &SingleSelect{base: b}
		if len(def.Defaults) > 0 {
			c.SetValue(def.Defaults[0])
		}
		return c
	case schema.KindFreeMulti:
		c := &FreeMulti{base: b}
		c.SetValue(def.Defaults...)
		return c
	default:
		c := &MultiSelect{base: b}
		c.SetValue(def.Defaults...)
		return c
	}
}

// Validate checks the subset invariant for a controller.
func Validate(c Controller) error {
	allowed := make(map[string]struct{}, len(c.Allowed()))
	for _, v := range c.Allowed() {
		allowed[v] = struct{}{}
	}
	for _, v := range c.Value() {
		if _, ok := allowed[v]; !ok {
			return fmt.Errorf("%w: field %q value %q", ErrInvalidSelectionState, c.Name(), v)
		}
	}
	return nil
}

// base carries what every variant shares: the definition, the ordered allowed
// list with its lookup set, and the ordered selection.
type base struct {
	def        schema.FieldDefinition
	allowed    []string
	allowedSet map[string]struct{}
	selection  []string
}

func newBase(def schema.FieldDefinition) base {
	b := base{def: def}
	b.replaceAllowed(def.Values)
	return b
}

func (b *base) Name() string {
	return b.def.Name
}

func (b *base) Kind() schema.Kind {
	return b.def.Kind
}

func (b *base) Definition() schema.FieldDefinition {
	return b.def.Clone()
}

func (b *base) Value() []string {
	return append([]string(nil), b.selection...)
}

func (b *base) Allowed() []string {
	return append([]string(nil), b.allowed...)
}

func (b *base) State() State {
	return State{Selection: b.Value(), Allowed: b.Allowed()}
}

func (b *base) ApplyAllowed(values []string) {
	b.replaceAllowed(values)
	b.ClearInvalid()
}

func (b *base) ClearInvalid() bool {
	kept := b.selection[:0:0]
	for _, v := range b.selection {
		if b.isAllowed(v) {
			kept = append(kept, v)
		}
	}
	changed := len(kept) != len(b.selection)
	b.selection = kept
	return changed
}

func (b *base) replaceAllowed(values []string) {
	b.allowed = dedupe(values)
	b.allowedSet = make(map[string]struct{}, len(b.allowed))
	for _, v := range b.allowed {
		b.allowedSet[v] = struct{}{}
	}
}

func (b *base) isAllowed(value string) bool {
	_, ok := b.allowedSet[value]
	return ok
}

// allowedSubset keeps allowed values from input, deduplicated, in input order.
func (b *base) allowedSubset(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if !b.isAllowed(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
