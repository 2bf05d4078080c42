package session

import (
	"context"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// Surface displays a form. Hosts implement it; the session pushes a fresh
// View after each change.
type Surface interface {
	Show(ctx context.Context, view View) error
}

// SurfaceFunc adapts a function into a Surface.
type SurfaceFunc func(ctx context.Context, view View) error

// Show calls f.
func (f SurfaceFunc) Show(ctx context.Context, view View) error {
	return f(ctx, view)
}

// View is a serialisable snapshot of a session.
type View struct {
	CollectionID string           `json:"collection_id"`
	Title        string           `json:"title"`
	Collections  []CollectionView `json:"collections"`
	Fields       []FieldView      `json:"fields"`
}

// CollectionView is one entry of the collection selector.
type CollectionView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Selected bool   `json:"selected"`
}

// FieldView describes one field as a surface should draw it.
type FieldView struct {
	Name     string       `json:"name"`
	Kind     schema.Kind  `json:"kind"`
	Title    string       `json:"title"`
	Help     string       `json:"help,omitempty"`
	Columns  int          `json:"columns,omitempty"`
	Options  []OptionView `json:"options"`
	Selected []string     `json:"selected"`
}

// OptionView is one allowed value with its label.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Field returns the view of name.
func (v View) Field(name string) (FieldView, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldView{}, false
}

// Multiple reports whether the field accepts more than one value.
func (f FieldView) Multiple() bool {
	return f.Kind != schema.KindSingleSelect
}
