// Package session binds a catalogue to the form of its selected collection.
// Choosing a collection rebuilds the form wholesale; field changes flow
// through the collection's propagation engine.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/field"
	"github.com/goliatone/go-dynform/pkg/propagation"
	"github.com/goliatone/go-dynform/pkg/schema"
)

// NoCollection is the sentinel id for "no collection selected": an empty
// form without controllers.
const NoCollection = "none"

// ErrNoCatalogue is returned by New without a catalogue.
var ErrNoCatalogue = errors.New("session: catalogue is required")

// ErrStaleField is returned when a change targets a form that has since
// been replaced by another collection.
var ErrStaleField = errors.New("session: field belongs to a replaced form")

// Field pairs a definition with a copy of its current state.
type Field struct {
	Definition schema.FieldDefinition
	State      field.State
}

// Session holds the current form. It is safe for concurrent use.
type Session struct {
	catalogue        catalogue.Catalogue
	logger           *slog.Logger
	surface          Surface
	initial          string
	normalizeOptions []schema.NormalizeOption
	engineOptions    []propagation.Option

	ids    []string
	titles map[string]string

	mu      sync.RWMutex
	current *build
}

// build is everything derived from one collection. It is replaced, never
// mutated, when the collection changes.
type build struct {
	form   schema.Form
	engine *propagation.Engine
	diags  []schema.Diagnostic
}

// New lists the catalogue's collections and builds the initial form.
func New(ctx context.Context, cat catalogue.Catalogue, options ...Option) (*Session, error) {
	if cat == nil {
		return nil, ErrNoCatalogue
	}
	s := &Session{
		catalogue: cat,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		titles:    make(map[string]string),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	ids, err := cat.CollectionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: list collections: %w", err)
	}
	s.ids = ids
	for _, id := range ids {
		title := id
		if c, err := cat.Collection(ctx, id); err == nil && c.Title() != "" {
			title = c.Title()
		}
		s.titles[id] = title
	}

	initial := s.initial
	if initial == "" {
		initial = NoCollection
		if len(ids) > 0 {
			initial = ids[0]
		}
	}
	if err := s.Select(ctx, initial); err != nil {
		return nil, err
	}
	return s, nil
}

// Select replaces the form with the one of collection id. The new form runs
// its first cycle before it becomes visible; on any failure the previous form
// stays in place and the error is returned.
func (s *Session) Select(ctx context.Context, id string) error {
	next, err := s.build(ctx, id)
	if err != nil {
		s.logger.Warn("collection not selected", "collection", id, "error", err)
		return err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.logger.Info("collection selected",
		"collection", id,
		"fields", next.form.Fields.Len(),
		"diagnostics", len(next.diags),
	)
	return s.show(ctx)
}

func (s *Session) build(ctx context.Context, id string) (*build, error) {
	if id == NoCollection {
		engine, err := propagation.New(noConstraints, nil, s.engineOpts()...)
		if err != nil {
			return nil, err
		}
		return &build{form: schema.Form{CollectionID: NoCollection}, engine: engine}, nil
	}

	coll, err := s.catalogue.Collection(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session: select %q: %w", id, err)
	}
	raw, err := coll.Form(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: form of %q: %w", id, err)
	}

	normalizer := schema.NewNormalizer(append([]schema.NormalizeOption{schema.WithLogger(s.logger)}, s.normalizeOptions...)...)
	set, diags := normalizer.Normalize(raw)

	controllers := make([]field.Controller, 0, set.Len())
	for _, def := range set.Fields() {
		controllers = append(controllers, field.New(def))
	}
	engine, err := propagation.New(coll, controllers, s.engineOpts()...)
	if err != nil {
		return nil, fmt.Errorf("session: select %q: %w", id, err)
	}
	if err := engine.Run(ctx); err != nil {
		return nil, fmt.Errorf("session: select %q: %w", id, err)
	}

	title := coll.Title()
	if title == "" {
		title = id
	}
	return &build{
		form:   schema.Form{CollectionID: id, Title: title, Fields: set},
		engine: engine,
		diags:  diags,
	}, nil
}

func (s *Session) engineOpts() []propagation.Option {
	return append([]propagation.Option{propagation.WithLogger(s.logger)}, s.engineOptions...)
}

var noConstraints = catalogue.ConstraintFunc(func(context.Context, catalogue.Selection) (catalogue.Constraints, error) {
	return catalogue.Constraints{}, nil
})

func (s *Session) snapshot() *build {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set changes a field's selection and runs a constraint cycle. When another
// caller is mid-cycle on this form the change is queued: Set returns nil at
// once and that caller runs the change and pushes the resulting view.
func (s *Session) Set(ctx context.Context, name string, values ...string) error {
	return s.set(ctx, s.snapshot(), name, values...)
}

// SetOn is Set bound to the form engine drives. Once another collection has
// been selected it fails with ErrStaleField and changes nothing.
func (s *Session) SetOn(ctx context.Context, engine *propagation.Engine, name string, values ...string) error {
	cur, err := s.bound(engine, name)
	if err != nil {
		return err
	}
	return s.set(ctx, cur, name, values...)
}

// Toggle flips value in a multi-value field's selection, or selects it in a
// single-select field.
func (s *Session) Toggle(ctx context.Context, name, value string) error {
	return s.toggle(ctx, s.snapshot(), name, value)
}

// ToggleOn is Toggle bound to the form engine drives.
func (s *Session) ToggleOn(ctx context.Context, engine *propagation.Engine, name, value string) error {
	cur, err := s.bound(engine, name)
	if err != nil {
		return err
	}
	return s.toggle(ctx, cur, name, value)
}

func (s *Session) bound(engine *propagation.Engine, name string) (*build, error) {
	cur := s.snapshot()
	if engine == nil || cur.engine != engine {
		return nil, fmt.Errorf("%w: %q", ErrStaleField, name)
	}
	return cur, nil
}

func (s *Session) set(ctx context.Context, cur *build, name string, values ...string) error {
	ran, err := cur.engine.Submit(ctx, name, values...)
	if err != nil || !ran {
		return err
	}
	return s.show(ctx)
}

func (s *Session) toggle(ctx context.Context, cur *build, name, value string) error {
	state, ok := cur.engine.State(name)
	if !ok {
		return fmt.Errorf("%w: %q", propagation.ErrUnknownField, name)
	}
	def, _ := cur.engine.Definition(name)
	if def.Kind == schema.KindSingleSelect {
		return s.set(ctx, cur, name, value)
	}

	next := make([]string, 0, len(state.Selection)+1)
	found := false
	for _, v := range state.Selection {
		if v == value {
			found = true
			continue
		}
		next = append(next, v)
	}
	if !found {
		next = append(next, value)
	}
	return s.set(ctx, cur, name, next...)
}

// Engine returns the engine of the current form. Selecting a collection
// replaces it.
func (s *Session) Engine() *propagation.Engine {
	return s.snapshot().engine
}

// Current returns the collection id and the non-empty selections of one
// form, read together.
func (s *Session) Current() (string, catalogue.Selection) {
	cur := s.snapshot()
	return cur.form.CollectionID, cur.engine.Snapshot()
}

// CollectionID returns the selected collection id.
func (s *Session) CollectionID() string {
	return s.snapshot().form.CollectionID
}

// CollectionIDs lists the catalogue's collections.
func (s *Session) CollectionIDs() []string {
	return append([]string(nil), s.ids...)
}

// Form returns the current form.
func (s *Session) Form() schema.Form {
	return s.snapshot().form
}

// Diagnostics returns what normalization reported for the current form.
func (s *Session) Diagnostics() []schema.Diagnostic {
	return append([]schema.Diagnostic(nil), s.snapshot().diags...)
}

// Snapshot returns the non-empty selections of the current form.
func (s *Session) Snapshot() catalogue.Selection {
	return s.snapshot().engine.Snapshot()
}

// Field returns one field of the current form.
func (s *Session) Field(name string) (Field, bool) {
	cur := s.snapshot()
	def, ok := cur.form.Fields.Get(name)
	if !ok {
		return Field{}, false
	}
	state, _ := cur.engine.State(name)
	return Field{Definition: def, State: state}, true
}

// Fields returns every field of the current form in form order.
func (s *Session) Fields() []Field {
	cur := s.snapshot()
	states := cur.engine.States()
	defs := cur.form.Fields.Fields()
	out := make([]Field, 0, len(defs))
	for _, def := range defs {
		out = append(out, Field{Definition: def, State: states[def.Name]})
	}
	return out
}

// Observe registers an engine listener on the current form. The listener is
// dropped with the form when another collection is selected.
func (s *Session) Observe(listener propagation.Listener) func() {
	return s.snapshot().engine.Observe(listener)
}

// View builds a serialisable snapshot of the session.
func (s *Session) View() View {
	cur := s.snapshot()
	view := View{
		CollectionID: cur.form.CollectionID,
		Title:        cur.form.Title,
		Collections:  make([]CollectionView, 0, len(s.ids)+1),
		Fields:       make([]FieldView, 0, cur.form.Fields.Len()),
	}

	view.Collections = append(view.Collections, CollectionView{
		ID:       NoCollection,
		Title:    "None",
		Selected: cur.form.CollectionID == NoCollection,
	})
	for _, id := range s.ids {
		view.Collections = append(view.Collections, CollectionView{
			ID:       id,
			Title:    s.titles[id],
			Selected: id == cur.form.CollectionID,
		})
	}

	states := cur.engine.States()
	for _, def := range cur.form.Fields.Fields() {
		state := states[def.Name]
		selected := make(map[string]struct{}, len(state.Selection))
		for _, v := range state.Selection {
			selected[v] = struct{}{}
		}
		fv := FieldView{
			Name:     def.Name,
			Kind:     def.Kind,
			Title:    def.Title,
			Help:     def.Help,
			Columns:  def.Columns,
			Options:  make([]OptionView, 0, len(state.Allowed)),
			Selected: state.Selection,
		}
		if fv.Selected == nil {
			fv.Selected = []string{}
		}
		for _, v := range state.Allowed {
			_, on := selected[v]
			fv.Options = append(fv.Options, OptionView{Value: v, Label: def.Label(v), Selected: on})
		}
		view.Fields = append(view.Fields, fv)
	}
	return view
}

func (s *Session) show(ctx context.Context) error {
	if s.surface == nil {
		return nil
	}
	if err := s.surface.Show(ctx, s.View()); err != nil {
		return fmt.Errorf("session: surface: %w", err)
	}
	return nil
}
