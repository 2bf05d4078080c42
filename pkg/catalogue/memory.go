package catalogue

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/goliatone/go-dynform/pkg/schema"
)

// CollectionOption configures a LocalCollection.
type CollectionOption func(*LocalCollection)

// WithCombinations sets the table of valid value combinations the constraint
// function derives allowed values from.
func WithCombinations(combos ...Combination) CollectionOption {
	return func(c *LocalCollection) {
		for _, combo := range combos {
			c.combos = append(c.combos, cloneCombination(combo))
		}
	}
}

// WithRules adds CEL rules evaluated after the combination table.
func WithRules(rules ...Rule) CollectionOption {
	return func(c *LocalCollection) {
		c.rules = append(c.rules, rules...)
	}
}

// WithConstraintFunc replaces the built-in constraint function entirely.
func WithConstraintFunc(fn ConstraintFunc) CollectionOption {
	return func(c *LocalCollection) {
		c.custom = fn
	}
}

// WithCollectionLogger sets the logger used while answering queries.
func WithCollectionLogger(logger *slog.Logger) CollectionOption {
	return func(c *LocalCollection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// LocalCollection is an in-process Collection backed by a raw form and a
// constraint table.
type LocalCollection struct {
	id     string
	title  string
	form   []schema.RawField
	combos []Combination
	rules  []Rule
	custom ConstraintFunc
	logger *slog.Logger

	compiled []compiledRule
	universe map[string][]string
}

var _ Collection = (*LocalCollection)(nil)

// NewCollection builds a collection. Rules are compiled eagerly so a bad
// expression fails here rather than on the first query.
func NewCollection(id, title string, form []schema.RawField, options ...CollectionOption) (*LocalCollection, error) {
	if id == "" {
		return nil, fmt.Errorf("catalogue: collection id is required")
	}
	c := &LocalCollection{
		id:     id,
		title:  title,
		form:   append([]schema.RawField(nil), form...),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.title == "" {
		c.title = id
	}

	for _, rule := range c.rules {
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, fmt.Errorf("catalogue: collection %q: %w", id, err)
		}
		c.compiled = append(c.compiled, compiled)
	}

	// The universe keeps every field, ignored or not, so ordering works for
	// whatever the caller's normalizer decides to drop.
	set, _ := schema.Normalize(c.form, schema.WithIgnoredNames(), schema.WithIgnoredKinds())
	c.universe = make(map[string][]string, set.Len())
	for _, def := range set.Fields() {
		c.universe[def.Name] = def.Values
	}
	return c, nil
}

func (c *LocalCollection) ID() string {
	return c.id
}

func (c *LocalCollection) Title() string {
	return c.title
}

// Form returns the raw records the collection was built with.
func (c *LocalCollection) Form(ctx context.Context) ([]schema.RawField, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]schema.RawField(nil), c.form...), nil
}

// ApplyConstraints answers with the allowed values of every field the
// combination table or a rule speaks about.
func (c *LocalCollection) ApplyConstraints(ctx context.Context, selection Selection) (Constraints, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.custom != nil {
		return c.custom(ctx, selection.Clone())
	}

	out := allowedFromCombinations(c.combos, selection, func(name string, values []string) []string {
		return orderByUniverse(c.universe[name], values)
	})

	for _, rule := range c.compiled {
		candidates, ok := out[rule.Field]
		if !ok {
			candidates = c.universe[rule.Field]
		}
		kept, err := rule.filter(candidates, selection)
		if err != nil {
			return nil, err
		}
		out[rule.Field] = kept
	}

	c.logger.Debug("constraints applied",
		"collection", c.id,
		"selected", len(selection),
		"fields", len(out),
	)
	return out, nil
}

func cloneCombination(c Combination) Combination {
	out := make(Combination, len(c))
	for k, v := range c {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Memory is a Catalogue holding collections in declaration order.
type Memory struct {
	order []string
	byID  map[string]Collection
}

var _ Catalogue = (*Memory)(nil)

// NewMemory builds a catalogue. Duplicate ids are rejected.
func NewMemory(collections ...Collection) (*Memory, error) {
	m := &Memory{byID: make(map[string]Collection, len(collections))}
	for _, c := range collections {
		if c == nil {
			continue
		}
		if _, exists := m.byID[c.ID()]; exists {
			return nil, fmt.Errorf("catalogue: duplicate collection id %q", c.ID())
		}
		m.order = append(m.order, c.ID())
		m.byID[c.ID()] = c
	}
	return m, nil
}

// CollectionIDs lists ids in declaration order.
func (m *Memory) CollectionIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string(nil), m.order...), nil
}

// Collection resolves id or returns ErrCollectionNotFound.
func (m *Memory) Collection(ctx context.Context, id string) (Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCollectionNotFound, id)
	}
	return c, nil
}
