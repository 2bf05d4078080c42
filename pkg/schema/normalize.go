package schema

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// DefaultIgnoredNames lists fields that never constrain a request, such as
// output format selectors.
var DefaultIgnoredNames = []string{"download_format", "data_format"}

// DefaultIgnoredKinds lists raw widget kinds that are presentational or out of
// scope for constraint propagation.
var DefaultIgnoredKinds = []string{
	"LicenceWidget",
	"GeographicExtentWidget",
	"GeographicExtentMapWidget",
	"GeographicLocationWidget",
	"FreeEditionWidget",
	"ExclusiveGroupWidget",
}

// DefaultKindTable returns a fresh copy of the raw kind lookup table.
func DefaultKindTable() map[string]Kind {
	return map[string]Kind{
		"StringListWidget":      KindMultiSelect,
		"StringListArrayWidget": KindFreeMulti,
		"StringChoiceWidget":    KindSingleSelect,
	}
}

// NormalizeOption configures a Normalizer.
type NormalizeOption func(*Normalizer)

// WithIgnoredNames replaces the set of excluded field names.
func WithIgnoredNames(names ...string) NormalizeOption {
	return func(n *Normalizer) {
		n.ignoredNames = toSet(names)
	}
}

// WithIgnoredKinds replaces the set of excluded raw kinds.
func WithIgnoredKinds(kinds ...string) NormalizeOption {
	return func(n *Normalizer) {
		n.ignoredKinds = toSet(kinds)
	}
}

// WithKindMapping maps an extra raw kind tag onto a normalized kind.
func WithKindMapping(raw string, kind Kind) NormalizeOption {
	return func(n *Normalizer) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		n.kinds[raw] = kind
	}
}

// WithTitler overrides the title fallback used for records without a label.
func WithTitler(fn func(string) string) NormalizeOption {
	return func(n *Normalizer) {
		if fn != nil {
			n.titler = fn
		}
	}
}

// WithLogger routes diagnostics to the supplied logger.
func WithLogger(logger *slog.Logger) NormalizeOption {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Normalizer converts raw field records into an ordered FieldSet. It never
// fails: malformed and duplicate records are skipped and reported as
// diagnostics.
type Normalizer struct {
	ignoredNames map[string]struct{}
	ignoredKinds map[string]struct{}
	kinds        map[string]Kind
	titler       func(string) string
	logger       *slog.Logger
}

// NewNormalizer builds a Normalizer with the default exclusion sets and kind
// table, then applies options.
func NewNormalizer(options ...NormalizeOption) *Normalizer {
	n := &Normalizer{
		ignoredNames: toSet(DefaultIgnoredNames),
		ignoredKinds: toSet(DefaultIgnoredKinds),
		kinds:        DefaultKindTable(),
		titler:       DefaultTitler,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(n)
	}
	return n
}

// Normalize is a convenience wrapper around NewNormalizer(...).Normalize.
func Normalize(raw []RawField, options ...NormalizeOption) (FieldSet, []Diagnostic) {
	return NewNormalizer(options...).Normalize(raw)
}

// Normalize converts raw records in input order. The result is deterministic
// for a given input, so normalizing twice yields equal sets.
func (n *Normalizer) Normalize(raw []RawField) (FieldSet, []Diagnostic) {
	var (
		set        FieldSet
		diags      []Diagnostic
		firstIndex = make(map[string]int, len(raw))
	)

	for i, record := range raw {
		name := strings.TrimSpace(record.Name)
		rawKind := strings.TrimSpace(record.Type)

		if name == "" {
			diags = append(diags, Diagnostic{Err: &SchemaError{Index: i, Err: ErrMissingName}})
			n.logger.Warn("schema: field skipped", "index", i, "reason", ErrMissingName.Error())
			continue
		}
		if _, skip := n.ignoredNames[name]; skip {
			n.logger.Debug("schema: field ignored by name", "field", name)
			continue
		}
		if rawKind == "" {
			diags = append(diags, Diagnostic{Err: &SchemaError{Index: i, Field: name, Err: ErrMissingType}})
			n.logger.Warn("schema: field skipped", "field", name, "index", i, "reason", ErrMissingType.Error())
			continue
		}
		if _, skip := n.ignoredKinds[rawKind]; skip {
			n.logger.Debug("schema: field ignored by kind", "field", name, "kind", rawKind)
			continue
		}
		if first, seen := firstIndex[name]; seen {
			diags = append(diags, Diagnostic{Err: &DuplicateFieldError{Field: name, FirstIndex: first, Index: i}})
			n.logger.Warn("schema: duplicate field discarded", "field", name, "index", i, "first_index", first)
			continue
		}
		firstIndex[name] = i

		def, defDiags := n.define(i, name, rawKind, record)
		diags = append(diags, defDiags...)
		set.add(def)
	}

	return set, diags
}

func (n *Normalizer) define(index int, name, rawKind string, record RawField) (FieldDefinition, []Diagnostic) {
	merged := newDetailsMerge()
	merged.absorb(record.Details)

	kind, ok := n.kinds[rawKind]
	if !ok {
		kind = Kind(rawKind)
	}

	title := strings.TrimSpace(record.Label)
	if title == "" {
		title = n.titler(name)
	}

	def := FieldDefinition{
		Name:    name,
		Kind:    kind,
		Title:   title,
		Help:    strings.TrimSpace(record.Help),
		Values:  merged.values,
		Columns: merged.columns,
	}

	for _, value := range def.Values {
		if label, ok := merged.labels[value]; ok {
			if def.Labels == nil {
				def.Labels = make(map[string]string)
			}
			def.Labels[value] = label
		}
	}

	var diags []Diagnostic
	for _, value := range merged.defaults {
		if _, ok := merged.seen[value]; !ok {
			diags = append(diags, Diagnostic{Err: &SchemaError{
				Index: index,
				Field: name,
				Err:   fmt.Errorf("%w: %q", ErrUnknownDefault, value),
			}})
			continue
		}
		def.Defaults = append(def.Defaults, value)
	}

	return def, diags
}

type detailsMerge struct {
	values      []string
	seen        map[string]struct{}
	labels      map[string]string
	columns     int
	defaults    []string
	seenDefault map[string]struct{}
}

func newDetailsMerge() *detailsMerge {
	return &detailsMerge{
		seen:        make(map[string]struct{}),
		labels:      make(map[string]string),
		seenDefault: make(map[string]struct{}),
	}
}

// absorb folds a details record and then its groups, in order. Values and
// defaults keep their first occurrence; labels are last-write-wins; columns
// keeps the maximum.
func (m *detailsMerge) absorb(details RawDetails) {
	for _, value := range details.Values {
		if value == "" {
			continue
		}
		if _, ok := m.seen[value]; ok {
			continue
		}
		m.seen[value] = struct{}{}
		m.values = append(m.values, value)
	}
	for value, label := range details.Labels {
		m.labels[value] = label
	}
	if cols := int(details.Columns); cols > m.columns {
		m.columns = cols
	}
	for _, value := range details.Default {
		if _, ok := m.seenDefault[value]; ok {
			continue
		}
		m.seenDefault[value] = struct{}{}
		m.defaults = append(m.defaults, value)
	}
	for _, group := range details.Groups {
		m.absorb(group)
	}
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out[trimmed] = struct{}{}
		}
	}
	return out
}
