package schema

// Kind identifies the normalized behaviour of a field. Raw kind tags that are
// not in the lookup table pass through unchanged as their own Kind.
type Kind string

const (
	KindMultiSelect  Kind = "multi-select"
	KindSingleSelect Kind = "single-select"
	KindFreeMulti    Kind = "free-text-multi"
)

// Known reports whether the kind is one of the three normalized kinds.
func (k Kind) Known() bool {
	switch k {
	case KindMultiSelect, KindSingleSelect, KindFreeMulti:
		return true
	default:
		return false
	}
}

// FieldDefinition is the normalized description of one form field. Values is
// the unconstrained universe; Defaults is always a subset of Values. Columns is
// a presentation hint carried through untouched.
type FieldDefinition struct {
	Name     string            `json:"name"`
	Kind     Kind              `json:"kind"`
	Title    string            `json:"title"`
	Help     string            `json:"help,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
	Values   []string          `json:"values"`
	Defaults []string          `json:"defaults,omitempty"`
	Columns  int               `json:"columns,omitempty"`
}

// Label returns the human readable label for a raw value, falling back to the
// raw value itself.
func (d FieldDefinition) Label(value string) string {
	if label, ok := d.Labels[value]; ok && label != "" {
		return label
	}
	return value
}

// Clone returns a deep copy so callers can hand definitions out without
// sharing slices or maps.
func (d FieldDefinition) Clone() FieldDefinition {
	out := d
	out.Values = append([]string(nil), d.Values...)
	out.Defaults = append([]string(nil), d.Defaults...)
	if d.Labels != nil {
		out.Labels = make(map[string]string, len(d.Labels))
		for k, v := range d.Labels {
			out.Labels[k] = v
		}
	}
	return out
}

// FieldSet is an insertion-ordered mapping of field name to definition.
type FieldSet struct {
	order  []string
	byName map[string]FieldDefinition
}

// NewFieldSet builds a FieldSet from definitions, keeping the first occurrence
// of each name. It reports whether any duplicate was dropped.
func NewFieldSet(defs ...FieldDefinition) (FieldSet, bool) {
	var set FieldSet
	dup := false
	for _, def := range defs {
		if !set.add(def) {
			dup = true
		}
	}
	return set, dup
}

func (s *FieldSet) add(def FieldDefinition) bool {
	if s.byName == nil {
		s.byName = make(map[string]FieldDefinition)
	}
	if _, exists := s.byName[def.Name]; exists {
		return false
	}
	s.order = append(s.order, def.Name)
	s.byName[def.Name] = def.Clone()
	return true
}

// Len returns the number of fields.
func (s FieldSet) Len() int {
	return len(s.order)
}

// Names returns the field names in declared order.
func (s FieldSet) Names() []string {
	return append([]string(nil), s.order...)
}

// Get looks up a definition by name.
func (s FieldSet) Get(name string) (FieldDefinition, bool) {
	def, ok := s.byName[name]
	if !ok {
		return FieldDefinition{}, false
	}
	return def.Clone(), true
}

// Fields returns copies of all definitions in declared order.
func (s FieldSet) Fields() []FieldDefinition {
	out := make([]FieldDefinition, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name].Clone())
	}
	return out
}

// Form binds a FieldSet to the collection it was built for. A Form is rebuilt
// wholesale whenever the collection changes.
type Form struct {
	CollectionID string
	Title        string
	Fields       FieldSet
}

// Empty reports whether the form carries no fields.
func (f Form) Empty() bool {
	return f.Fields.Len() == 0
}
