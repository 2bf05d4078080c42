package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawField is one loosely typed field descriptor as served by a collection.
// Every key is optional; decoding never fails on a missing key.
type RawField struct {
	Name    string     `json:"name" yaml:"name"`
	Type    string     `json:"type" yaml:"type"`
	Label   string     `json:"label" yaml:"label"`
	Help    string     `json:"help" yaml:"help"`
	Details RawDetails `json:"details" yaml:"details"`
}

// RawDetails holds either a flat option record or a list of groups to merge.
type RawDetails struct {
	Labels  LabelMap     `json:"labels" yaml:"labels"`
	Values  StringList   `json:"values" yaml:"values"`
	Columns FlexInt      `json:"columns" yaml:"columns"`
	Default StringList   `json:"default" yaml:"default"`
	Groups  []RawDetails `json:"groups" yaml:"groups"`
}

// StringList accepts a scalar or a list of scalars. Numbers and booleans are
// kept in their textual form; nested structures are ignored.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	raw, err := decodeJSONAny(data)
	if err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*l = nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := scalarString(item); ok {
				out = append(out, s)
			}
		}
		*l = out
	default:
		if s, ok := scalarString(v); ok {
			*l = StringList{s}
		}
	}
	return nil
}

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		if isNullNode(node) {
			*l = nil
			return nil
		}
		*l = StringList{node.Value}
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, child := range node.Content {
			child = resolveAlias(child)
			if child.Kind == yaml.ScalarNode && !isNullNode(child) {
				out = append(out, child.Value)
			}
		}
		*l = out
	}
	return nil
}

// LabelMap maps raw values to display labels. Keys and values may be any
// scalar in the source document.
type LabelMap map[string]string

func (m *LabelMap) UnmarshalJSON(data []byte) error {
	raw, err := decodeJSONAny(data)
	if err != nil {
		return err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		*m = nil
		return nil
	}
	out := make(LabelMap, len(obj))
	for key, value := range obj {
		if s, ok := scalarString(value); ok {
			out[key] = s
		}
	}
	*m = out
	return nil
}

func (m *LabelMap) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		*m = nil
		return nil
	}
	out := make(LabelMap, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := resolveAlias(node.Content[i])
		value := resolveAlias(node.Content[i+1])
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode || isNullNode(value) {
			continue
		}
		out[key.Value] = value.Value
	}
	*m = out
	return nil
}

// FlexInt accepts integers encoded as numbers or numeric strings. Anything
// else decodes to zero.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	raw, err := decodeJSONAny(data)
	if err != nil {
		return err
	}
	s, _ := scalarString(raw)
	*n = FlexInt(parseLenientInt(s))
	return nil
}

func (n *FlexInt) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	if node.Kind != yaml.ScalarNode {
		*n = 0
		return nil
	}
	*n = FlexInt(parseLenientInt(node.Value))
	return nil
}

// ParseRawFields decodes a raw form document. JSON is tried first, then YAML.
// Records that cannot be decoded are reported as SchemaError diagnostics and
// skipped; only a document that is not a list returns an error.
func ParseRawFields(data []byte) ([]RawField, []Diagnostic, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, nil
	}

	if json.Valid(trimmed) {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, nil, ErrNotAList
		}
		fields := make([]RawField, 0, len(records))
		var diags []Diagnostic
		for i, record := range records {
			var field RawField
			if err := json.Unmarshal(record, &field); err != nil {
				diags = append(diags, Diagnostic{Err: &SchemaError{Index: i, Err: err}})
				continue
			}
			fields = append(fields, field)
		}
		return fields, diags, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, nil, fmt.Errorf("schema: parse raw form: invalid JSON or YAML: %w", err)
	}
	return DecodeRawFieldNodes(&node)
}

// DecodeRawFieldNodes decodes an already parsed YAML sequence of records, so
// documents embedding a raw form can defer its decoding.
func DecodeRawFieldNodes(node *yaml.Node) ([]RawField, []Diagnostic, error) {
	if node == nil || node.Kind == 0 {
		return nil, nil, nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil, nil
		}
		node = node.Content[0]
	}
	node = resolveAlias(node)
	if isNullNode(node) {
		return nil, nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, nil, ErrNotAList
	}

	fields := make([]RawField, 0, len(node.Content))
	var diags []Diagnostic
	for i, child := range node.Content {
		var field RawField
		if err := child.Decode(&field); err != nil {
			diags = append(diags, Diagnostic{Err: &SchemaError{Index: i, Err: err}})
			continue
		}
		fields = append(fields, field)
	}
	return fields, diags, nil
}

func decodeJSONAny(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func parseLenientInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return 0
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNullNode(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
