package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format controls how a request is serialized.
type Format string

const (
	// FormatJSON emits application/json payloads.
	FormatJSON Format = "json"
	// FormatYAML emits YAML documents.
	FormatYAML Format = "yaml"
	// FormatForm emits application/x-www-form-urlencoded payloads with one
	// key per value.
	FormatForm Format = "form"
	// FormatPretty emits sorted key=value lines.
	FormatPretty Format = "pretty"
)

// ErrUnknownFormat is returned for formats Encode does not know.
var ErrUnknownFormat = errors.New("request: unknown format")

// ParseFormat validates a user supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatJSON, FormatYAML, FormatForm, FormatPretty:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// Encode serializes the request.
func Encode(req Request, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.Marshal(req)
	case FormatYAML:
		return yaml.Marshal(req)
	case FormatForm:
		return []byte(flattenForm(req, nil)), nil
	case FormatPretty:
		return []byte(prettyPrint(req, nil)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Encode serializes the submission. Flat formats carry the collection id as a
// leading collection_id entry.
func (s Submission) Encode(format Format) ([]byte, error) {
	head := []string{"collection_id", s.CollectionID}
	switch format {
	case FormatJSON, "":
		return json.Marshal(s)
	case FormatYAML:
		return yaml.Marshal(s)
	case FormatForm:
		return []byte(flattenForm(s.Request, head)), nil
	case FormatPretty:
		return []byte(prettyPrint(s.Request, head)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func flattenForm(req Request, head []string) string {
	flattened := url.Values{}
	if len(head) == 2 {
		flattened.Set(head[0], head[1])
	}
	for _, key := range sortedKeys(req) {
		for _, v := range req.Values(key) {
			flattened.Add(key, v)
		}
	}
	return flattened.Encode()
}

func prettyPrint(req Request, head []string) string {
	var b strings.Builder
	if len(head) == 2 {
		fmt.Fprintf(&b, "%s=%s\n", head[0], head[1])
	}
	for _, key := range sortedKeys(req) {
		switch v := req[key].(type) {
		case []string:
			for idx, item := range v {
				fmt.Fprintf(&b, "%s[%d]=%s\n", key, idx, item)
			}
		default:
			fmt.Fprintf(&b, "%s=%v\n", key, v)
		}
	}
	return b.String()
}

func sortedKeys(req Request) []string {
	keys := make([]string, 0, len(req))
	for k := range req {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
