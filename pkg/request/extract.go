// Package request turns the current selections of a form into the request
// payload submitted to a collection.
package request

import (
	"github.com/goliatone/go-dynform/pkg/catalogue"
)

// Request maps field names to either a single string or an ordered list of
// two or more strings.
type Request map[string]any

// Source exposes what the extractor needs from a form session. Current must
// read the id and the selection from the same form.
type Source interface {
	Current() (collectionID string, selection catalogue.Selection)
}

// Extract reads the collection id and builds the request from src.
func Extract(src Source) (string, Request) {
	id, sel := src.Current()
	return id, FromSelection(sel)
}

// FromSelection applies the collapsing rule: empty fields are left out, a
// single value becomes a scalar and anything longer stays a list.
func FromSelection(sel catalogue.Selection) Request {
	out := make(Request, len(sel))
	for name, values := range sel {
		switch len(values) {
		case 0:
			continue
		case 1:
			out[name] = values[0]
		default:
			out[name] = append([]string(nil), values...)
		}
	}
	return out
}

// Values returns the request's values for name as a list.
func (r Request) Values(name string) []string {
	switch v := r[name].(type) {
	case string:
		return []string{v}
	case []string:
		return append([]string(nil), v...)
	default:
		return nil
	}
}

// Submission pairs a request with the collection it targets.
type Submission struct {
	CollectionID string  `json:"collection_id" yaml:"collection_id"`
	Request      Request `json:"request" yaml:"request"`
}

// NewSubmission extracts a Submission from src.
func NewSubmission(src Source) Submission {
	id, req := Extract(src)
	return Submission{CollectionID: id, Request: req}
}
