package dynform

import (
	"context"
	"io/fs"

	internalLoader "github.com/goliatone/go-dynform/internal/catalogue/loader"
	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/render/html"
)

// NewLoader constructs a catalogue loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options ...catalogue.LoaderOption) catalogue.Loader {
	cfg := catalogue.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// OpenCatalogue loads a catalogue document from src and parses it into a
// local catalogue.
func OpenCatalogue(ctx context.Context, src catalogue.Source, options ...catalogue.LoaderOption) (*catalogue.Memory, error) {
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return catalogue.ParseDocument(doc)
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them.
func EmbeddedTemplates() fs.FS {
	return html.Templates()
}
