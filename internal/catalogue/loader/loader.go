// Package loader reads catalogue documents from disk or an fs.FS.
package loader

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-dynform/pkg/catalogue"
)

// Loader implements catalogue.Loader for file and fs.FS sources.
type Loader struct {
	fs fs.FS
}

var _ catalogue.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options catalogue.LoaderOptions) catalogue.Loader {
	return &Loader{fs: options.FileSystem}
}

// Load fetches the document behind src.
func (l *Loader) Load(ctx context.Context, src catalogue.Source) (catalogue.Document, error) {
	if src == nil {
		return catalogue.Document{}, fmt.Errorf("catalogue loader: source is nil")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case catalogue.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case catalogue.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	default:
		err = fmt.Errorf("catalogue loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return catalogue.Document{}, err
	}

	return catalogue.NewDocument(src, data)
}
