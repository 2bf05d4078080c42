package loader_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-dynform/internal/catalogue/loader"
	"github.com/goliatone/go-dynform/pkg/catalogue"
)

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogue.yaml")
	if err := os.WriteFile(path, []byte("collections: []\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := loader.New(catalogue.NewLoaderOptions())
	doc, err := l.Load(context.Background(), catalogue.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != "collections: []\n" {
		t.Fatalf("unexpected payload %q", doc.Raw())
	}
	if doc.Location() != path {
		t.Fatalf("location = %q, want %q", doc.Location(), path)
	}
}

func TestLoader_FS(t *testing.T) {
	files := fstest.MapFS{"data/catalogue.json": {Data: []byte(`{"collections": []}`)}}

	l := loader.New(catalogue.NewLoaderOptions(catalogue.WithFileSystem(files)))
	doc, err := l.Load(context.Background(), catalogue.SourceFromFS("data/catalogue.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Source().Kind() != catalogue.SourceKindFS {
		t.Fatalf("kind = %q", doc.Source().Kind())
	}

	_, err = l.Load(context.Background(), catalogue.SourceFromFS("missing.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestLoader_Errors(t *testing.T) {
	l := loader.New(catalogue.NewLoaderOptions())

	if _, err := l.Load(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
	if _, err := l.Load(context.Background(), catalogue.SourceFromFS("x.yaml")); err == nil {
		t.Fatalf("expected error without fs")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx, catalogue.SourceFromFile("whatever.yaml")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := l.Load(context.Background(), catalogue.SourceFromFile(empty)); err == nil {
		t.Fatalf("expected error for empty document")
	}
}
