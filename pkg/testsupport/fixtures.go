// Package testsupport holds fixture and golden helpers shared by package
// tests.
package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/session"
)

// LoadCatalogue parses a catalogue fixture, failing the test on error.
func LoadCatalogue(t *testing.T, path string) *catalogue.Memory {
	t.Helper()

	cat, err := LoadCatalogueFromPath(path)
	if err != nil {
		t.Fatalf("load catalogue: %v", err)
	}
	return cat
}

// LoadCatalogueFromPath returns a catalogue without requiring testing.T so
// fixtures can be wired in setup functions.
func LoadCatalogueFromPath(path string) (*catalogue.Memory, error) {
	if path == "" {
		return nil, errors.New("testsupport: catalogue path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read catalogue: %w", err)
	}
	doc, err := catalogue.NewDocument(catalogue.SourceFromFile(path), data)
	if err != nil {
		return nil, fmt.Errorf("testsupport: new document: %w", err)
	}
	return catalogue.ParseDocument(doc)
}

// MustLoadView loads a JSON golden file into a session View.
func MustLoadView(t *testing.T, path string) session.View {
	t.Helper()

	view, err := LoadView(path)
	if err != nil {
		t.Fatalf("load view: %v", err)
	}
	return view
}

// LoadView reads a JSON fixture into a View.
func LoadView(path string) (session.View, error) {
	if path == "" {
		return session.View{}, errors.New("testsupport: view path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return session.View{}, fmt.Errorf("testsupport: read view: %w", err)
	}
	var out session.View
	if err := json.Unmarshal(data, &out); err != nil {
		return session.View{}, fmt.Errorf("testsupport: unmarshal view: %w", err)
	}
	return out, nil
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	writeFile(t, path, payload)
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	writeFile(t, path, data)
	return true
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureOutput runs render against a buffer and returns what it wrote.
func CaptureOutput(t *testing.T, render func(io.Writer) error) string {
	t.Helper()

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}
