package dynform_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynform"
	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/session"
)

const scenario = `
collections:
  - id: collX
    title: Collection X
    form:
      - name: variable
        type: StringListWidget
        details:
          values: [temp, precip]
      - name: year
        type: StringChoiceWidget
        details:
          values: [2020, 2021]
          default: 2021
    constraints:
      - variable: temp
        year: 2021
      - variable: precip
        year: [2020, 2021]
  - id: collY
    form:
      - name: month
        type: StringListWidget
        details:
          values: ["01", "02"]
`

func openScenario(t *testing.T) *catalogue.Memory {
	t.Helper()
	files := fstest.MapFS{"catalogue.yaml": &fstest.MapFile{Data: []byte(scenario)}}
	cat, err := dynform.OpenCatalogue(context.Background(), catalogue.SourceFromFS("catalogue.yaml"), catalogue.WithFileSystem(files))
	if err != nil {
		t.Fatalf("open catalogue: %v", err)
	}
	return cat
}

func TestBuild_EndToEnd(t *testing.T) {
	ctx := context.Background()
	h, err := dynform.Build(ctx, openScenario(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if diff := cmp.Diff([]string{"collX", "collY"}, h.Collections()); diff != "" {
		t.Fatalf("collections mismatch (-want +got):\n%s", diff)
	}
	if h.Selected() != "collX" {
		t.Fatalf("selected = %q", h.Selected())
	}

	fields := h.Fields()
	if diff := cmp.Diff([]string{"temp", "precip"}, fields["variable"].Allowed()); diff != "" {
		t.Fatalf("initial variable allowed mismatch (-want +got):\n%s", diff)
	}
	if err := fields["variable"].Set(ctx, "temp"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff([]string{"2021"}, fields["year"].Allowed()); diff != "" {
		t.Fatalf("year allowed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2021"}, fields["year"].Value()); diff != "" {
		t.Fatalf("year selection mismatch (-want +got):\n%s", diff)
	}

	id, req := dynform.ExtractRequest(h)
	if id != "collX" {
		t.Fatalf("collection id = %q", id)
	}
	want := dynform.Request{"variable": "temp", "year": "2021"}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestHandle_SelectRebuilds(t *testing.T) {
	ctx := context.Background()
	var views []session.View
	surface := session.SurfaceFunc(func(_ context.Context, v session.View) error {
		views = append(views, v)
		return nil
	})

	h, err := dynform.Build(ctx, openScenario(t), dynform.WithSurface(surface))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	stale := h.Fields()["variable"]

	if err := h.Select(ctx, "collY"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if diff := cmp.Diff([]string{"month"}, h.FieldNames()); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}
	if err := stale.Set(ctx, "temp"); !errors.Is(err, dynform.ErrStaleField) {
		t.Fatalf("stale handle should report ErrStaleField, got %v", err)
	}
	if len(views) != 2 || views[1].CollectionID != "collY" {
		t.Fatalf("surface views = %+v", views)
	}
	if err := h.Select(ctx, "missing"); !errors.Is(err, catalogue.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
	if h.Selected() != "collY" {
		t.Fatalf("failed select replaced the form")
	}
}

const sharedScenario = `
collections:
  - id: north
    form:
      - name: region
        type: StringListWidget
        details:
          values: [alps, fjords]
  - id: south
    form:
      - name: region
        type: StringListWidget
        details:
          values: [alps, fjords]
`

func TestFieldHandle_StaysOnItsForm(t *testing.T) {
	ctx := context.Background()
	files := fstest.MapFS{"catalogue.yaml": &fstest.MapFile{Data: []byte(sharedScenario)}}
	cat, err := dynform.OpenCatalogue(ctx, catalogue.SourceFromFS("catalogue.yaml"), catalogue.WithFileSystem(files))
	if err != nil {
		t.Fatalf("open catalogue: %v", err)
	}
	h, err := dynform.Build(ctx, cat)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	old := h.Fields()["region"]
	if err := old.Set(ctx, "alps"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := h.Select(ctx, "south"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !old.Stale() {
		t.Fatalf("handle from the replaced form should be stale")
	}

	if err := old.Set(ctx, "fjords"); !errors.Is(err, dynform.ErrStaleField) {
		t.Fatalf("expected ErrStaleField, got %v", err)
	}
	if err := old.Toggle(ctx, "fjords"); !errors.Is(err, dynform.ErrStaleField) {
		t.Fatalf("expected ErrStaleField from toggle, got %v", err)
	}

	current := h.Fields()["region"]
	if current.Stale() {
		t.Fatalf("fresh handle reported stale")
	}
	if got := current.Value(); len(got) != 0 {
		t.Fatalf("new form's region changed through old handle: %v", got)
	}
	if diff := cmp.Diff([]string{"alps"}, old.Value()); diff != "" {
		t.Fatalf("old handle value mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_InitialCollection(t *testing.T) {
	h, err := dynform.Build(context.Background(), openScenario(t), dynform.WithInitialCollection(session.NoCollection))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(h.Fields()) != 0 {
		t.Fatalf("expected an empty form")
	}
	id, req := dynform.ExtractRequest(h)
	if id != session.NoCollection || len(req) != 0 {
		t.Fatalf("unexpected request %q %v", id, req)
	}
}

func TestOpenCatalogue_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := dynform.OpenCatalogue(ctx, catalogue.SourceFromFS("missing.yaml"), catalogue.WithFileSystem(fstest.MapFS{})); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	files := fstest.MapFS{"bad.yaml": &fstest.MapFile{Data: []byte("collections: [")}}
	if _, err := dynform.OpenCatalogue(ctx, catalogue.SourceFromFS("bad.yaml"), catalogue.WithFileSystem(files)); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	for _, name := range []string{"page.tpl", "form.tpl"} {
		if _, err := fs.Stat(dynform.EmbeddedTemplates(), name); err != nil {
			t.Fatalf("template %s: %v", name, err)
		}
	}
}
