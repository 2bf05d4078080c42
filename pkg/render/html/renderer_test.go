package html_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-dynform/pkg/render/html"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/session"
	"github.com/goliatone/go-dynform/pkg/testsupport"
)

func sampleView() session.View {
	return session.View{
		CollectionID: "collX",
		Title:        "Collection <b>X</b>",
		Collections: []session.CollectionView{
			{ID: session.NoCollection, Title: "None"},
			{ID: "collX", Title: "Collection X", Selected: true},
		},
		Fields: []session.FieldView{
			{
				Name:    "variable",
				Kind:    schema.KindMultiSelect,
				Title:   "Variable<script>alert(1)</script>",
				Help:    "CO<sub>2</sub> included",
				Columns: 2,
				Options: []session.OptionView{
					{Value: "temp", Label: "Temperature", Selected: true},
					{Value: "a&b", Label: "A & B"},
				},
				Selected: []string{"temp"},
			},
			{
				Name:     "year",
				Kind:     schema.KindSingleSelect,
				Title:    "Year",
				Options:  []session.OptionView{{Value: "2021", Label: "2021", Selected: true}},
				Selected: []string{"2021"},
			},
			{
				Name:     "day",
				Kind:     schema.KindFreeMulti,
				Title:    "Day",
				Options:  []session.OptionView{},
				Selected: []string{},
			},
		},
	}
}

func TestRenderer_Form(t *testing.T) {
	r, err := html.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	out, err := r.FormString(sampleView(), html.PageOptions{BasePath: "/sessions/abc"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	mustContain := []string{
		`action="/sessions/abc/collection"`,
		`<option value="collX" selected>Collection X</option>`,
		`data-field="variable"`,
		`data-columns="2"`,
		`CO<sub>2</sub> included`,
		`type="checkbox" name="variable" value="temp" checked`,
		`value="a&amp;b"`,
		`type="radio" name="year" value="2021" checked`,
		`No values available.`,
		`<h2 class="dynform-title">Collection <b>X</b></h2>`,
	}
	for _, want := range mustContain {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("script tag leaked into form:\n%s", out)
	}
}

func TestRenderer_Page(t *testing.T) {
	r, err := html.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var buf bytes.Buffer
	if err := r.Page(&buf, sampleView(), html.PageOptions{BasePath: "/sessions/abc", Live: true}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", `id="dynform"`, `"/sessions/abc/ws"`, `href="/sessions/abc/request"`} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}

	buf.Reset()
	if err := r.Page(&buf, sampleView(), html.PageOptions{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "WebSocket") {
		t.Fatalf("static page should not open a websocket")
	}
}

func TestRenderer_CustomTemplates(t *testing.T) {
	files := fstest.MapFS{
		"page.tpl": {Data: []byte(`{{ brand }}:{% include "form.tpl" %}`)},
		"form.tpl": {Data: []byte(`{% for f in view.fields %}{{ f.name }};{% endfor %}`)},
	}
	r, err := html.New(html.WithTemplates(files), html.WithGlobalData(map[string]any{"brand": "dyn"}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got := testsupport.CaptureOutput(t, func(w io.Writer) error {
		return r.Page(w, sampleView(), html.PageOptions{})
	})
	if got != "dyn:variable;year;day;" {
		t.Fatalf("unexpected output %q", got)
	}

	if _, err := html.New(html.WithTemplates(fstest.MapFS{})); err == nil {
		t.Fatalf("expected error for missing templates")
	}
}

func TestWriterSurface(t *testing.T) {
	r, err := html.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var buf bytes.Buffer
	surface := html.NewWriterSurface(r, &buf, html.PageOptions{})
	if err := surface.Show(context.Background(), sampleView()); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(buf.String(), `id="dynform"`) {
		t.Fatalf("surface did not write the form")
	}
}

func TestSanitizeLabel(t *testing.T) {
	cases := map[string]string{
		"  plain  ":                         "plain",
		"<b>bold</b>":                       "<b>bold</b>",
		`<img src=x onerror="alert(1)">hi`: "hi",
		"<div>block</div>":                  "block",
		"":                                  "",
	}
	for in, want := range cases {
		if got := html.SanitizeLabel(in); got != want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
