// Package html renders session views with pongo2 templates. Collection
// supplied text is sanitised before it reaches the page.
package html

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-dynform/pkg/session"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// Templates returns the built-in template files.
func Templates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	pageTemplate = "page.tpl"
	formTemplate = "form.tpl"
)

// PageOptions carries host details the templates need.
type PageOptions struct {
	// BasePath prefixes form actions and the websocket URL.
	BasePath string
	// Live enables the websocket script on full pages.
	Live bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplates replaces the built-in templates. The FS must provide page.tpl
// and form.tpl.
func WithTemplates(files fs.FS) Option {
	return func(r *Renderer) {
		if files != nil {
			r.files = files
		}
	}
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(r *Renderer) {
		for k, v := range data {
			r.globals[k] = v
		}
	}
}

// Renderer executes the page and form templates.
type Renderer struct {
	files   fs.FS
	globals pongo2.Context

	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

// New builds a Renderer over the built-in templates unless overridden.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		files:     Templates(),
		globals:   pongo2.Context{},
		templates: make(map[string]*pongo2.Template),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}

	registerFilters()
	r.set = pongo2.NewSet("dynform", pongo2.NewFSLoader(r.files))
	if r.set.Globals == nil {
		r.set.Globals = make(pongo2.Context)
	}
	r.set.Globals.Update(r.globals)

	for _, name := range []string{pageTemplate, formTemplate} {
		if _, err := r.template(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Page writes a complete HTML document for view.
func (r *Renderer) Page(w io.Writer, view session.View, opts PageOptions) error {
	return r.execute(w, pageTemplate, view, opts)
}

// Form writes only the form fragment, as pushed to live pages.
func (r *Renderer) Form(w io.Writer, view session.View, opts PageOptions) error {
	return r.execute(w, formTemplate, view, opts)
}

// FormString renders the form fragment to a string.
func (r *Renderer) FormString(view session.View, opts PageOptions) (string, error) {
	var buf bytes.Buffer
	if err := r.Form(&buf, view, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) execute(w io.Writer, name string, view session.View, opts PageOptions) error {
	if r == nil || r.set == nil {
		return errors.New("html: renderer is nil")
	}
	tmpl, err := r.template(name)
	if err != nil {
		return err
	}
	data, err := toContext(view)
	if err != nil {
		return fmt.Errorf("html: convert view: %w", err)
	}
	ctx := pongo2.Context{
		"view": data,
		"base": opts.BasePath,
		"live": opts.Live,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return fmt.Errorf("html: execute template %q: %w", name, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	if tmpl, ok := r.templates[name]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("html: load template %q: %w", name, err)
	}
	r.templates[name] = tmpl
	return tmpl, nil
}

// toContext turns the view into plain maps so templates address fields by
// their JSON names. Numbers stay json.Number so they print as written.
func toContext(view session.View) (map[string]any, error) {
	b, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	out := map[string]any{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
