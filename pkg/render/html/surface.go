package html

import (
	"context"
	"io"
	"sync"

	"github.com/goliatone/go-dynform/pkg/session"
)

// WriterSurface is a session.Surface that writes the rendered form fragment
// to an io.Writer on every update.
type WriterSurface struct {
	renderer *Renderer
	opts     PageOptions

	mu sync.Mutex
	w  io.Writer
}

var _ session.Surface = (*WriterSurface)(nil)

// NewWriterSurface binds a renderer to w.
func NewWriterSurface(renderer *Renderer, w io.Writer, opts PageOptions) *WriterSurface {
	return &WriterSurface{renderer: renderer, w: w, opts: opts}
}

// Show renders view into the writer.
func (s *WriterSurface) Show(ctx context.Context, view session.View) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.Form(s.w, view, s.opts)
}
