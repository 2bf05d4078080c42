// Package web serves form sessions to browsers: a full page per session,
// JSON endpoints for state and edits, and a websocket pushing re-rendered
// forms after every constraint cycle.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/render/html"
	"github.com/goliatone/go-dynform/pkg/session"
)

// ErrNoCatalogue is returned by New without a catalogue.
var ErrNoCatalogue = errors.New("web: catalogue is required")

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderer overrides the HTML renderer.
func WithRenderer(renderer *html.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithSessionOptions forwards options to every form session.
func WithSessionOptions(options ...session.Option) Option {
	return func(s *Server) {
		s.sessionOptions = append(s.sessionOptions, options...)
	}
}

// WithSessionLimits bounds how long sessions live. Zero disables a limit.
func WithSessionLimits(maxAge, idleTimeout time.Duration) Option {
	return func(s *Server) {
		s.maxAge = maxAge
		s.idleTimeout = idleTimeout
	}
}

// Server wires the catalogue, the session manager and the renderer into an
// http.Handler.
type Server struct {
	catalogue      catalogue.Catalogue
	logger         *slog.Logger
	renderer       *html.Renderer
	sessionOptions []session.Option
	maxAge         time.Duration
	idleTimeout    time.Duration

	prefix   string
	sessions *Manager
	router   chi.Router
}

// New builds a Server.
func New(cat catalogue.Catalogue, options ...Option) (*Server, error) {
	if cat == nil {
		return nil, ErrNoCatalogue
	}
	s := &Server{
		catalogue:   cat,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxAge:      24 * time.Hour,
		idleTimeout: time.Hour,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.renderer == nil {
		renderer, err := html.New()
		if err != nil {
			return nil, fmt.Errorf("web: renderer: %w", err)
		}
		s.renderer = renderer
	}

	s.sessions = NewManager(func(ctx context.Context) (*session.Session, error) {
		opts := append([]session.Option{session.WithLogger(s.logger)}, s.sessionOptions...)
		return session.New(ctx, s.catalogue, opts...)
	}, s.maxAge, s.idleTimeout)
	s.router = s.routes()
	return s, nil
}

// Sessions exposes the session manager.
func (s *Server) Sessions() *Manager {
	return s.sessions
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", s.handleNewSession)

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handlePage)
		r.Get("/state", s.handleState)
		r.Post("/collection", s.handleSelect)
		r.Post("/fields/{name}", s.handleSetField)
		r.Get("/request", s.handleRequest)
		r.Get("/ws", s.handleWebsocket)
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully. Expired
// sessions are swept while the server runs.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.sessions.Janitor(janitorCtx, time.Minute)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("web: listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
