package session

import (
	"log/slog"

	"github.com/goliatone/go-dynform/pkg/propagation"
	"github.com/goliatone/go-dynform/pkg/schema"
)

// Option configures a Session.
type Option func(*Session)

// WithInitialCollection selects id when the session starts instead of the
// catalogue's first collection. NoCollection starts with an empty form.
func WithInitialCollection(id string) Option {
	return func(s *Session) {
		s.initial = id
	}
}

// WithSurface attaches a display surface that receives a View after every
// build and cycle.
func WithSurface(surface Surface) Option {
	return func(s *Session) {
		s.surface = surface
	}
}

// WithLogger sets the structured logger shared with the normalizer and the
// engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNormalizeOptions forwards options to the schema normalizer.
func WithNormalizeOptions(options ...schema.NormalizeOption) Option {
	return func(s *Session) {
		s.normalizeOptions = append(s.normalizeOptions, options...)
	}
}

// WithEngineOptions forwards options to every propagation engine the session
// builds.
func WithEngineOptions(options ...propagation.Option) Option {
	return func(s *Session) {
		s.engineOptions = append(s.engineOptions, options...)
	}
}
