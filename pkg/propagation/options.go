package propagation

import "log/slog"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSupersede makes a queued change cancel the constraint query of the cycle
// in flight. The stale cycle then aborts without mutation.
func WithSupersede(enabled bool) Option {
	return func(e *Engine) {
		e.supersede = enabled
	}
}

// WithListener registers a listener at construction time.
func WithListener(listener Listener) Option {
	return func(e *Engine) {
		if listener != nil {
			e.listeners = append(e.listeners, listener)
		}
	}
}
