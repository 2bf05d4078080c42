package tui

import "log/slog"

// Option configures the terminal host.
type Option func(*Host)

// WithPromptDriver overrides the prompt driver used by the host.
func WithPromptDriver(driver PromptDriver) Option {
	return func(h *Host) {
		if driver != nil {
			h.driver = driver
		}
	}
}

// WithPageSize limits how many options a prompt shows at once.
func WithPageSize(size int) Option {
	return func(h *Host) {
		if size > 0 {
			h.pageSize = size
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}
