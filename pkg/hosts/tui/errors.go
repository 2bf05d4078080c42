package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C or Quit).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoSession is returned by New without a session.
	ErrNoSession = errors.New("tui: session is required")
)
