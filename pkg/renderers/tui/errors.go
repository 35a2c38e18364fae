package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNilDriver is returned by Render when no prompt driver is configured.
	ErrNilDriver = errors.New("tui: prompt driver is nil")
)
