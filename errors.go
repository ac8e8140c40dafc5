package main

import "errors"

var (
	// ErrNotFound is returned by element lookups that matched nothing.
	ErrNotFound = errors.New("element not found")

	// ErrTimeout is returned when a bounded wait expires before its condition holds.
	ErrTimeout = errors.New("wait timed out")

	// ErrUnsupported is returned by sessions that cannot perform an interaction (e.g. clicks on a static document).
	ErrUnsupported = errors.New("operation not supported by session")

	// ErrSessionInit marks a browser session that could not be started. It is the only fatal error of a run.
	ErrSessionInit = errors.New("automation session init failed")
)
