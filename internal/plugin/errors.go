package plugin

import "errors"

// Plugin errors. Load failures additionally wrap one of the processor
// package's load sentinels.
var (
	// ErrMissingMethod is returned when an instance lacks a contract method.
	ErrMissingMethod = errors.New("missing processor method")

	// ErrBadReturn is returned when a processor method returns the wrong type.
	ErrBadReturn = errors.New("unexpected return value")

	// ErrWatcherClosed is returned when adding paths to a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")
)
