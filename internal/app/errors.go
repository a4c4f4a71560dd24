// Package app provides the main application structure and coordination.
package app

import (
	"errors"
	"fmt"

	"github.com/dshills/quill/internal/engine/history"
)

// Application errors.
var (
	// ErrQuit signals that the application should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrTextNotFound indicates a find query has no match in the document.
	ErrTextNotFound = errors.New("text not found")

	// ErrEmptyQuery indicates a find or replace with nothing to look for.
	ErrEmptyQuery = errors.New("empty search text")

	// ErrNoSelection indicates a cut or copy without selected text.
	ErrNoSelection = errors.New("no text selected")

	// ErrClipboardEmpty indicates a paste with nothing on the clipboard.
	ErrClipboardEmpty = errors.New("clipboard is empty")

	// ErrNoFilePath indicates a save of a never-saved document without a path.
	ErrNoFilePath = errors.New("document has no file path")

	// ErrUnsavedChanges indicates there are unsaved changes.
	ErrUnsavedChanges = errors.New("unsaved changes")

	// ErrNoModules indicates a module command with an empty registry.
	ErrNoModules = errors.New("no modules loaded")

	// ErrShutdown indicates the application has been shut down.
	ErrShutdown = errors.New("application shut down")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op      string // Operation name (e.g., "save", "open", "apply")
	Target  string // Target of the operation (e.g., file path, module name)
	Context string // Additional context
	Err     error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// WithContext adds context to the error.
// Safe to call on nil receiver - returns nil.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e == nil {
		return nil
	}
	e.Context = ctx
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	var msg string
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	} else {
		msg = e.Op
	}

	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FileError describes a failed file read or write.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// IsInfo reports whether err is an informational result rather than a
// failure, such as undo with an empty history.
func IsInfo(err error) bool {
	return errors.Is(err, history.ErrNothingToUndo) ||
		errors.Is(err, history.ErrNothingToRedo) ||
		errors.Is(err, ErrTextNotFound)
}
