package processor

import (
	"errors"
	"fmt"
)

// Load failures.
var (
	// ErrLoadIO is returned when the source file is missing or unreadable.
	ErrLoadIO = errors.New("file not found or unreadable")

	// ErrLoadExecution is returned when the source raised while being evaluated.
	ErrLoadExecution = errors.New("execution error")

	// ErrNoConformingUnit is returned when no definition satisfies the processor contract.
	ErrNoConformingUnit = errors.New("no conforming processor found")

	// ErrInstantiation is returned when constructing the conforming unit failed.
	ErrInstantiation = errors.New("instantiation error")

	// ErrEmptyName is returned when a processor reports an empty name.
	ErrEmptyName = errors.New("processor name is empty")

	// ErrNoLoader is returned by Registry.Load when no Loader was configured.
	ErrNoLoader = errors.New("no loader configured")
)

// Apply failures.
var (
	// ErrApplyNotFound is returned when applying an unregistered name.
	ErrApplyNotFound = errors.New("processor not found")

	// ErrApplyExecution is returned when a processor fails while transforming text.
	ErrApplyExecution = errors.New("processor failed")

	// ErrEmptyRegistry is returned by ApplyMostRecent before any successful load.
	ErrEmptyRegistry = errors.New("no processors have been loaded")
)

// LoadError reports a failed load of a processor source file.
type LoadError struct {
	Path string // Source file
	Kind error  // One of the load sentinels above
	Err  error  // Underlying cause, may be nil
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %v: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Kind)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewLoadError creates a LoadError of the given kind.
func NewLoadError(path string, kind, err error) *LoadError {
	return &LoadError{Path: path, Kind: kind, Err: err}
}

// ApplyError reports a failed application of a processor.
type ApplyError struct {
	Name string // Requested processor name
	Kind error  // ErrApplyNotFound or ErrApplyExecution
	Err  error  // Underlying cause, may be nil

	// Suggestion is the closest registered name when Kind is ErrApplyNotFound.
	Suggestion string
}

func (e *ApplyError) Error() string {
	msg := fmt.Sprintf("apply %q: %v", e.Name, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ApplyError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// LoadKind returns the load sentinel wrapped by err, or nil.
func LoadKind(err error) error {
	for _, kind := range []error{ErrLoadIO, ErrLoadExecution, ErrNoConformingUnit, ErrInstantiation, ErrEmptyName, ErrNoLoader} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
