package processor

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Processor is a named text-to-text transformation.
//
// Process must not modify shared editor state; it receives the whole document
// text and returns the replacement text.
type Processor interface {
	Process(ctx context.Context, text string) (string, error)
	Name() string
	Description() string
}

// Loader turns a file into a Processor.
//
// Implementations return an error wrapping one of ErrLoadIO,
// ErrLoadExecution, ErrNoConformingUnit or ErrInstantiation.
type Loader interface {
	Load(ctx context.Context, path string) (Processor, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, path string) (Processor, error)

// Load calls f(ctx, path).
func (f LoaderFunc) Load(ctx context.Context, path string) (Processor, error) {
	return f(ctx, path)
}

// Descriptor describes a registered processor.
type Descriptor struct {
	// Name is the unique registry key.
	Name string

	// Description is informational only.
	Description string

	// Source is the file the processor was loaded from, or "builtin:<name>".
	Source string

	// LoadID identifies this particular registration.
	LoadID uuid.UUID

	// LoadedAt is when the processor was (re)registered.
	LoadedAt time.Time
}

// BuiltinSource returns the Source recorded for a processor registered from Go code.
func BuiltinSource(name string) string {
	return "builtin:" + name
}
