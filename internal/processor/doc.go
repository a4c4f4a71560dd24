// Package processor defines the text processor contract and the registry that
// holds the processors loaded during an editing session.
//
// A processor is any value with three methods:
//
//	Process(ctx context.Context, text string) (string, error)
//	Name() string
//	Description() string
//
// Processors come from two places: the Go built-ins in this package
// (WordReverser, SentenceReverser) and scripts adapted by a Loader, such as
// the Lua loader in internal/plugin.
//
// # Registry
//
// A Registry is created empty at startup and only grows:
//
//	reg := processor.NewRegistry(processor.WithLoader(plugin.NewLoader()))
//
//	desc, err := reg.Load(ctx, "reverse.lua")
//	if err != nil {
//	    // err is a *LoadError; errors.Is(err, processor.ErrNoConformingUnit) etc.
//	}
//
//	out, err := reg.Apply(ctx, desc.Name, text)
//
// Loading a processor whose name is already registered replaces the old entry
// and makes it the most recent one. Registration is all-or-nothing: a failed
// load leaves the registry exactly as it was.
//
// All Registry methods are safe for concurrent use.
package processor
