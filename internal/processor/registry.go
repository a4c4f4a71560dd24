package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
)

// maxSuggestionDistance bounds how different a suggested name may be.
const maxSuggestionDistance = 3

type entry struct {
	desc Descriptor
	proc Processor
}

// Registry holds processors keyed by name, ordered by load time.
type Registry struct {
	mu sync.RWMutex

	entries map[string]*entry
	order   []string // oldest first

	loader Loader
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoader sets the Loader used by Load.
func WithLoader(l Loader) Option {
	return func(r *Registry) {
		r.loader = l
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source used for Descriptor.LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load loads the processor in path and registers it.
//
// On failure the registry is left untouched and the returned error is a
// *LoadError.
func (r *Registry) Load(ctx context.Context, path string) (Descriptor, error) {
	if r.loader == nil {
		return Descriptor{}, NewLoadError(path, ErrNoLoader, nil)
	}

	p, err := r.loader.Load(ctx, path)
	if err != nil {
		var le *LoadError
		if !errors.As(err, &le) {
			kind := LoadKind(err)
			if kind == nil {
				kind = ErrLoadExecution
			}
			le = NewLoadError(path, kind, err)
		}
		r.logger.Warn("processor load failed", "path", path, "error", le)
		return Descriptor{}, le
	}

	desc, err := r.Register(p, path)
	if err != nil {
		// A rejected processor is never referenced again.
		if cerr := closeProcessor(p); cerr != nil {
			r.logger.Warn("close rejected processor", "path", path, "error", cerr)
		}
		le := NewLoadError(path, err, nil)
		r.logger.Warn("processor load failed", "path", path, "error", le)
		return Descriptor{}, le
	}
	return desc, nil
}

// Register adds p under its own name, replacing any processor with the same
// name. The replaced or new entry becomes the most recent one.
func (r *Registry) Register(p Processor, source string) (Descriptor, error) {
	name := p.Name()
	if strings.TrimSpace(name) == "" {
		return Descriptor{}, ErrEmptyName
	}

	desc := Descriptor{
		Name:        name,
		Description: p.Description(),
		Source:      source,
		LoadID:      uuid.New(),
		LoadedAt:    r.now(),
	}

	r.mu.Lock()
	old, replaced := r.entries[name]
	if replaced {
		if i := slices.Index(r.order, name); i >= 0 {
			r.order = slices.Delete(r.order, i, i+1)
		}
	}
	r.entries[name] = &entry{desc: desc, proc: p}
	r.order = append(r.order, name)
	r.mu.Unlock()

	if replaced {
		closeProcessor(old.proc)
	}

	r.logger.Info("processor registered",
		"name", name,
		"source", source,
		"load_id", desc.LoadID,
		"replaced", replaced,
	)
	return desc, nil
}

// List returns the registered names, first-loaded first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Descriptors returns the registered descriptors in load order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].desc)
	}
	return out
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, false
	}
	return e.desc, true
}

// Len returns the number of registered processors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// MostRecent returns the descriptor of the most recently loaded processor.
func (r *Registry) MostRecent() (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return Descriptor{}, ErrEmptyRegistry
	}
	return r.entries[r.order[len(r.order)-1]].desc, nil
}

// Apply runs the named processor on text and returns its output.
func (r *Registry) Apply(ctx context.Context, name, text string) (string, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	var suggestion string
	if !ok {
		suggestion = r.suggestLocked(name)
	}
	r.mu.RUnlock()

	if !ok {
		return "", &ApplyError{Name: name, Kind: ErrApplyNotFound, Suggestion: suggestion}
	}
	return r.run(ctx, e, text)
}

// ApplyMostRecent runs the most recently loaded processor on text. It
// returns the processor's name along with the output.
func (r *Registry) ApplyMostRecent(ctx context.Context, text string) (string, string, error) {
	r.mu.RLock()
	if len(r.order) == 0 {
		r.mu.RUnlock()
		return "", "", ErrEmptyRegistry
	}
	e := r.entries[r.order[len(r.order)-1]]
	r.mu.RUnlock()

	out, err := r.run(ctx, e, text)
	return e.desc.Name, out, err
}

// run invokes a processor outside the registry lock.
func (r *Registry) run(ctx context.Context, e *entry, text string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &ApplyError{Name: e.desc.Name, Kind: ErrApplyExecution, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	start := time.Now()
	out, err = e.proc.Process(ctx, text)
	if err != nil {
		r.logger.Warn("processor failed", "name", e.desc.Name, "load_id", e.desc.LoadID, "error", err)
		return "", &ApplyError{Name: e.desc.Name, Kind: ErrApplyExecution, Err: err}
	}

	r.logger.Debug("processor applied",
		"name", e.desc.Name,
		"load_id", e.desc.LoadID,
		"in_bytes", len(text),
		"out_bytes", len(out),
		"elapsed", time.Since(start),
	)
	return out, nil
}

// suggestLocked returns the registered name closest to name, if any is close enough.
func (r *Registry) suggestLocked(name string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	lower := strings.ToLower(name)
	for _, candidate := range r.order {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(candidate))
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// Close releases every registered processor that holds resources and
// empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.order = nil
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := closeProcessor(e.proc); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", e.desc.Name, err))
		}
	}
	return errors.Join(errs...)
}

func closeProcessor(p Processor) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
