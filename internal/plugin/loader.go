package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quill/internal/processor"
	plua "github.com/dshills/quill/internal/plugin/lua"
)

// ScriptExt is the extension of processor scripts.
const ScriptExt = ".lua"

// contractMethods are the functions a table needs to be a processor.
var contractMethods = []string{"process", "get_name", "get_description"}

// Loader loads Lua processor scripts and discovers them on disk.
type Loader struct {
	// Search paths for scripts (checked in order)
	paths []string

	executionTimeout time.Duration
	unsafe           bool
	logger           *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths sets the script search paths.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = paths
	}
}

// WithExecutionTimeout bounds every call into a script. Zero disables it.
func WithExecutionTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.executionTimeout = d
	}
}

// WithUnsafeLibraries gives scripts the io, os and debug libraries.
func WithUnsafeLibraries(unsafe bool) LoaderOption {
	return func(l *Loader) {
		l.unsafe = unsafe
	}
}

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a new script loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		paths:            DefaultProcessorPaths(),
		executionTimeout: plua.DefaultExecutionTimeout,
		logger:           slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// DefaultProcessorPaths returns the default script search paths.
func DefaultProcessorPaths() []string {
	paths := make([]string, 0, 2)

	// User scripts: ~/.config/quill/processors/
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "quill", "processors"))
	}

	// Project scripts: .quill/processors/
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".quill", "processors"))
	}

	return paths
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// AddPath adds a search path.
func (l *Loader) AddPath(path string) {
	l.paths = append(l.paths, path)
}

// Discover returns the script files found in the search paths. Files are
// listed path by path, sorted by name within a path. When two paths hold a
// script with the same file name, the earlier path wins.
func (l *Loader) Discover() ([]string, error) {
	var found []string
	seen := make(map[string]bool)

	for _, basePath := range l.paths {
		entries, err := os.ReadDir(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				continue // Not an error if path doesn't exist
			}
			return found, fmt.Errorf("discover %s: %w", basePath, err)
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ScriptExt {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			found = append(found, filepath.Join(basePath, name))
		}
	}

	return found, nil
}

// Load runs the script at path in a fresh Lua state and adapts its first
// conforming table to processor.Processor. Errors are *processor.LoadError.
func (l *Loader) Load(ctx context.Context, path string) (processor.Processor, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, processor.NewLoadError(path, processor.ErrLoadIO, err)
	}

	state := plua.NewState(
		plua.WithExecutionTimeout(l.executionTimeout),
		plua.WithUnsafeLibraries(l.unsafe),
	)

	rets, defined, err := state.DoString(ctx, string(src), path)
	if err != nil {
		state.Close()
		return nil, processor.NewLoadError(path, processor.ErrLoadExecution, err)
	}

	for _, candidate := range l.candidates(state, rets, defined) {
		if !conforms(state, candidate) {
			continue
		}

		script, err := l.instantiate(ctx, state, path, candidate)
		if err != nil {
			state.Close()
			return nil, processor.NewLoadError(path, processor.ErrInstantiation, err)
		}

		l.logger.Debug("script loaded", "path", path, "name", script.name)
		return script, nil
	}

	state.Close()
	return nil, processor.NewLoadError(path, processor.ErrNoConformingUnit, nil)
}

// candidates lists the tables to inspect: returned values first, then the
// globals in definition order.
func (l *Loader) candidates(state *plua.State, rets []lua.LValue, defined []string) []lua.LValue {
	out := make([]lua.LValue, 0, len(rets)+len(defined))
	for _, v := range rets {
		if v.Type() == lua.LTTable {
			out = append(out, v)
		}
	}
	for _, name := range defined {
		if v := state.GetGlobal(name); v.Type() == lua.LTTable {
			out = append(out, v)
		}
	}
	return out
}

// conforms reports whether v provides every contract method.
func conforms(state *plua.State, v lua.LValue) bool {
	for _, method := range contractMethods {
		if state.GetField(v, method).Type() != lua.LTFunction {
			return false
		}
	}
	return true
}

// instantiate builds the processor instance and reads its name and description.
func (l *Loader) instantiate(ctx context.Context, state *plua.State, path string, class lua.LValue) (*Script, error) {
	instance := class

	if ctor := state.GetField(class, "new"); ctor.Type() == lua.LTFunction {
		rets, err := state.Call(ctx, ctor, class)
		if err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}
		if len(rets) == 0 || rets[0] == lua.LNil {
			return nil, fmt.Errorf("new: %w: returned nil", ErrBadReturn)
		}
		instance = rets[0]
		if !conforms(state, instance) {
			return nil, fmt.Errorf("%w: instance must provide %s", ErrMissingMethod, strings.Join(contractMethods, ", "))
		}
	}

	name, err := callString(ctx, state, instance, "get_name")
	if err != nil {
		return nil, err
	}
	desc, err := callString(ctx, state, instance, "get_description")
	if err != nil {
		return nil, err
	}

	return &Script{
		path:     path,
		name:     name,
		desc:     desc,
		state:    state,
		instance: instance,
	}, nil
}

// callString calls instance:method() and expects a string result.
func callString(ctx context.Context, state *plua.State, instance lua.LValue, method string) (string, error) {
	rets, err := state.Call(ctx, state.GetField(instance, method), instance)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	if len(rets) == 0 {
		return "", fmt.Errorf("%s: %w: returned nothing", method, ErrBadReturn)
	}
	s, ok := rets[0].(lua.LString)
	if !ok {
		return "", fmt.Errorf("%s: %w: got %s, want string", method, ErrBadReturn, rets[0].Type())
	}
	return string(s), nil
}

// Script is a processor implemented by a Lua script.
type Script struct {
	path     string
	name     string
	desc     string
	state    *plua.State
	instance lua.LValue
}

var (
	_ processor.Processor = (*Script)(nil)
	_ io.Closer           = (*Script)(nil)
)

// Name implements processor.Processor.
func (s *Script) Name() string { return s.name }

// Description implements processor.Processor.
func (s *Script) Description() string { return s.desc }

// Path returns the file the script was loaded from.
func (s *Script) Path() string { return s.path }

// Process calls instance:process(text).
func (s *Script) Process(ctx context.Context, text string) (string, error) {
	rets, err := s.state.Call(ctx, s.state.GetField(s.instance, "process"), s.instance, lua.LString(text))
	if err != nil {
		return "", err
	}
	if len(rets) == 0 {
		return "", fmt.Errorf("process: %w: returned nothing", ErrBadReturn)
	}

	switch v := rets[0].(type) {
	case lua.LString:
		return string(v), nil
	default:
		if v == lua.LNil && len(rets) > 1 && rets[1] != lua.LNil {
			return "", fmt.Errorf("process: %s", rets[1].String())
		}
		return "", fmt.Errorf("process: %w: got %s, want string", ErrBadReturn, v.Type())
	}
}

// Close releases the script's Lua state.
func (s *Script) Close() error {
	return s.state.Close()
}
