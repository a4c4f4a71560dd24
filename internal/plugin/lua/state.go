package lua

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single chunk run or function call.
// Zero means scripts run until they return or the caller's context ends.
const DefaultExecutionTimeout time.Duration = 0

// State wraps a gopher-lua state dedicated to one script.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	unsafe           bool

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout for chunk runs and calls.
// Zero disables the timeout.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithUnsafeLibraries opens the io, os and debug libraries and keeps the
// dynamic loading functions.
func WithUnsafeLibraries(unsafe bool) StateOption {
	return func(s *State) {
		s.unsafe = unsafe
	}
}

// NewState creates a fresh Lua state with its own global namespace.
func NewState(opts ...StateOption) *State {
	s := &State{
		executionTimeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openLibraries(s.L, s.unsafe)
	return s
}

// DoFile runs the chunk in path. It returns the values the chunk returned
// and the names of the globals it defined, in first-assignment order.
// Globals stored with rawset follow, sorted by name.
func (s *State) DoFile(ctx context.Context, path string) ([]lua.LValue, []string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return s.DoString(ctx, string(src), path)
}

// DoString runs code as a chunk named chunkName. See DoFile.
func (s *State) DoString(ctx context.Context, code, chunkName string) ([]lua.LValue, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, ErrStateClosed
	}

	fn, err := s.L.Load(strings.NewReader(code), chunkName)
	if err != nil {
		return nil, nil, fmt.Errorf("compile %s: %w", chunkName, err)
	}

	var rec globalRecorder
	rec.install(s.L)
	defer rec.uninstall(s.L)

	rets, err := s.callLocked(ctx, fn)
	if err != nil {
		return nil, nil, err
	}
	return rets, rec.finish(s.L), nil
}

// Call calls fn with args and returns all of its results.
func (s *State) Call(ctx context.Context, fn lua.LValue, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w (got %s)", ErrNotFunction, fn.Type())
	}
	return s.callLocked(ctx, fn, args...)
}

// callLocked performs a protected call. s.mu must be held.
func (s *State) callLocked(ctx context.Context, fn lua.LValue, args ...lua.LValue) (rets []lua.LValue, err error) {
	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	stackTop := s.L.GetTop()
	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	if callErr := s.L.PCall(len(args), lua.MultRet, nil); callErr != nil {
		s.L.SetTop(stackTop)
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) && s.executionTimeout > 0 {
				return nil, fmt.Errorf("%w after %s", ErrExecutionTimeout, s.executionTimeout)
			}
			return nil, ctxErr
		}
		return nil, errors.New(ErrorMessage(callErr))
	}

	nRet := s.L.GetTop() - stackTop
	rets = make([]lua.LValue, nRet)
	for i := 0; i < nRet; i++ {
		rets[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.SetTop(stackTop)
	return rets, nil
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// GetField returns t[key], honoring metatables. A lookup that raises
// yields LNil.
func (s *State) GetField(t lua.LValue, key string) (v lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	if t.Type() != lua.LTTable && t.Type() != lua.LTUserData {
		return lua.LNil
	}

	defer func() {
		if r := recover(); r != nil {
			v = lua.LNil
		}
	}()
	return s.L.GetField(t, key)
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Subsequent calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

// ErrorMessage returns the Lua error object of err without the stack
// traceback gopher-lua appends.
func ErrorMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	msg := err.Error()
	if i := strings.Index(msg, "\nstack traceback:"); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
