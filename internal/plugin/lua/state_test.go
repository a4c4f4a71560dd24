package lua

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"
)

func TestNewState(t *testing.T) {
	state := NewState()
	defer state.Close()

	assert.False(t, state.IsClosed())
	assert.NotNil(t, state.L)
}

func TestStateDoStringRecordsGlobalsInOrder(t *testing.T) {
	state := NewState()
	defer state.Close()

	rets, defined, err := state.DoString(context.Background(), `
		Zeta = {}
		alpha = 1
		local hidden = 2
		function Middle() end
		Zeta = { again = true }
	`, "order.lua")
	require.NoError(t, err)

	assert.Empty(t, rets)
	assert.Equal(t, []string{"Zeta", "alpha", "Middle"}, defined)
	assert.Equal(t, glua.LNumber(1), state.GetGlobal("alpha"))
	assert.Equal(t, glua.LNil, state.GetGlobal("hidden"))
}

func TestStateDoStringRecordsRawsetGlobals(t *testing.T) {
	state := NewState()
	defer state.Close()

	_, defined, err := state.DoString(context.Background(), `
		first = 1
		rawset(_G, "zed", {})
		rawset(_G, "beta", {})
	`, "rawset.lua")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "beta", "zed"}, defined)
}

func TestStateDoStringReturnsChunkValues(t *testing.T) {
	state := NewState()
	defer state.Close()

	rets, _, err := state.DoString(context.Background(), `return "a", 2`, "rets.lua")
	require.NoError(t, err)
	require.Len(t, rets, 2)
	assert.Equal(t, glua.LString("a"), rets[0])
	assert.Equal(t, glua.LNumber(2), rets[1])
}

func TestStateDoStringErrors(t *testing.T) {
	state := NewState()
	defer state.Close()

	_, _, err := state.DoString(context.Background(), `this is not lua`, "syntax.lua")
	assert.Error(t, err)

	_, _, err = state.DoString(context.Background(), `error("boom")`, "raise.lua")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NotContains(t, err.Error(), "stack traceback")
}

func TestStateStatesAreIsolated(t *testing.T) {
	a := NewState()
	defer a.Close()
	b := NewState()
	defer b.Close()

	_, _, err := a.DoString(context.Background(), `shared = "a"`, "a.lua")
	require.NoError(t, err)

	assert.Equal(t, glua.LNil, b.GetGlobal("shared"))
}

func TestStateRestrictedLibraries(t *testing.T) {
	state := NewState()
	defer state.Close()

	for _, name := range []string{"io", "os", "debug", "dofile", "loadfile", "load", "loadstring", "require"} {
		assert.Equal(t, glua.LNil, state.GetGlobal(name), name)
	}
	for _, name := range []string{"string", "table", "math", "coroutine", "pairs", "pcall"} {
		assert.NotEqual(t, glua.LNil, state.GetGlobal(name), name)
	}
}

func TestStateUnsafeLibraries(t *testing.T) {
	state := NewState(WithUnsafeLibraries(true))
	defer state.Close()

	assert.NotEqual(t, glua.LNil, state.GetGlobal("io"))
	assert.NotEqual(t, glua.LNil, state.GetGlobal("os"))
}

func TestStateCall(t *testing.T) {
	state := NewState()
	defer state.Close()

	_, _, err := state.DoString(context.Background(), `function add(a, b) return a + b, "ok" end`, "add.lua")
	require.NoError(t, err)

	rets, err := state.Call(context.Background(), state.GetGlobal("add"), glua.LNumber(2), glua.LNumber(3))
	require.NoError(t, err)
	require.Len(t, rets, 2)
	assert.Equal(t, glua.LNumber(5), rets[0])
	assert.Equal(t, glua.LString("ok"), rets[1])

	_, err = state.Call(context.Background(), glua.LString("nope"))
	assert.ErrorIs(t, err, ErrNotFunction)
}

func TestStateCallTimeout(t *testing.T) {
	state := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer state.Close()

	_, _, err := state.DoString(context.Background(), `function spin() while true do end end`, "spin.lua")
	require.NoError(t, err)

	_, err = state.Call(context.Background(), state.GetGlobal("spin"))
	assert.ErrorIs(t, err, ErrExecutionTimeout)

	// The state stays usable after a timeout.
	_, _, err = state.DoString(context.Background(), `x = 1`, "after.lua")
	assert.NoError(t, err)
}

func TestStateDefaultHasNoTimeout(t *testing.T) {
	state := NewState()
	defer state.Close()

	_, _, err := state.DoString(context.Background(), `
		function count(n)
			local total = 0
			for i = 1, n do total = total + i end
			return total
		end
		function spin() while true do end end
	`, "count.lua")
	require.NoError(t, err)

	rets, err := state.Call(context.Background(), state.GetGlobal("count"), glua.LNumber(2000000))
	require.NoError(t, err)
	assert.Equal(t, glua.LNumber(2000001000000), rets[0])

	// Only the caller's context stops a runaway call.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = state.Call(ctx, state.GetGlobal("spin"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrExecutionTimeout)
}

func TestStateGetField(t *testing.T) {
	state := NewState()
	defer state.Close()

	_, _, err := state.DoString(context.Background(), `
		Base = { greet = function() return "hi" end }
		Derived = setmetatable({}, { __index = Base })
		Broken = setmetatable({}, { __index = function() error("nope") end })
	`, "fields.lua")
	require.NoError(t, err)

	assert.Equal(t, glua.LTFunction, state.GetField(state.GetGlobal("Derived"), "greet").Type())
	assert.Equal(t, glua.LNil, state.GetField(state.GetGlobal("Broken"), "greet"))
	assert.Equal(t, glua.LNil, state.GetField(glua.LNumber(1), "greet"))
}

func TestStateDoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.lua")
	require.NoError(t, os.WriteFile(path, []byte(`Value = 42`), 0o644))

	state := NewState()
	defer state.Close()

	_, defined, err := state.DoFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Value"}, defined)

	_, _, err = state.DoFile(context.Background(), filepath.Join(t.TempDir(), "missing.lua"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStateClose(t *testing.T) {
	state := NewState()
	require.NoError(t, state.Close())
	require.NoError(t, state.Close())

	assert.True(t, state.IsClosed())
	_, _, err := state.DoString(context.Background(), `x = 1`, "x.lua")
	assert.ErrorIs(t, err, ErrStateClosed)
	_, err = state.Call(context.Background(), glua.LNil)
	assert.ErrorIs(t, err, ErrStateClosed)
}
