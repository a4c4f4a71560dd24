package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quill/internal/processor"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

const upperScript = `
Upper = {}
Upper.__index = Upper

function Upper:new() return setmetatable({}, self) end
function Upper:process(text) return string.upper(text) end
function Upper:get_name() return "Upper" end
function Upper:get_description() return "Upper-cases the text." end
`

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	assert.NotEmpty(t, loader.Paths(), "NewLoader() should have default paths")

	loader = NewLoader(WithPaths("/initial"))
	loader.AddPath("/added")
	assert.Equal(t, []string{"/initial", "/added"}, loader.Paths())
}

func TestLoaderLoad(t *testing.T) {
	path := writeScript(t, t.TempDir(), "upper.lua", upperScript)

	p, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	script, ok := p.(*Script)
	require.True(t, ok)
	defer script.Close()

	assert.Equal(t, "Upper", p.Name())
	assert.Equal(t, "Upper-cases the text.", p.Description())
	assert.Equal(t, path, script.Path())

	out, err := p.Process(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", out)
}

func TestLoaderLoadWithoutConstructor(t *testing.T) {
	path := writeScript(t, t.TempDir(), "static.lua", `
Static = {}
function Static.process(self, text) return text .. "!" end
function Static.get_name() return "Static" end
function Static.get_description() return "" end
`)

	p, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	defer p.(*Script).Close()

	out, err := p.Process(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)
}

func TestLoaderLoadPicksFirstDefinedConformingTable(t *testing.T) {
	path := writeScript(t, t.TempDir(), "two.lua", `
Helper = { value = 1 }
Zulu = {
  process = function(self, t) return "zulu" end,
  get_name = function() return "Zulu" end,
  get_description = function() return "" end,
}
Alpha = {
  process = function(self, t) return "alpha" end,
  get_name = function() return "Alpha" end,
  get_description = function() return "" end,
}
`)

	p, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	defer p.(*Script).Close()

	assert.Equal(t, "Zulu", p.Name())
}

func TestLoaderLoadFindsRawsetGlobal(t *testing.T) {
	path := writeScript(t, t.TempDir(), "raw.lua", `
local P = {
  process = function(self, t) return t .. "!" end,
  get_name = function() return "Raw" end,
  get_description = function() return "defined with rawset" end,
}
rawset(_G, "P", P)
`)

	p, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	defer p.(*Script).Close()

	assert.Equal(t, "Raw", p.Name())
	out, err := p.Process(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)
}

func TestLoaderLoadPrefersReturnedTable(t *testing.T) {
	path := writeScript(t, t.TempDir(), "module.lua", `
Global = {
  process = function(self, t) return t end,
  get_name = function() return "Global" end,
  get_description = function() return "" end,
}
local M = {}
function M:process(t) return t:reverse() end
function M:get_name() return "Returned" end
function M:get_description() return "returned module" end
return M
`)

	p, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	defer p.(*Script).Close()

	assert.Equal(t, "Returned", p.Name())
	out, err := p.Process(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "cba", out)
}

func TestLoaderLoadInheritedMethods(t *testing.T) {
	path := writeScript(t, t.TempDir(), "inherit.lua", `
Base = {}
Base.__index = Base
function Base:process(t) return self.prefix .. t end
function Base:get_description() return "base" end

Child = setmetatable({ prefix = ">" }, { __index = Base })
function Child:get_name() return "Child" end
`)

	p, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	defer p.(*Script).Close()

	assert.Equal(t, "Child", p.Name())
	out, err := p.Process(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, ">x", out)
}

func TestLoaderLoadFailures(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		kind error
	}{
		{
			name: "missing file",
			path: filepath.Join(dir, "missing.lua"),
			kind: processor.ErrLoadIO,
		},
		{
			name: "directory",
			path: dir,
			kind: processor.ErrLoadIO,
		},
		{
			name: "syntax error",
			path: writeScript(t, dir, "syntax.lua", `Broken = {`),
			kind: processor.ErrLoadExecution,
		},
		{
			name: "raises at top level",
			path: writeScript(t, dir, "raise.lua", `error("top level failure")`),
			kind: processor.ErrLoadExecution,
		},
		{
			name: "no conforming table",
			path: writeScript(t, dir, "none.lua", `
Partial = { process = function() end, get_name = function() return "P" end }
NotATable = "process"
function get_description() return "" end
`),
			kind: processor.ErrNoConformingUnit,
		},
		{
			name: "empty file",
			path: writeScript(t, dir, "empty.lua", ``),
			kind: processor.ErrNoConformingUnit,
		},
		{
			name: "constructor raises",
			path: writeScript(t, dir, "ctor.lua", `
C = {}
function C:new() error("cannot construct") end
function C:process(t) return t end
function C:get_name() return "C" end
function C:get_description() return "" end
`),
			kind: processor.ErrInstantiation,
		},
		{
			name: "constructor returns nil",
			path: writeScript(t, dir, "nilctor.lua", `
C = {}
function C:new() return nil end
function C:process(t) return t end
function C:get_name() return "C" end
function C:get_description() return "" end
`),
			kind: processor.ErrInstantiation,
		},
		{
			name: "instance lacks methods",
			path: writeScript(t, dir, "bare.lua", `
C = {}
function C:new() return {} end
function C:process(t) return t end
function C:get_name() return "C" end
function C:get_description() return "" end
`),
			kind: processor.ErrInstantiation,
		},
		{
			name: "get_name not a string",
			path: writeScript(t, dir, "badname.lua", `
C = {}
function C:process(t) return t end
function C:get_name() return 42 end
function C:get_description() return "" end
`),
			kind: processor.ErrInstantiation,
		},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := loader.Load(context.Background(), tt.path)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.kind)

			var le *processor.LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.path, le.Path)
		})
	}
}

func TestLoaderLoadTopLevelTimeout(t *testing.T) {
	path := writeScript(t, t.TempDir(), "spin.lua", `while true do end`)

	loader := NewLoader(WithExecutionTimeout(50 * time.Millisecond))
	_, err := loader.Load(context.Background(), path)
	assert.ErrorIs(t, err, processor.ErrLoadExecution)
}

func TestLoaderScriptsCannotSeeEachOther(t *testing.T) {
	dir := t.TempDir()
	first := writeScript(t, dir, "first.lua", upperScript+"\nSecret = 'first'\n")
	second := writeScript(t, dir, "second.lua", `
Peek = {}
function Peek:process(t) return tostring(Secret) end
function Peek:get_name() return "Peek" end
function Peek:get_description() return "" end
`)

	loader := NewLoader()
	p1, err := loader.Load(context.Background(), first)
	require.NoError(t, err)
	defer p1.(*Script).Close()

	p2, err := loader.Load(context.Background(), second)
	require.NoError(t, err)
	defer p2.(*Script).Close()

	out, err := p2.Process(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "nil", out)
}

func TestScriptProcessFailures(t *testing.T) {
	path := writeScript(t, t.TempDir(), "fail.lua", `
F = { mode = "raise" }
function F:process(t)
  if t == "raise" then error("transform exploded") end
  if t == "nilmsg" then return nil, "bad input" end
  if t == "number" then return 7 end
  if t == "spin" then while true do end end
  return t
end
function F:get_name() return "F" end
function F:get_description() return "" end
`)

	p, err := NewLoader(WithExecutionTimeout(50*time.Millisecond)).Load(context.Background(), path)
	require.NoError(t, err)
	defer p.(*Script).Close()

	ctx := context.Background()

	_, err = p.Process(ctx, "raise")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform exploded")

	_, err = p.Process(ctx, "nilmsg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input")

	_, err = p.Process(ctx, "number")
	assert.ErrorIs(t, err, ErrBadReturn)

	_, err = p.Process(ctx, "spin")
	require.Error(t, err)

	out, err := p.Process(ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
}

func TestLoaderWithRegistry(t *testing.T) {
	dir := t.TempDir()
	a := writeScript(t, dir, "a.lua", `
A = {}
function A:process(t) return "first" end
function A:get_name() return "X" end
function A:get_description() return "" end
`)
	b := writeScript(t, dir, "b.lua", `
B = {}
function B:process(t) return "second" end
function B:get_name() return "X" end
function B:get_description() return "" end
`)
	none := writeScript(t, dir, "none.lua", `x = 1`)

	ctx := context.Background()
	reg := processor.NewRegistry(processor.WithLoader(NewLoader()))
	defer reg.Close()

	_, err := reg.Load(ctx, a)
	require.NoError(t, err)
	_, err = reg.Load(ctx, b)
	require.NoError(t, err)

	_, err = reg.Load(ctx, none)
	assert.ErrorIs(t, err, processor.ErrNoConformingUnit)

	assert.Equal(t, []string{"X"}, reg.List())
	name, out, err := reg.ApplyMostRecent(ctx, "text")
	require.NoError(t, err)
	assert.Equal(t, "X", name)
	assert.Equal(t, "second", out)
}

func TestLoaderDiscover(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	writeScript(t, first, "b.lua", "")
	writeScript(t, first, "a.lua", "")
	writeScript(t, first, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(first, "dir.lua"), 0o755))
	writeScript(t, second, "a.lua", "")
	writeScript(t, second, "c.lua", "")

	loader := NewLoader(WithPaths(first, filepath.Join(first, "missing"), second))
	found, err := loader.Discover()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(first, "a.lua"),
		filepath.Join(first, "b.lua"),
		filepath.Join(second, "c.lua"),
	}, found)
}
