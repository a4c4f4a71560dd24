package lua

import (
	"slices"

	lua "github.com/yuin/gopher-lua"
)

// removedGlobals are base functions that would let a script load other code.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
}

// openLibraries opens the libraries a processor script may use.
//
// The base, table, string, math and coroutine libraries are always opened.
// io, os and debug are only opened when unsafe is true; package is never
// opened, so scripts cannot pull in other files.
func openLibraries(L *lua.LState, unsafe bool) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
		{lua.CoroutineLibName, lua.OpenCoroutine},
	} {
		openLib(L, lib.name, lib.fn)
	}

	if unsafe {
		openLib(L, lua.IoLibName, lua.OpenIo)
		openLib(L, lua.OsLibName, lua.OpenOs)
		openLib(L, lua.DebugLibName, lua.OpenDebug)
		return
	}

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
}

func openLib(L *lua.LState, name string, fn lua.LGFunction) {
	L.Push(L.NewFunction(fn))
	L.Push(lua.LString(name))
	L.Call(1, 0)
}

// globalRecorder records the names of new globals in assignment order.
type globalRecorder struct {
	names    []string
	seen     map[string]bool
	baseline map[string]bool
}

// install sets a metatable on the global table whose __newindex records
// every new string key before storing it.
func (r *globalRecorder) install(L *lua.LState) {
	r.seen = make(map[string]bool)
	r.baseline = make(map[string]bool)
	L.G.Global.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			r.baseline[string(ks)] = true
		}
	})
	mt := L.NewTable()
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		key := L.Get(2)
		val := L.Get(3)
		if ks, ok := key.(lua.LString); ok && !r.seen[string(ks)] {
			r.seen[string(ks)] = true
			r.names = append(r.names, string(ks))
		}
		tbl.RawSet(key, val)
		return 0
	}))
	L.SetMetatable(L.G.Global, mt)
}

// uninstall removes the recording metatable.
func (r *globalRecorder) uninstall(L *lua.LState) {
	L.SetMetatable(L.G.Global, lua.LNil)
}

// finish appends globals the chunk stored without going through
// __newindex (rawset(_G, ...)), sorted by name, and returns every new name.
func (r *globalRecorder) finish(L *lua.LState) []string {
	var raw []string
	L.G.Global.ForEach(func(k, _ lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok || r.baseline[string(ks)] || r.seen[string(ks)] {
			return
		}
		raw = append(raw, string(ks))
	})
	slices.Sort(raw)
	return append(r.names, raw...)
}
