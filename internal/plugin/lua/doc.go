// Package lua provides the Lua runtime used to run processor scripts.
//
// This package wraps the gopher-lua library to provide:
//   - One isolated Lua state per loaded script
//   - A restricted standard library (no io, os, debug or dynamic loading)
//   - Ordered recording of the globals a chunk defines
//   - Execution timeouts through context cancellation
//
// # State
//
//	state := lua.NewState(lua.WithExecutionTimeout(5 * time.Second))
//	defer state.Close()
//
//	rets, defined, err := state.DoFile(ctx, "reverse.lua")
//	if err != nil {
//	    return err
//	}
//	for _, name := range defined {
//	    fmt.Println("chunk defined", name, state.GetGlobal(name))
//	}
//
// gopher-lua's LState is not goroutine-safe; State serializes every call
// with a mutex.
package lua
