// Package plugin loads text processors written in Lua.
//
// A processor script is a Lua file that defines a table with three methods:
//
//	Shout = {}
//	Shout.__index = Shout
//
//	function Shout:new() return setmetatable({}, self) end   -- optional
//	function Shout:process(text) return string.upper(text) end
//	function Shout:get_name() return "Shout" end
//	function Shout:get_description() return "Upper-cases the text." end
//
// Each file runs in its own Lua state, so scripts never see each other's
// globals or the editor's. After the chunk runs, the values it returned and
// then the globals it defined (in the order it first assigned them, with
// globals stored through rawset last, by name) are checked; the first table providing process, get_name and get_description
// is instantiated by calling its new function with no arguments, or used
// as-is when it has none.
//
// Methods are called with the instance as the first argument, as with the
// colon syntax above. process may signal failure by raising an error or by
// returning nil and a message.
//
// # Discovery
//
// Loader.Discover lists the *.lua files of the configured search paths:
//
//	~/.config/quill/processors/
//	.quill/processors/
//
// # Watching
//
// A Watcher reports writes to loaded script files so they can be reloaded.
package plugin
