// Package config loads quill's settings.
//
// Settings come from three places, later ones overriding earlier ones:
//
//	1. Built-in defaults (Default)
//	2. The TOML file (~/.config/quill/config.toml unless -config is given)
//	3. QUILL_* environment variables (ApplyEnv)
//
// A missing file is not an error. Unknown keys are reported as a ParseError
// so that typos do not silently fall back to defaults.
//
// # File format
//
//	[editor]
//	word_wrap = false
//	tab_width = 4
//	timestamp_format = "2006-01-02 15:04:05"
//	history_limit = 1000
//
//	[plugins]
//	autoload = ["~/.config/quill/processors"]
//	preload_builtins = false
//	watch = false
//	exec_timeout = "0s"  # "5s" stops runaway scripts
//
//	[theme]
//	status_fg = "#000000"
//	status_bg = "#c0c0c0"
//
//	[log]
//	level = "info"
//	file = ""
package config
