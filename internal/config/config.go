package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultTimestampFormat matches "%Y-%m-%d %H:%M:%S".
const DefaultTimestampFormat = "2006-01-02 15:04:05"

// Config holds all of quill's settings.
type Config struct {
	Editor  EditorConfig  `toml:"editor"`
	Plugins PluginsConfig `toml:"plugins"`
	Theme   ThemeConfig   `toml:"theme"`
	Log     LogConfig     `toml:"log"`
}

// EditorConfig holds text editing settings.
type EditorConfig struct {
	// WordWrap soft-wraps lines at the window width.
	WordWrap bool `toml:"word_wrap"`

	// TabWidth is the number of cells a tab occupies.
	TabWidth int `toml:"tab_width"`

	// TimestampFormat is a Go time layout used by Insert Timestamp.
	TimestampFormat string `toml:"timestamp_format"`

	// HistoryLimit bounds the undo stack.
	HistoryLimit int `toml:"history_limit"`
}

// PluginsConfig controls text processor loading.
type PluginsConfig struct {
	// Autoload lists directories whose scripts are loaded at startup.
	Autoload []string `toml:"autoload"`

	// PreloadBuiltins registers the Go reference processors at startup.
	PreloadBuiltins bool `toml:"preload_builtins"`

	// Watch reloads loaded scripts when they change on disk.
	Watch bool `toml:"watch"`

	// ExecTimeout bounds a single script call. Zero disables it.
	ExecTimeout Duration `toml:"exec_timeout"`

	// Unsafe exposes io, os and the file loading functions to scripts.
	Unsafe bool `toml:"unsafe"`
}

// LogConfig controls the log file.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level"`

	// File is the log path. Empty means DefaultLogPath.
	File string `toml:"file"`
}

// Duration is a time.Duration written as a string like "5s" in TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			WordWrap:        false,
			TabWidth:        4,
			TimestampFormat: DefaultTimestampFormat,
			HistoryLimit:    1000,
		},
		Plugins: PluginsConfig{
			ExecTimeout: 0,
		},
		Theme: DefaultTheme(),
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.config/quill/config.toml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".quill", "config.toml")
	}
	return filepath.Join(dir, "quill", "config.toml")
}

// DefaultLogPath returns the log file used when log.file is empty.
func DefaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "quill.log")
	}
	return filepath.Join(dir, "quill", "quill.log")
}

// Load reads the configuration at path on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return parse(path, bytes.NewReader(data))
}

// LoadFromReader reads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	return parse("<reader>", r)
}

// parse decodes TOML over the defaults.
func parse(source string, r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return nil, perr
	}
	cfg.Plugins.Autoload = expandPaths(cfg.Plugins.Autoload)
	cfg.Log.File = expandHome(cfg.Log.File)
	return cfg, nil
}

// Write encodes cfg as TOML.
func (c *Config) Write(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(false)
	return enc.Encode(c)
}

// Validate reports every invalid field, joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if c.Editor.TabWidth < 1 || c.Editor.TabWidth > 16 {
		add("editor.tab_width", "must be between 1 and 16", c.Editor.TabWidth)
	}
	if c.Editor.HistoryLimit < 1 {
		add("editor.history_limit", "must be positive", c.Editor.HistoryLimit)
	}
	if strings.TrimSpace(c.Editor.TimestampFormat) == "" {
		add("editor.timestamp_format", "must not be empty", c.Editor.TimestampFormat)
	}
	if c.Plugins.ExecTimeout < 0 {
		add("plugins.exec_timeout", "must not be negative", c.Plugins.ExecTimeout.Std())
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		add("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	for _, f := range c.Theme.fields() {
		if _, err := ParseColor(f.value); err != nil {
			add("theme."+f.name, "must be a #rrggbb color", f.value)
		}
	}
	return errors.Join(errs...)
}

// LogPath returns the configured log file or the default.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return DefaultLogPath()
}

func expandPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, expandHome(p))
		}
	}
	return out
}

// expandHome replaces a leading ~ with the home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
