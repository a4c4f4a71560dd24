package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "QUILL_"

// envMapping maps environment variables to setters.
var envMapping = map[string]func(c *Config, val string) error{
	"QUILL_LOG_LEVEL": func(c *Config, val string) error {
		c.Log.Level = val
		return nil
	},
	"QUILL_LOG_FILE": func(c *Config, val string) error {
		c.Log.File = expandHome(val)
		return nil
	},
	"QUILL_WORD_WRAP": func(c *Config, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		c.Editor.WordWrap = b
		return nil
	},
	"QUILL_PROCESSOR_PATH": func(c *Config, val string) error {
		c.Plugins.Autoload = append(c.Plugins.Autoload, expandPaths(filepath.SplitList(val))...)
		return nil
	},
	"QUILL_EXEC_TIMEOUT": func(c *Config, val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		c.Plugins.ExecTimeout = Duration(d)
		return nil
	},
}

// ApplyEnv overrides settings from QUILL_* environment variables.
// Note: Empty string values are treated as unset.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for name, set := range envMapping {
		val, ok := lookup(name)
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}
		if err := set(c, val); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
