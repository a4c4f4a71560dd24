package plugin

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed examples/*.lua
var examples embed.FS

// ExampleScripts returns the file names of the bundled example scripts.
func ExampleScripts() []string {
	entries, _ := fs.ReadDir(examples, "examples")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// ExampleSource returns the source of a bundled example script.
func ExampleSource(name string) ([]byte, error) {
	return examples.ReadFile("examples/" + name)
}

// WriteExamples copies the bundled example scripts into dir and returns the
// written paths. Existing files are left alone.
func WriteExamples(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var written []string
	for _, name := range ExampleScripts() {
		dst := filepath.Join(dir, name)
		if _, err := os.Stat(dst); err == nil {
			continue
		}

		src, err := ExampleSource(name)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(dst, src, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}
