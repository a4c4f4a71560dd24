package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quill/internal/processor"
)

func TestExampleScripts(t *testing.T) {
	assert.Equal(t, []string{"sentence_reverser.lua", "word_reverser.lua"}, ExampleScripts())

	src, err := ExampleSource("word_reverser.lua")
	require.NoError(t, err)
	assert.Contains(t, string(src), "WordReverser")
}

func TestWriteExamples(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "processors")
	keep := filepath.Join(dir, "word_reverser.lua")

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(keep, []byte("-- mine"), 0o644))

	written, err := WriteExamples(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sentence_reverser.lua")}, written)

	data, err := os.ReadFile(keep)
	require.NoError(t, err)
	assert.Equal(t, "-- mine", string(data))
}

// The bundled scripts behave like the Go built-ins.
func TestExampleScriptsMatchBuiltins(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteExamples(dir)
	require.NoError(t, err)

	inputs := []string{
		"hello world",
		"  spaced   out\ttext\n",
		"A. B! C?",
		"no punctuation here",
		"First sentence. Second one! Third?",
		"Trailing fragment. without stop",
		"One. Two.\n",
		"héllo wörld. ça va?",
		"ab\u00a0cd ef",
		"One.\u00a0Two.",
		"\u3000wide\u2003space\u3000",
		"e\u0301x ab",
		"🇫🇷ok 👨\u200d👩x",
		"café\u202fau lait. Encore!\u0085Oui?",
		"",
	}

	ctx := context.Background()
	loader := NewLoader()
	tests := []struct {
		file    string
		builtin processor.Processor
	}{
		{"word_reverser.lua", processor.WordReverser{}},
		{"sentence_reverser.lua", processor.SentenceReverser{}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			script, err := loader.Load(ctx, filepath.Join(dir, tt.file))
			require.NoError(t, err)
			defer script.(*Script).Close()

			assert.Equal(t, tt.builtin.Name(), script.Name())
			assert.Equal(t, tt.builtin.Description(), script.Description())

			for _, in := range inputs {
				want, err := tt.builtin.Process(ctx, in)
				require.NoError(t, err)
				got, err := script.Process(ctx, in)
				require.NoError(t, err)
				assert.Equal(t, want, got, "input %q", in)
			}
		})
	}
}
