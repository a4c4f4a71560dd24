package statusline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quill/internal/renderer/backend"
	"github.com/dshills/quill/internal/renderer/core"
)

func render(t *testing.T, s *StatusLine, width int) string {
	t.Helper()
	b := backend.NewNullBackend(width, 1)
	require.NoError(t, b.Init())
	s.Render(b, 0, width)
	return b.Row(0)
}

func TestStatusLineFormats(t *testing.T) {
	s := New()
	assert.Equal(t, "Line: 1, Column: 1", s.Position())

	s.SetPosition(12, 7)
	s.SetWindowSize(80, 24)
	assert.Equal(t, "Line: 12, Column: 7", s.Position())
	assert.Equal(t, "Window Size: 80x24", s.WindowSize())
}

func TestStatusLineRender(t *testing.T) {
	s := New()
	s.SetPosition(3, 9)
	s.SetWindowSize(60, 20)
	s.SetFilename("notes.txt", true)

	row := render(t, s, 60)
	assert.Len(t, []rune(row), 60)
	assert.True(t, strings.HasPrefix(row, " Line: 3, Column: 9"))
	assert.True(t, strings.HasSuffix(row, "Window Size: 60x20 "))
	assert.Contains(t, row, "notes.txt [+]")
}

func TestStatusLineMessage(t *testing.T) {
	s := New()
	s.SetWindowSize(60, 20)
	s.SetMessage("Loaded Shout", MessageInfo)

	row := render(t, s, 60)
	assert.Contains(t, row, "Loaded Shout")
	assert.NotContains(t, row, "[No Name]")

	msg, typ := s.Message()
	assert.Equal(t, "Loaded Shout", msg)
	assert.Equal(t, MessageInfo, typ)

	s.ClearMessage()
	assert.Contains(t, render(t, s, 60), "[No Name]")
}

func TestStatusLineErrorStyle(t *testing.T) {
	s := New()
	s.SetWindowSize(60, 20)
	s.SetMessage("boom", MessageError)

	b := backend.NewNullBackend(60, 1)
	require.NoError(t, b.Init())
	s.Render(b, 0, 60)

	row := b.Row(0)
	i := strings.Index(row, "boom")
	require.GreaterOrEqual(t, i, 0)
	assert.True(t, b.GetCell(i, 0).Style.Attributes.Has(core.AttrBold))
}

func TestStatusLineNarrow(t *testing.T) {
	s := New()
	s.SetWindowSize(10, 5)
	s.SetMessage("a long message that cannot fit", MessageInfo)

	row := render(t, s, 24)
	assert.True(t, strings.HasPrefix(row, " Line: 1, Column: 1"))
	assert.NotContains(t, row, "Window")
}
