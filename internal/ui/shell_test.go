package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quill/internal/app"
	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/engine/buffer"
	"github.com/dshills/quill/internal/processor"
	"github.com/dshills/quill/internal/renderer/backend"
	"github.com/dshills/quill/internal/renderer/statusline"
)

const shoutScript = `
Shout = {}
Shout.__index = Shout

function Shout:new() return setmetatable({}, self) end
function Shout:process(text) return string.upper(text) end
function Shout:get_name() return "Shout" end
function Shout:get_description() return "Upper-cases the text." end
`

func newTestShell(t *testing.T, width, height int) (*Shell, *backend.NullBackend) {
	t.Helper()
	a, err := app.New(app.Options{Config: config.Default()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	be := backend.NewNullBackend(width, height)
	require.NoError(t, be.Init())
	return New(a, be), be
}

func key(s *Shell, k backend.Key) {
	s.HandleEvent(backend.Event{Type: backend.EventKey, Key: k})
}

func shiftKey(s *Shell, k backend.Key) {
	s.HandleEvent(backend.Event{Type: backend.EventKey, Key: k, Mod: backend.ModShift})
}

func typeText(s *Shell, text string) {
	for _, r := range text {
		if r == '\n' {
			key(s, backend.KeyEnter)
			continue
		}
		s.HandleEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r})
	}
}

func message(s *Shell) (string, statusline.MessageType) {
	return s.status.Message()
}

func TestShellTypingAndStatusBar(t *testing.T) {
	s, be := newTestShell(t, 60, 12)
	typeText(s, "hello\nwo")
	s.Draw()

	assert.Equal(t, "hello", strings.TrimRight(be.Row(1), " "))
	assert.Equal(t, "wo", strings.TrimRight(be.Row(2), " "))

	status := be.Row(11)
	assert.Contains(t, status, "Line: 2, Column: 3")
	assert.Contains(t, status, "Window Size: 60x12")
	assert.Contains(t, status, "Untitled [+]")

	x, y, visible := be.CursorPosition()
	assert.True(t, visible)
	assert.Equal(t, 2, x)
	assert.Equal(t, 2, y)

	assert.Contains(t, be.Row(0), "File")
	assert.Contains(t, be.Row(0), "Modules")
}

func TestShellEditingKeys(t *testing.T) {
	s, _ := newTestShell(t, 60, 12)
	doc := s.app.Document()

	typeText(s, "abc")
	key(s, backend.KeyLeft)
	key(s, backend.KeyBackspace)
	assert.Equal(t, "ac", doc.Content())

	key(s, backend.KeyDelete)
	assert.Equal(t, "a", doc.Content())

	key(s, backend.KeyTab)
	assert.Equal(t, "a\t", doc.Content())

	key(s, backend.KeyHome)
	shiftKey(s, backend.KeyEnd)
	assert.Equal(t, "a\t", doc.SelectedText())

	key(s, backend.KeyEscape)
	assert.False(t, doc.HasSelection())
}

func TestShellClipboardBindings(t *testing.T) {
	s, _ := newTestShell(t, 60, 12)
	doc := s.app.Document()
	typeText(s, "copy me")

	key(s, backend.KeyCtrlA)
	key(s, backend.KeyCtrlC)
	assert.Equal(t, "copy me", s.app.Clipboard())

	key(s, backend.KeyCtrlX)
	assert.Equal(t, "", doc.Content())

	key(s, backend.KeyCtrlV)
	key(s, backend.KeyCtrlV)
	assert.Equal(t, "copy mecopy me", doc.Content())

	key(s, backend.KeyCtrlZ)
	assert.Equal(t, "copy me", doc.Content())
	key(s, backend.KeyCtrlY)
	assert.Equal(t, "copy mecopy me", doc.Content())
}

func TestShellUndoWithEmptyHistoryIsInfo(t *testing.T) {
	s, be := newTestShell(t, 60, 12)
	key(s, backend.KeyCtrlZ)

	msg, typ := message(s)
	assert.Equal(t, "nothing to undo", msg)
	assert.Equal(t, statusline.MessageInfo, typ)
	assert.Zero(t, be.Beeps())
}

func TestShellFindDialog(t *testing.T) {
	s, be := newTestShell(t, 60, 12)
	typeText(s, "one two one")
	key(s, backend.KeyHome)

	key(s, backend.KeyCtrlF)
	require.NotNil(t, s.dialog)
	typeText(s, "two")
	s.Draw()
	assert.Contains(t, strings.Join([]string{be.Row(4), be.Row(5), be.Row(6)}, "\n"), "Find:")

	key(s, backend.KeyEnter)
	assert.Nil(t, s.dialog)
	assert.Equal(t, "two", s.app.Document().SelectedText())

	key(s, backend.KeyCtrlF)
	prompt, ok := s.dialog.(*promptDialog)
	require.True(t, ok)
	assert.Equal(t, "two", prompt.Value(), "last query is remembered")
	key(s, backend.KeyEscape)
	assert.Nil(t, s.dialog)

	key(s, backend.KeyCtrlF)
	for range 3 {
		key(s, backend.KeyBackspace)
	}
	typeText(s, "zzz")
	key(s, backend.KeyEnter)
	msg, typ := message(s)
	assert.Contains(t, msg, "text not found")
	assert.Equal(t, statusline.MessageInfo, typ)
}

func TestShellReplaceDialog(t *testing.T) {
	s, _ := newTestShell(t, 60, 12)
	typeText(s, "cat cat dog")

	key(s, backend.KeyCtrlR)
	typeText(s, "cat")
	key(s, backend.KeyEnter)
	require.NotNil(t, s.dialog, "second prompt asks for the replacement")
	typeText(s, "cow")
	key(s, backend.KeyEnter)

	assert.Nil(t, s.dialog)
	assert.Equal(t, "cow cow dog", s.app.Document().Content())
	msg, _ := message(s)
	assert.Equal(t, "Replaced 2 occurrence(s)", msg)
}

func TestShellTimestampAndWrap(t *testing.T) {
	s, _ := newTestShell(t, 60, 12)
	key(s, backend.KeyCtrlD)
	_, err := time.Parse(config.DefaultTimestampFormat, s.app.Document().Content())
	assert.NoError(t, err)

	key(s, backend.KeyCtrlW)
	assert.True(t, s.app.WordWrap())
	msg, _ := message(s)
	assert.Equal(t, "Word wrap on", msg)
}

func TestShellModules(t *testing.T) {
	s, _ := newTestShell(t, 80, 16)
	path := filepath.Join(t.TempDir(), "shout.lua")
	require.NoError(t, os.WriteFile(path, []byte(shoutScript), 0o644))

	key(s, backend.KeyCtrlE)
	msg, typ := message(s)
	assert.Contains(t, msg, "no modules loaded")
	assert.Equal(t, statusline.MessageError, typ)

	typeText(s, "quiet words")

	key(s, backend.KeyCtrlL)
	typeText(s, path)
	key(s, backend.KeyEnter)
	msg, _ = message(s)
	assert.Equal(t, "Loaded module: Shout", msg)

	key(s, backend.KeyCtrlE)
	assert.Equal(t, "QUIET WORDS", s.app.Document().Content())
	msg, _ = message(s)
	assert.Equal(t, "Applied Shout", msg)

	key(s, backend.KeyCtrlZ)
	assert.Equal(t, "quiet words", s.app.Document().Content())

	key(s, backend.KeyCtrlK)
	list, ok := s.dialog.(*listDialog)
	require.True(t, ok)
	assert.Equal(t, []string{"Shout - Upper-cases the text."}, list.items)
	key(s, backend.KeyEnter)
	assert.Equal(t, "QUIET WORDS", s.app.Document().Content())
}

func TestShellLoadModuleFailure(t *testing.T) {
	s, be := newTestShell(t, 80, 16)
	key(s, backend.KeyCtrlL)
	typeText(s, filepath.Join(t.TempDir(), "missing.lua"))
	key(s, backend.KeyEnter)

	msg, typ := message(s)
	assert.True(t, strings.HasPrefix(msg, "Error: "), msg)
	assert.Equal(t, statusline.MessageError, typ)
	assert.Equal(t, 1, be.Beeps())
	assert.Empty(t, s.app.ModuleNames())
}

func TestShellMenu(t *testing.T) {
	s, be := newTestShell(t, 60, 16)

	key(s, backend.KeyF10)
	require.True(t, s.menu.open)
	s.Draw()
	assert.Contains(t, be.Row(2), "New")
	assert.Contains(t, be.Row(2), "Ctrl-N")
	_, _, visible := be.CursorPosition()
	assert.False(t, visible)

	// Format > Word Wrap
	key(s, backend.KeyRight)
	key(s, backend.KeyRight)
	key(s, backend.KeyEnter)
	assert.False(t, s.menu.open)
	assert.True(t, s.app.WordWrap())

	// Letters jump to a menu; Esc closes.
	key(s, backend.KeyF10)
	typeText(s, "m")
	assert.Equal(t, 4, s.menu.cur)
	key(s, backend.KeyEscape)
	assert.False(t, s.menu.open)

	// Wrapping around the item list.
	key(s, backend.KeyF10)
	key(s, backend.KeyUp)
	assert.Equal(t, len(s.menu.menus[0].items)-1, s.menu.item)
}

func TestShellHelp(t *testing.T) {
	s, _ := newTestShell(t, 60, 20)
	key(s, backend.KeyF1)
	list, ok := s.dialog.(*listDialog)
	require.True(t, ok)
	assert.Contains(t, list.items, "Ctrl-K   Manage Modules...")
	key(s, backend.KeyEnter)
	assert.Nil(t, s.dialog)
}

func TestShellQuitConfirmsUnsavedChanges(t *testing.T) {
	s, _ := newTestShell(t, 60, 12)
	key(s, backend.KeyCtrlQ)
	assert.True(t, s.Quitting(), "clean documents quit at once")

	s, _ = newTestShell(t, 60, 12)
	typeText(s, "x")
	key(s, backend.KeyCtrlQ)
	require.IsType(t, &confirmDialog{}, s.dialog)
	typeText(s, "n")
	assert.False(t, s.Quitting())

	key(s, backend.KeyCtrlQ)
	typeText(s, "y")
	assert.True(t, s.Quitting())
}

func TestShellSaveAs(t *testing.T) {
	s, _ := newTestShell(t, 80, 12)
	typeText(s, "saved")
	path := filepath.Join(t.TempDir(), "out.txt")

	key(s, backend.KeyCtrlS)
	require.NotNil(t, s.dialog, "scratch documents ask for a path")
	typeText(s, path)
	key(s, backend.KeyEnter)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "saved", string(data))
	msg, _ := message(s)
	assert.Equal(t, "Saved out.txt", msg)
}

func TestShellWordWrapRendering(t *testing.T) {
	s, be := newTestShell(t, 10, 8)
	typeText(s, "abcdefghijklmno")

	s.Draw()
	assert.Equal(t, "ghijklmno", strings.TrimRight(be.Row(1), " "), "scrolled horizontally to the cursor")

	key(s, backend.KeyCtrlW)
	s.Draw()
	assert.Equal(t, "abcdefghij", be.Row(1))
	assert.Equal(t, "klmno", strings.TrimRight(be.Row(2), " "))
	x, y, _ := be.CursorPosition()
	assert.Equal(t, 5, x)
	assert.Equal(t, 2, y)
}

func TestShellSelectionHighlight(t *testing.T) {
	s, be := newTestShell(t, 20, 6)
	typeText(s, "abc")
	key(s, backend.KeyHome)
	shiftKey(s, backend.KeyRight)
	s.Draw()

	assert.Equal(t, s.styles.selection, be.GetCell(0, 1).Style)
	assert.Equal(t, s.styles.text, be.GetCell(1, 1).Style)
}

func TestShellReloadInterrupt(t *testing.T) {
	s, _ := newTestShell(t, 60, 12)
	s.HandleEvent(backend.Event{
		Type: backend.EventInterrupt,
		Data: app.ReloadEvent{Path: "/x/shout.lua", Descriptor: processor.Descriptor{Name: "Shout"}},
	})
	msg, _ := message(s)
	assert.Equal(t, "Reloaded module: Shout", msg)
}

func TestShellRunStopsWithContext(t *testing.T) {
	a, err := app.New(app.Options{})
	require.NoError(t, err)
	defer a.Shutdown()

	be := backend.NewNullBackend(40, 10)
	s := New(a, be)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	be.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'z'})
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, "z", a.Document().Content())
}

func TestLayout(t *testing.T) {
	s, _ := newTestShell(t, 20, 6)
	buf := buffer.NewBufferFromString("abcdef\n\tx\n界界界")

	tests := []struct {
		name  string
		width int
		wrap  bool
		want  []visualRow
	}{
		{
			name:  "no wrap",
			width: 4,
			want: []visualRow{
				{line: 0, start: 0, end: 6},
				{line: 1, start: 0, end: 2},
				{line: 2, start: 0, end: 9},
			},
		},
		{
			name:  "wrap",
			width: 4,
			wrap:  true,
			want: []visualRow{
				{line: 0, start: 0, end: 4},
				{line: 0, start: 4, end: 6},
				{line: 1, start: 0, end: 1},
				{line: 1, start: 1, end: 2},
				{line: 2, start: 0, end: 6},
				{line: 2, start: 6, end: 9},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.layout(buf, tt.width, tt.wrap)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(visualRow{})); diff != "" {
				t.Errorf("layout mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
