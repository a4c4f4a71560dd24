package ui

import (
	"slices"

	"github.com/dshills/quill/internal/renderer/backend"
	"github.com/dshills/quill/internal/renderer/core"
)

// dialog is a modal window. handleKey returns true when the dialog is done.
// A dialog may replace itself by setting Shell.dialog before returning.
type dialog interface {
	handleKey(s *Shell, ev backend.Event) bool
	draw(s *Shell, width, height int)
}

// dialogRect centers a box of the given inner height.
func dialogRect(width, height, inner int) core.ScreenRect {
	w := min(max(width-4, 20), 64)
	h := inner + 2
	return core.RectFromSize(max((height-h)/2, 1), max((width-w)/2, 0), h, w)
}

// promptDialog reads one line of text.
type promptDialog struct {
	title    string
	label    string
	input    []rune
	cursor   int
	onSubmit func(s *Shell, value string)
}

func newPrompt(title, label, initial string, onSubmit func(s *Shell, value string)) *promptDialog {
	input := []rune(initial)
	return &promptDialog{
		title:    title,
		label:    label,
		input:    input,
		cursor:   len(input),
		onSubmit: onSubmit,
	}
}

// Value returns the current input.
func (d *promptDialog) Value() string {
	return string(d.input)
}

func (d *promptDialog) handleKey(s *Shell, ev backend.Event) bool {
	switch ev.Key {
	case backend.KeyEscape:
		return true
	case backend.KeyEnter:
		d.onSubmit(s, string(d.input))
		return true
	case backend.KeyBackspace:
		if d.cursor > 0 {
			d.input = slices.Delete(d.input, d.cursor-1, d.cursor)
			d.cursor--
		}
	case backend.KeyDelete:
		if d.cursor < len(d.input) {
			d.input = slices.Delete(d.input, d.cursor, d.cursor+1)
		}
	case backend.KeyLeft:
		d.cursor = max(d.cursor-1, 0)
	case backend.KeyRight:
		d.cursor = min(d.cursor+1, len(d.input))
	case backend.KeyHome:
		d.cursor = 0
	case backend.KeyEnd:
		d.cursor = len(d.input)
	case backend.KeyCtrlV:
		d.insert([]rune(s.app.Clipboard()))
	case backend.KeyRune:
		d.insert([]rune{ev.Rune})
	}
	return false
}

func (d *promptDialog) insert(rs []rune) {
	for _, r := range rs {
		if r == '\n' {
			continue
		}
		d.input = slices.Insert(d.input, d.cursor, r)
		d.cursor++
	}
}

func (d *promptDialog) draw(s *Shell, width, height int) {
	rect := dialogRect(width, height, 3)
	drawBox(s.be, rect, d.title, s.styles.menu)

	backend.DrawText(s.be, rect.Left+2, rect.Top+1, rect.Right-2, d.label, s.styles.menu)
	field := core.RectFromSize(rect.Top+2, rect.Left+2, 1, rect.Width()-4)
	s.be.Fill(field, core.Cell{Rune: ' ', Width: 1, Style: s.styles.text})

	// Scroll the field so the cursor stays visible.
	start := 0
	for core.StringWidth(string(d.input[start:d.cursor])) >= field.Width() {
		start++
	}
	backend.DrawText(s.be, field.Left, field.Top, field.Right, string(d.input[start:]), s.styles.text)
	s.be.ShowCursor(field.Left+core.StringWidth(string(d.input[start:d.cursor])), field.Top)

	backend.DrawText(s.be, rect.Left+2, rect.Top+3, rect.Right-2, "Enter: OK  Esc: Cancel", s.styles.menu)
}

// confirmDialog asks a yes/no question.
type confirmDialog struct {
	title    string
	question string
	onYes    func(s *Shell)
}

func (d *confirmDialog) handleKey(s *Shell, ev backend.Event) bool {
	switch {
	case ev.Key == backend.KeyEscape:
		return true
	case ev.Key == backend.KeyRune && (ev.Rune == 'y' || ev.Rune == 'Y'):
		d.onYes(s)
		return true
	case ev.Key == backend.KeyRune && (ev.Rune == 'n' || ev.Rune == 'N'):
		return true
	}
	return false
}

func (d *confirmDialog) draw(s *Shell, width, height int) {
	rect := dialogRect(width, height, 2)
	drawBox(s.be, rect, d.title, s.styles.menu)
	backend.DrawText(s.be, rect.Left+2, rect.Top+1, rect.Right-2, d.question, s.styles.menu)
	backend.DrawText(s.be, rect.Left+2, rect.Top+2, rect.Right-2, "y: Yes  n: No", s.styles.menu)
	s.be.HideCursor()
}

// listDialog shows a scrollable list. With onSelect nil it is read-only.
type listDialog struct {
	title    string
	items    []string
	sel      int
	top      int
	onSelect func(s *Shell, i int)
}

// listRows is the number of visible list rows.
const listRows = 10

func (d *listDialog) handleKey(s *Shell, ev backend.Event) bool {
	n := len(d.items)
	switch ev.Key {
	case backend.KeyEscape:
		return true
	case backend.KeyEnter:
		if d.onSelect != nil && n > 0 {
			d.onSelect(s, d.sel)
		}
		return true
	case backend.KeyUp:
		d.sel = max(d.sel-1, 0)
	case backend.KeyDown:
		d.sel = min(d.sel+1, n-1)
	case backend.KeyPageUp:
		d.sel = max(d.sel-listRows, 0)
	case backend.KeyPageDown:
		d.sel = min(d.sel+listRows, n-1)
	case backend.KeyHome:
		d.sel = 0
	case backend.KeyEnd:
		d.sel = n - 1
	}
	d.sel = max(d.sel, 0)
	return false
}

func (d *listDialog) draw(s *Shell, width, height int) {
	rows := min(len(d.items), listRows, max(height-6, 1))
	rows = max(rows, 1)
	rect := dialogRect(width, height, rows+1)
	drawBox(s.be, rect, d.title, s.styles.menu)

	if d.sel < d.top {
		d.top = d.sel
	}
	if d.sel >= d.top+rows {
		d.top = d.sel - rows + 1
	}

	if len(d.items) == 0 {
		backend.DrawText(s.be, rect.Left+2, rect.Top+1, rect.Right-2, "(empty)", s.styles.menu)
	}
	for i := 0; i < rows && d.top+i < len(d.items); i++ {
		idx := d.top + i
		style := s.styles.menu
		if idx == d.sel && d.onSelect != nil {
			style = s.styles.menuHighlight
		}
		y := rect.Top + 1 + i
		s.be.Fill(core.RectFromSize(y, rect.Left+1, 1, rect.Width()-2), core.Cell{Rune: ' ', Width: 1, Style: style})
		backend.DrawText(s.be, rect.Left+2, y, rect.Right-2, core.Truncate(d.items[idx], rect.Width()-4), style)
	}

	hint := "Esc: Close"
	if d.onSelect != nil {
		hint = "Enter: Apply  Esc: Cancel"
	}
	backend.DrawText(s.be, rect.Left+2, rect.Bottom-2, rect.Right-2, hint, s.styles.menu)
	s.be.HideCursor()
}
