package ui

import (
	"unicode"
	"unicode/utf8"

	"github.com/dshills/quill/internal/renderer/backend"
	"github.com/dshills/quill/internal/renderer/core"
)

// menu is one drop-down of the menu bar.
type menu struct {
	title string
	items []action
}

// menuBar is the top row. While open, it owns the keyboard.
type menuBar struct {
	menus []menu
	open  bool
	cur   int // open menu
	item  int // highlighted item
}

func newMenuBar(menus []menu) *menuBar {
	return &menuBar{menus: menus}
}

// show opens menu i with its first item highlighted.
func (m *menuBar) show(i int) {
	m.open = true
	m.cur = i
	m.item = 0
}

func (m *menuBar) close() {
	m.open = false
}

// titleX returns the column of each title.
func (m *menuBar) titleX() []int {
	xs := make([]int, len(m.menus))
	x := 1
	for i, mn := range m.menus {
		xs[i] = x
		x += core.StringWidth(mn.title) + 3
	}
	return xs
}

func (m *menuBar) handleKey(s *Shell, ev backend.Event) {
	n := len(m.menus)
	items := m.menus[m.cur].items

	switch ev.Key {
	case backend.KeyEscape, backend.KeyF10:
		m.close()
	case backend.KeyLeft:
		m.show((m.cur + n - 1) % n)
	case backend.KeyRight:
		m.show((m.cur + 1) % n)
	case backend.KeyUp:
		m.item = (m.item + len(items) - 1) % len(items)
	case backend.KeyDown:
		m.item = (m.item + 1) % len(items)
	case backend.KeyEnter:
		act := items[m.item]
		m.close()
		s.status.ClearMessage()
		act.run(s)
	case backend.KeyRune:
		// The first letter of a title opens that menu.
		for i, mn := range m.menus {
			if first, _ := utf8.DecodeRuneInString(mn.title); unicode.ToLower(first) == unicode.ToLower(ev.Rune) {
				m.show(i)
				return
			}
		}
	}
}

// draw renders the bar and, when open, the drop-down.
func (m *menuBar) draw(s *Shell, width int) {
	st := s.styles
	s.be.Fill(core.RectFromSize(0, 0, 1, width), core.Cell{Rune: ' ', Width: 1, Style: st.menu})

	xs := m.titleX()
	for i, mn := range m.menus {
		style := st.menu
		if m.open && i == m.cur {
			style = st.menuHighlight
		}
		backend.DrawText(s.be, xs[i]-1, 0, width, " "+mn.title+" ", style)
	}

	hint := "F10: Menu  F1: Help "
	if hx := width - core.StringWidth(hint); len(xs) > 0 && hx > xs[len(xs)-1]+12 {
		backend.DrawText(s.be, hx, 0, width, hint, st.menu)
	}

	if !m.open {
		return
	}

	items := m.menus[m.cur].items
	labelW, keyW := 0, 0
	for _, it := range items {
		labelW = max(labelW, core.StringWidth(it.label))
		keyW = max(keyW, core.StringWidth(it.shortcut))
	}
	boxW := labelW + keyW + 6
	rect := core.RectFromSize(1, max(xs[m.cur]-1, 0), len(items)+2, boxW)
	drawBox(s.be, rect, "", st.menu)

	for i, it := range items {
		style := st.menu
		if i == m.item {
			style = st.menuHighlight
		}
		y := rect.Top + 1 + i
		s.be.Fill(core.RectFromSize(y, rect.Left+1, 1, boxW-2), core.Cell{Rune: ' ', Width: 1, Style: style})
		label := it.label
		if it.key == backend.KeyCtrlW && s.app.WordWrap() {
			label += " *"
		}
		backend.DrawText(s.be, rect.Left+2, y, rect.Right-1, label, style)
		backend.DrawText(s.be, rect.Right-2-core.StringWidth(it.shortcut), y, rect.Right-1, it.shortcut, style)
	}
}

// drawBox fills rect and draws a single-line border with an optional title.
func drawBox(b backend.Backend, rect core.ScreenRect, title string, style core.Style) {
	if rect.Width() < 2 || rect.Height() < 2 {
		return
	}
	b.Fill(rect, core.Cell{Rune: ' ', Width: 1, Style: style})

	cell := func(r rune) core.Cell { return core.Cell{Rune: r, Width: 1, Style: style} }
	for x := rect.Left + 1; x < rect.Right-1; x++ {
		b.SetCell(x, rect.Top, cell('─'))
		b.SetCell(x, rect.Bottom-1, cell('─'))
	}
	for y := rect.Top + 1; y < rect.Bottom-1; y++ {
		b.SetCell(rect.Left, y, cell('│'))
		b.SetCell(rect.Right-1, y, cell('│'))
	}
	b.SetCell(rect.Left, rect.Top, cell('┌'))
	b.SetCell(rect.Right-1, rect.Top, cell('┐'))
	b.SetCell(rect.Left, rect.Bottom-1, cell('└'))
	b.SetCell(rect.Right-1, rect.Bottom-1, cell('┘'))

	if title != "" {
		backend.DrawText(b, rect.Left+2, rect.Top, rect.Right-2, " "+title+" ", style)
	}
}
