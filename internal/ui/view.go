package ui

import (
	"unicode/utf8"

	"github.com/dshills/quill/internal/engine/buffer"
	"github.com/dshills/quill/internal/renderer/core"
)

// visualRow is one screen row of a document line: the byte range
// [start, end) of line.
type visualRow struct {
	line       int
	start, end int
}

// cellWidth returns the cells r occupies when drawn at column x.
func (s *Shell) cellWidth(r rune, x int) int {
	if r == '\t' {
		return s.tabWidth - x%s.tabWidth
	}
	return core.RuneWidth(r)
}

// layout splits the document into visual rows. Without wrap each line is
// one row; with wrap lines break at width cells.
func (s *Shell) layout(buf *buffer.Buffer, width int, wrap bool) []visualRow {
	n := buf.LineCount()
	rows := make([]visualRow, 0, n)
	for i := range n {
		text := buf.Line(i)
		if !wrap || width <= 0 {
			rows = append(rows, visualRow{line: i, start: 0, end: len(text)})
			continue
		}
		start, x := 0, 0
		for off, r := range text {
			w := s.cellWidth(r, x)
			if x+w > width && off > start {
				rows = append(rows, visualRow{line: i, start: start, end: off})
				start, x = off, 0
				w = s.cellWidth(r, x)
			}
			x += w
		}
		rows = append(rows, visualRow{line: i, start: start, end: len(text)})
	}
	return rows
}

// columnX returns the cell column of byte offset col within row.
func (s *Shell) columnX(text string, row visualRow, col int) int {
	x := 0
	for _, r := range text[row.start:min(col, row.end)] {
		x += s.cellWidth(r, x)
	}
	return x
}

// locate finds the visual row holding the cursor and its cell column.
func (s *Shell) locate(buf *buffer.Buffer, rows []visualRow, cursor buffer.ByteOffset) (int, int) {
	p := buf.OffsetToPoint(cursor)
	idx := 0
	for i, r := range rows {
		if r.line > p.Line {
			break
		}
		if r.line == p.Line && r.start <= p.Column {
			idx = i
		}
	}
	return idx, s.columnX(buf.Line(p.Line), rows[idx], p.Column)
}

// Draw renders the whole Shell.
func (s *Shell) Draw() {
	width, height := s.be.Size()
	if width <= 0 || height <= 0 {
		return
	}
	s.be.Clear()

	doc := s.app.Document()
	buf := doc.Buffer()
	wrap := s.app.WordWrap()
	textH := s.textHeight()

	rows := s.layout(buf, width, wrap)
	cur, curX := s.locate(buf, rows, doc.Cursor())

	// Keep the cursor on screen.
	if cur < s.top {
		s.top = cur
	}
	if cur >= s.top+textH {
		s.top = cur - textH + 1
	}
	if wrap {
		s.left = 0
	} else {
		if curX < s.left {
			s.left = curX
		}
		if curX >= s.left+width {
			s.left = curX - width + 1
		}
	}

	selStart, selEnd := doc.Selection()
	for i := 0; i < textH && s.top+i < len(rows); i++ {
		s.drawRow(buf, rows, s.top+i, 1+i, width, selStart, selEnd)
	}

	s.menu.draw(s, width)

	line, col := doc.CursorPoint()
	s.status.SetPosition(line, col)
	s.status.SetFilename(doc.Name, doc.IsModified())
	s.status.SetWindowSize(width, height)
	s.status.Render(s.be, height-1, width)

	switch {
	case s.dialog != nil:
		s.dialog.draw(s, width, height)
	case s.menu.open:
		s.be.HideCursor()
	default:
		s.be.ShowCursor(curX-s.left, 1+cur-s.top)
	}
	s.be.Show()
}

// drawRow draws visual row idx at screen row y, highlighting the
// selection [selStart, selEnd).
func (s *Shell) drawRow(buf *buffer.Buffer, rows []visualRow, idx, y, width int, selStart, selEnd buffer.ByteOffset) {
	row := rows[idx]
	text := buf.Line(row.line)
	base := buf.LineStart(row.line)

	put := func(x int, r rune, w int, selected bool) {
		style := s.styles.text
		if selected {
			style = s.styles.selection
		}
		sx := x - s.left
		if sx < 0 || sx+w > width {
			return
		}
		s.be.SetCell(sx, y, core.Cell{Rune: r, Width: w, Style: style})
		if w == 2 {
			s.be.SetCell(sx+1, y, core.Cell{Width: 0, Style: style})
		}
	}

	x := 0
	for off := row.start; off < row.end; {
		r, size := utf8.DecodeRuneInString(text[off:])
		abs := base + off
		selected := abs >= selStart && abs < selEnd
		w := s.cellWidth(r, x)
		switch {
		case r == '\t':
			for i := range w {
				put(x+i, ' ', 1, selected)
			}
		case w > 0:
			put(x, r, w, selected)
		}
		x += w
		off += size
	}

	// A selected line break shows as one highlighted cell.
	lastRowOfLine := idx+1 >= len(rows) || rows[idx+1].line != row.line
	if nl := base + len(text); lastRowOfLine && nl >= selStart && nl < selEnd && nl < buf.Len() {
		put(x, ' ', 1, true)
	}
}
