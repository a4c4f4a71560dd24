package app

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dshills/quill/internal/engine/buffer"
	"github.com/dshills/quill/internal/engine/history"
)

// noAnchor marks the absence of a selection.
const noAnchor = -1

// Document represents an open file with its associated editor state.
//
// A Document is owned by one goroutine (the Shell's event loop); only the
// modified flag may be read from elsewhere.
type Document struct {
	// Path is the absolute file path (empty for scratch buffers).
	Path string

	// Name is the display name (filename or "Untitled").
	Name string

	buf  *buffer.Buffer
	hist *history.History

	cursor buffer.ByteOffset
	anchor buffer.ByteOffset

	// goal is the rune column kept across vertical moves.
	goal int

	// Modified indicates unsaved changes.
	modified atomic.Bool
}

// NewDocument creates a new document from a file path.
func NewDocument(path string, content []byte, historyLimit int) *Document {
	name := filepath.Base(path)
	if path == "" {
		name = "Untitled"
	}

	return &Document{
		Path:   path,
		Name:   name,
		buf:    buffer.NewBufferFromString(string(content)),
		hist:   history.NewHistory(historyLimit),
		anchor: noAnchor,
	}
}

// NewScratchDocument creates a new scratch (unsaved) document.
func NewScratchDocument(historyLimit int) *Document {
	return NewDocument("", nil, historyLimit)
}

// IsModified returns true if the document has unsaved changes.
func (d *Document) IsModified() bool {
	return d.modified.Load()
}

// SetModified sets the modified flag.
func (d *Document) SetModified(modified bool) {
	d.modified.Store(modified)
}

// IsScratch returns true if this is a scratch buffer (no file path).
func (d *Document) IsScratch() bool {
	return d.Path == ""
}

// Content returns the full document content.
func (d *Document) Content() string {
	return d.buf.Text()
}

// Buffer returns the underlying text buffer.
func (d *Document) Buffer() *buffer.Buffer {
	return d.buf
}

// History returns the undo history.
func (d *Document) History() *history.History {
	return d.hist
}

// Save writes the document to path and adopts it as the document's path.
func (d *Document) Save(path string) error {
	if err := os.WriteFile(path, []byte(d.buf.Text()), 0o644); err != nil {
		return &FileError{Op: "save", Path: path, Err: err}
	}
	d.Path = path
	d.Name = filepath.Base(path)
	d.SetModified(false)
	d.hist.Seal()
	return nil
}

// Cursor returns the cursor's byte offset.
func (d *Document) Cursor() buffer.ByteOffset {
	return d.cursor
}

// CursorPoint returns the 1-based line and column of the cursor, with the
// column counted in runes.
func (d *Document) CursorPoint() (line, col int) {
	p := d.buf.OffsetToPoint(d.cursor)
	return p.Line + 1, d.buf.RuneColumn(d.cursor) + 1
}

// SetCursor moves the cursor, clamped to the document, and clears the
// selection.
func (d *Document) SetCursor(off buffer.ByteOffset) {
	d.anchor = noAnchor
	d.moveTo(off)
}

func (d *Document) moveTo(off buffer.ByteOffset) {
	d.cursor = min(max(off, 0), d.buf.Len())
	d.goal = d.buf.RuneColumn(d.cursor)
}

// HasSelection reports whether a non-empty range is selected.
func (d *Document) HasSelection() bool {
	return d.anchor != noAnchor && d.anchor != d.cursor
}

// Selection returns the selected range ordered start <= end.
// Without a selection both ends equal the cursor.
func (d *Document) Selection() (start, end buffer.ByteOffset) {
	if !d.HasSelection() {
		return d.cursor, d.cursor
	}
	return min(d.anchor, d.cursor), max(d.anchor, d.cursor)
}

// Select selects [start, end) and leaves the cursor at end.
func (d *Document) Select(start, end buffer.ByteOffset) {
	n := d.buf.Len()
	d.anchor = min(max(start, 0), n)
	d.moveTo(end)
}

// SelectAll selects the whole document.
func (d *Document) SelectAll() {
	d.Select(0, d.buf.Len())
}

// ClearSelection drops the selection, keeping the cursor.
func (d *Document) ClearSelection() {
	d.anchor = noAnchor
}

// SelectedText returns the selected text or "".
func (d *Document) SelectedText() string {
	start, end := d.Selection()
	s, err := d.buf.TextRange(start, end)
	if err != nil {
		return ""
	}
	return s
}

// replace edits the buffer, records the edit and places the cursor after
// the new text.
func (d *Document) replace(start, end buffer.ByteOffset, text string) error {
	old, err := d.buf.TextRange(start, end)
	if err != nil {
		return err
	}
	text = buffer.NormalizeLineEndings(text)
	if old == text {
		return nil
	}

	before := d.cursor
	newEnd, err := d.buf.Replace(start, end, text)
	if err != nil {
		return err
	}

	op := history.NewOperation(start, old, text)
	op.CursorBefore = before
	op.CursorAfter = newEnd
	d.hist.Push(op)

	d.anchor = noAnchor
	d.moveTo(newEnd)
	d.SetModified(true)
	return nil
}

// InsertText replaces the selection, or inserts at the cursor.
func (d *Document) InsertText(text string) error {
	start, end := d.Selection()
	return d.replace(start, end, text)
}

// DeleteSelection removes the selected text. It reports whether anything
// was selected.
func (d *Document) DeleteSelection() (bool, error) {
	if !d.HasSelection() {
		return false, nil
	}
	start, end := d.Selection()
	return true, d.replace(start, end, "")
}

// Backspace deletes the selection or the rune before the cursor.
func (d *Document) Backspace() error {
	if ok, err := d.DeleteSelection(); ok || err != nil {
		return err
	}
	if d.cursor == 0 {
		return nil
	}
	return d.replace(d.buf.PrevRune(d.cursor), d.cursor, "")
}

// DeleteForward deletes the selection or the rune after the cursor.
func (d *Document) DeleteForward() error {
	if ok, err := d.DeleteSelection(); ok || err != nil {
		return err
	}
	if d.cursor >= d.buf.Len() {
		return nil
	}
	return d.replace(d.cursor, d.buf.NextRune(d.cursor), "")
}

// SetText replaces the whole document as one undo step. Processor output
// is written back this way.
func (d *Document) SetText(text string) error {
	cursor := d.cursor
	d.hist.Seal()
	if err := d.replace(0, d.buf.Len(), text); err != nil {
		return err
	}
	d.hist.Seal()
	d.moveTo(min(cursor, d.buf.Len()))
	return nil
}

// ReplaceAll replaces every occurrence of find with with as one undo step
// and returns the number of replacements.
func (d *Document) ReplaceAll(find, with string) (int, error) {
	if find == "" {
		return 0, ErrEmptyQuery
	}
	text := d.buf.Text()
	n := strings.Count(text, find)
	if n == 0 {
		return 0, nil
	}
	return n, d.SetText(strings.ReplaceAll(text, find, with))
}

// Find selects the first match of query after the cursor, wrapping to the
// start of the document.
func (d *Document) Find(query string) (bool, error) {
	if query == "" {
		return false, ErrEmptyQuery
	}
	_, from := d.Selection()
	start, end, ok := d.buf.Find(query, from)
	if !ok {
		return false, nil
	}
	d.Select(start, end)
	return true, nil
}

// Undo reverts the last edit.
func (d *Document) Undo() error {
	op, err := d.hist.Undo(d.buf)
	if err != nil {
		return err
	}
	d.anchor = noAnchor
	d.moveTo(op.CursorBefore)
	d.SetModified(true)
	return nil
}

// Redo re-applies the last undone edit.
func (d *Document) Redo() error {
	op, err := d.hist.Redo(d.buf)
	if err != nil {
		return err
	}
	d.anchor = noAnchor
	d.moveTo(op.CursorAfter)
	d.SetModified(true)
	return nil
}

// Cursor motion. With extend set the selection grows from the current
// anchor (or the cursor if nothing is selected).

func (d *Document) motion(extend bool, to buffer.ByteOffset) {
	if extend {
		if d.anchor == noAnchor {
			d.anchor = d.cursor
		}
	} else {
		d.anchor = noAnchor
	}
	d.moveTo(to)
}

// MoveLeft moves one rune left. Without extend a selection collapses to
// its start.
func (d *Document) MoveLeft(extend bool) {
	if !extend && d.HasSelection() {
		start, _ := d.Selection()
		d.SetCursor(start)
		return
	}
	d.motion(extend, d.buf.PrevRune(d.cursor))
}

// MoveRight moves one rune right. Without extend a selection collapses to
// its end.
func (d *Document) MoveRight(extend bool) {
	if !extend && d.HasSelection() {
		_, end := d.Selection()
		d.SetCursor(end)
		return
	}
	d.motion(extend, d.buf.NextRune(d.cursor))
}

// MoveUp moves to the previous line, keeping the goal column.
func (d *Document) MoveUp(extend bool) {
	line := d.buf.OffsetToPoint(d.cursor).Line
	if line == 0 {
		d.motion(extend, 0)
		return
	}
	d.vertical(extend, line-1)
}

// MoveDown moves to the next line, keeping the goal column.
func (d *Document) MoveDown(extend bool) {
	line := d.buf.OffsetToPoint(d.cursor).Line
	if line >= d.buf.LineCount()-1 {
		d.motion(extend, d.buf.Len())
		return
	}
	d.vertical(extend, line+1)
}

func (d *Document) vertical(extend bool, line int) {
	goal := d.goal
	d.motion(extend, d.buf.LineStart(line)+runeOffset(d.buf.Line(line), goal))
	d.goal = goal
}

// MoveHome moves to the start of the line.
func (d *Document) MoveHome(extend bool) {
	line := d.buf.OffsetToPoint(d.cursor).Line
	d.motion(extend, d.buf.LineStart(line))
}

// MoveEnd moves to the end of the line.
func (d *Document) MoveEnd(extend bool) {
	line := d.buf.OffsetToPoint(d.cursor).Line
	d.motion(extend, d.buf.LineEnd(line))
}

// MoveDocStart moves to the start of the document.
func (d *Document) MoveDocStart(extend bool) {
	d.motion(extend, 0)
}

// MoveDocEnd moves to the end of the document.
func (d *Document) MoveDocEnd(extend bool) {
	d.motion(extend, d.buf.Len())
}

// runeOffset returns the byte offset of rune column col in line, clamped
// to the line's length.
func runeOffset(line string, col int) int {
	off := 0
	for i := 0; i < col && off < len(line); i++ {
		_, size := utf8.DecodeRuneInString(line[off:])
		off += size
	}
	return off
}
