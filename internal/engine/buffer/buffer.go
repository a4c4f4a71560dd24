package buffer

import (
	"errors"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// Buffer is a mutable text buffer. Line endings are normalized to LF.
type Buffer struct {
	mu       sync.RWMutex
	text     string
	lines    []int // byte offset where each line starts
	revision uint64
}

// NewBuffer creates a new empty buffer.
func NewBuffer() *Buffer {
	return NewBufferFromString("")
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string) *Buffer {
	b := &Buffer{}
	b.setLocked(NormalizeLineEndings(s))
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader) (*Buffer, error) {
	// Read everything first; CRLF pairs may straddle read boundaries.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data)), nil
}

// NormalizeLineEndings converts CRLF and CR line endings to LF.
func NormalizeLineEndings(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func (b *Buffer) setLocked(s string) {
	b.text = s
	b.lines = b.lines[:0]
	b.lines = append(b.lines, 0)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			b.lines = append(b.lines, i+1)
		}
	}
	b.revision++
}

// Read Operations

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// TextRange returns text in the given byte range.
func (b *Buffer) TextRange(start, end ByteOffset) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.checkRangeLocked(start, end); err != nil {
		return "", err
	}
	return b.text[start:end], nil
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text)
}

// Revision increases with every modification.
func (b *Buffer) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// LineCount returns the number of lines. An empty buffer has one line.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Line returns line n without its trailing newline.
func (b *Buffer) Line(n int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n < 0 || n >= len(b.lines) {
		return ""
	}
	start, end := b.lineBoundsLocked(n)
	return b.text[start:end]
}

// LineStart returns the offset of the first byte of line n.
func (b *Buffer) LineStart(n int) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n = max(0, min(n, len(b.lines)-1))
	return b.lines[n]
}

// LineEnd returns the offset just before the newline ending line n.
func (b *Buffer) LineEnd(n int) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n = max(0, min(n, len(b.lines)-1))
	_, end := b.lineBoundsLocked(n)
	return end
}

func (b *Buffer) lineBoundsLocked(n int) (int, int) {
	start := b.lines[n]
	end := len(b.text)
	if n+1 < len(b.lines) {
		end = b.lines[n+1] - 1
	}
	return start, end
}

// OffsetToPoint converts a byte offset to a line/column point. Offsets
// outside the buffer are clamped.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	offset = max(0, min(offset, len(b.text)))

	// Binary search for the last line starting at or before offset.
	lo, hi := 0, len(b.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if b.lines[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Point{Line: lo, Column: offset - b.lines[lo]}
}

// PointToOffset converts a point to a byte offset. The column is clamped to
// the line length and the line to the buffer.
func (b *Buffer) PointToOffset(p Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	line := max(0, min(p.Line, len(b.lines)-1))
	start, end := b.lineBoundsLocked(line)
	return start + max(0, min(p.Column, end-start))
}

// RuneColumn returns the 0-indexed column of offset counted in runes.
func (b *Buffer) RuneColumn(offset ByteOffset) int {
	p := b.OffsetToPoint(offset)

	b.mu.RLock()
	defer b.mu.RUnlock()
	start := b.lines[p.Line]
	return utf8.RuneCountInString(b.text[start : start+p.Column])
}

// PrevRune returns the offset of the rune before offset.
func (b *Buffer) PrevRune(offset ByteOffset) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset <= 0 {
		return 0
	}
	offset = min(offset, len(b.text))
	_, size := utf8.DecodeLastRuneInString(b.text[:offset])
	return offset - size
}

// NextRune returns the offset of the rune after offset.
func (b *Buffer) NextRune(offset ByteOffset) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset >= len(b.text) {
		return len(b.text)
	}
	offset = max(offset, 0)
	_, size := utf8.DecodeRuneInString(b.text[offset:])
	return offset + size
}

// Find returns the range of the first occurrence of query at or after
// from, wrapping around to the start of the buffer.
func (b *Buffer) Find(query string, from ByteOffset) (ByteOffset, ByteOffset, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if query == "" {
		return 0, 0, false
	}
	from = max(0, min(from, len(b.text)))

	if i := strings.Index(b.text[from:], query); i >= 0 {
		return from + i, from + i + len(query), true
	}
	if i := strings.Index(b.text, query); i >= 0 {
		return i, i + len(query), true
	}
	return 0, 0, false
}

// Count returns the number of non-overlapping occurrences of query.
func (b *Buffer) Count(query string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if query == "" {
		return 0
	}
	return strings.Count(b.text, query)
}

// Write Operations

// Insert inserts text at offset and returns the offset after the insertion.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	return b.Replace(offset, offset, text)
}

// Delete removes the text in [start, end).
func (b *Buffer) Delete(start, end ByteOffset) error {
	_, err := b.Replace(start, end, "")
	return err
}

// Replace replaces [start, end) with text and returns the offset after the
// inserted text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkRangeLocked(start, end); err != nil {
		return 0, err
	}

	text = NormalizeLineEndings(text)
	b.setLocked(b.text[:start] + text + b.text[end:])
	return start + len(text), nil
}

// SetText replaces the whole content.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setLocked(NormalizeLineEndings(text))
}

func (b *Buffer) checkRangeLocked(start, end ByteOffset) error {
	if start < 0 || end > len(b.text) {
		return ErrOffsetOutOfRange
	}
	if start > end {
		return ErrRangeInvalid
	}
	return nil
}
