package history

import (
	"strings"
	"time"

	"github.com/dshills/quill/internal/engine/buffer"
)

// Operation records a single replacement in the buffer.
type Operation struct {
	// Start is where the replacement happened.
	Start buffer.ByteOffset

	// OldText is the text that was replaced (empty for insertions).
	OldText string

	// NewText is the replacement (empty for deletions).
	NewText string

	// CursorBefore and CursorAfter are restored on undo and redo.
	CursorBefore buffer.ByteOffset
	CursorAfter  buffer.ByteOffset

	// Timestamp is when the operation was recorded.
	Timestamp time.Time
}

// NewOperation creates an operation. The cursor defaults to the end of the
// new text after the edit and to the end of the old text before it.
func NewOperation(start buffer.ByteOffset, oldText, newText string) Operation {
	return Operation{
		Start:        start,
		OldText:      oldText,
		NewText:      newText,
		CursorBefore: start + len(oldText),
		CursorAfter:  start + len(newText),
		Timestamp:    time.Now(),
	}
}

// Invert returns the operation that undoes o.
func (o Operation) Invert() Operation {
	return Operation{
		Start:        o.Start,
		OldText:      o.NewText,
		NewText:      o.OldText,
		CursorBefore: o.CursorAfter,
		CursorAfter:  o.CursorBefore,
		Timestamp:    o.Timestamp,
	}
}

// Apply performs the operation on buf.
func (o Operation) Apply(buf *buffer.Buffer) error {
	_, err := buf.Replace(o.Start, o.Start+len(o.OldText), o.NewText)
	return err
}

// IsInsert reports whether o only inserts text.
func (o Operation) IsInsert() bool {
	return o.OldText == "" && o.NewText != ""
}

// canMerge reports whether next continues the typing recorded by o.
func (o Operation) canMerge(next Operation, window time.Duration) bool {
	if !o.IsInsert() || !next.IsInsert() {
		return false
	}
	if next.Start != o.Start+len(o.NewText) {
		return false
	}
	if strings.ContainsRune(next.NewText, '\n') || strings.ContainsRune(o.NewText, '\n') {
		return false
	}
	return next.Timestamp.Sub(o.Timestamp) <= window
}

// merge appends next to o.
func (o Operation) merge(next Operation) Operation {
	o.NewText += next.NewText
	o.CursorAfter = next.CursorAfter
	o.Timestamp = next.Timestamp
	return o
}
