// Package statusline provides the status bar at the bottom of the Shell.
package statusline

import (
	"fmt"

	"github.com/dshills/quill/internal/renderer/backend"
	"github.com/dshills/quill/internal/renderer/core"
)

// MessageType indicates the type of status message.
type MessageType int

const (
	MessageNone MessageType = iota
	MessageInfo
	MessageError
)

// StatusLine renders the cursor position, a message slot and the window
// size on one row.
type StatusLine struct {
	// Display state
	filename string // Current filename
	modified bool   // Buffer has unsaved changes
	line     int    // Current line (1-indexed for display)
	col      int    // Current column (1-indexed for display)

	// Message display
	message     string
	messageType MessageType

	// Terminal size shown on the right.
	winWidth, winHeight int

	style      core.Style
	errorStyle core.Style
}

// New creates a new status line.
func New() *StatusLine {
	return &StatusLine{
		line:       1,
		col:        1,
		style:      core.DefaultStyle().Reverse(),
		errorStyle: core.DefaultStyle().Reverse().WithForeground(core.ColorRed).Bold(),
	}
}

// SetStyle sets the bar's colors.
func (s *StatusLine) SetStyle(style core.Style) {
	s.style = style
	s.errorStyle = style.WithForeground(core.ColorRed).Bold()
}

// SetFilename updates the displayed filename.
func (s *StatusLine) SetFilename(filename string, modified bool) {
	s.filename = filename
	s.modified = modified
}

// SetPosition updates the cursor position (1-indexed).
func (s *StatusLine) SetPosition(line, col int) {
	s.line = line
	s.col = col
}

// SetWindowSize updates the window size shown on the right.
func (s *StatusLine) SetWindowSize(width, height int) {
	s.winWidth = width
	s.winHeight = height
}

// SetMessage displays a status message.
func (s *StatusLine) SetMessage(msg string, msgType MessageType) {
	s.message = msg
	s.messageType = msgType
}

// ClearMessage clears the status message.
func (s *StatusLine) ClearMessage() {
	s.message = ""
	s.messageType = MessageNone
}

// Message returns the current message and its type.
func (s *StatusLine) Message() (string, MessageType) {
	return s.message, s.messageType
}

// Position formats the left side.
func (s *StatusLine) Position() string {
	return fmt.Sprintf("Line: %d, Column: %d", max(s.line, 1), max(s.col, 1))
}

// WindowSize formats the right side.
func (s *StatusLine) WindowSize() string {
	return fmt.Sprintf("Window Size: %dx%d", s.winWidth, s.winHeight)
}

// middle returns the message, or the filename when there is none.
func (s *StatusLine) middle() (string, core.Style) {
	if s.message != "" {
		if s.messageType == MessageError {
			return s.message, s.errorStyle
		}
		return s.message, s.style
	}
	name := s.filename
	if name == "" {
		name = "[No Name]"
	}
	if s.modified {
		name += " [+]"
	}
	return name, s.style
}

// Render draws the status line on row of a bar width cells wide.
func (s *StatusLine) Render(b backend.Backend, row, width int) {
	b.Fill(core.RectFromSize(row, 0, 1, width), core.Cell{Rune: ' ', Width: 1, Style: s.style})

	left := " " + s.Position()
	right := s.WindowSize() + " "
	rightStart := width - core.StringWidth(right)

	col := backend.DrawText(b, 0, row, width, left, s.style)
	if rightStart > col+1 {
		backend.DrawText(b, rightStart, row, width, right, s.style)
	} else {
		rightStart = width
	}

	msg, style := s.middle()
	avail := rightStart - col - 4
	if avail <= 0 {
		return
	}
	backend.DrawText(b, col+2, row, col+2+avail, core.Truncate(msg, avail), style)
}
