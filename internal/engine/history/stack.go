package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/quill/internal/engine/buffer"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMergeWindow is the longest pause between merged keystrokes.
const DefaultMergeWindow = time.Second

// History manages undo/redo state for a buffer.
type History struct {
	mu sync.Mutex

	undoStack []Operation
	redoStack []Operation

	// Configuration
	maxEntries  int
	mergeWindow time.Duration
}

// NewHistory creates a new history manager.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 1000 // Default
	}
	return &History{
		maxEntries:  maxEntries,
		mergeWindow: DefaultMergeWindow,
	}
}

// SetMergeWindow sets how close together insertions must be to merge.
// Zero disables merging.
func (h *History) SetMergeWindow(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mergeWindow = d
}

// Push records an operation that has already been applied.
// Clears the redo stack.
func (h *History) Push(op Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.redoStack = nil

	if n := len(h.undoStack); n > 0 && h.mergeWindow > 0 && h.undoStack[n-1].canMerge(op, h.mergeWindow) {
		h.undoStack[n-1] = h.undoStack[n-1].merge(op)
		return
	}

	h.undoStack = append(h.undoStack, op)

	// Enforce max entries
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// Seal prevents the next Push from merging into the last operation.
func (h *History) Seal() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.undoStack); n > 0 {
		h.undoStack[n-1].Timestamp = time.Time{}
	}
}

// Undo reverts the last operation on buf and returns it.
func (h *History) Undo(buf *buffer.Buffer) (Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return Operation{}, ErrNothingToUndo
	}

	op := h.undoStack[len(h.undoStack)-1]
	if err := op.Invert().Apply(buf); err != nil {
		return Operation{}, err
	}

	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, op)
	return op, nil
}

// Redo re-applies the last undone operation on buf and returns it.
func (h *History) Redo(buf *buffer.Buffer) (Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return Operation{}, ErrNothingToRedo
	}

	op := h.redoStack[len(h.redoStack)-1]
	if err := op.Apply(buf); err != nil {
		return Operation{}, err
	}

	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	op.Timestamp = time.Time{}
	h.undoStack = append(h.undoStack, op)
	return op, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo operations available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo operations available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Clear discards all history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoStack = nil
	h.redoStack = nil
}
