// Package history provides undo/redo for a buffer.
//
// Every edit is recorded as an Operation: the text that was replaced and
// the text that replaced it, at a byte offset. Operations are invertible,
// so undo applies the inverse and redo re-applies the original.
//
//	h := history.NewHistory(1000)
//	h.Push(history.NewOperation(0, "", "hello"))
//	op, err := h.Undo(buf)   // removes "hello"
//	op, err = h.Redo(buf)    // inserts it again
//
// Consecutive single-line insertions typed at adjacent positions are merged
// into one operation so that undo removes a run of typing at once.
package history
