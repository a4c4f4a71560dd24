package app

import (
	"errors"
	"os"
	"path/filepath"
)

// NewFile replaces the document with an empty scratch document.
func (app *Application) NewFile() {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.doc = NewScratchDocument(app.config.Editor.HistoryLimit)
	app.logger.Debug("new file")
}

// OpenFile loads path into a fresh document. A path that does not exist
// yet opens an empty document that will be created on save.
func (app *Application) OpenFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return NewOperationError("open", path, err)
	}

	content, err := os.ReadFile(abs)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return NewOperationError("open", path, &FileError{Op: "read", Path: abs, Err: err})
	}

	doc := NewDocument(abs, content, app.config.Editor.HistoryLimit)

	app.mu.Lock()
	app.doc = doc
	app.mu.Unlock()

	app.logger.Info("file opened", "path", abs, "bytes", len(content))
	return nil
}

// SaveFile writes the document to path, or to its own path when path is
// empty.
func (app *Application) SaveFile(path string) error {
	doc := app.Document()
	if path == "" {
		if doc.IsScratch() {
			return NewOperationError("save", doc.Name, ErrNoFilePath)
		}
		path = doc.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return NewOperationError("save", path, err)
	}
	if err := doc.Save(abs); err != nil {
		app.logOperationError(err)
		return NewOperationError("save", path, err)
	}
	app.logger.Info("file saved", "path", abs)
	return nil
}

// Undo reverts the last edit.
func (app *Application) Undo() error {
	return app.Document().Undo()
}

// Redo re-applies the last undone edit.
func (app *Application) Redo() error {
	return app.Document().Redo()
}

// Copy puts the selection on the clipboard.
func (app *Application) Copy() error {
	doc := app.Document()
	if !doc.HasSelection() {
		return ErrNoSelection
	}
	app.mu.Lock()
	app.clipboard = doc.SelectedText()
	app.mu.Unlock()
	return nil
}

// Cut moves the selection to the clipboard.
func (app *Application) Cut() error {
	if err := app.Copy(); err != nil {
		return err
	}
	_, err := app.Document().DeleteSelection()
	return err
}

// Paste inserts the clipboard at the cursor, replacing any selection.
func (app *Application) Paste() error {
	app.mu.Lock()
	clip := app.clipboard
	app.mu.Unlock()
	if clip == "" {
		return ErrClipboardEmpty
	}
	// Each paste is its own undo step.
	doc := app.Document()
	doc.History().Seal()
	if err := doc.InsertText(clip); err != nil {
		return err
	}
	doc.History().Seal()
	return nil
}

// Clipboard returns the clipboard contents.
func (app *Application) Clipboard() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.clipboard
}

// Find selects the next match of query, wrapping around.
func (app *Application) Find(query string) error {
	found, err := app.Document().Find(query)
	if err != nil {
		return err
	}
	if !found {
		return NewOperationError("find", query, ErrTextNotFound)
	}
	return nil
}

// Replace replaces every occurrence of find with with in one undo step and
// returns the count. Nothing happens when either string is empty.
func (app *Application) Replace(find, with string) (int, error) {
	if find == "" || with == "" {
		return 0, nil
	}
	n, err := app.Document().ReplaceAll(find, with)
	if err != nil {
		return 0, NewOperationError("replace", find, err)
	}
	app.logger.Debug("replaced text", "count", n)
	return n, nil
}

// InsertTimestamp inserts the current time at the cursor using
// editor.timestamp_format.
func (app *Application) InsertTimestamp() error {
	stamp := app.now().Format(app.config.Editor.TimestampFormat)
	return app.Document().InsertText(stamp)
}
