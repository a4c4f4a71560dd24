// Package ui implements quill's terminal Shell: a menu bar, the text area
// and a status bar drawn on a backend.Backend, plus the dialogs that
// collect file paths, search text and module choices.
//
// The Shell runs a single event loop. Everything that touches the
// document happens on that loop; watcher reloads reach it as interrupt
// events.
package ui
