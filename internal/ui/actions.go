package ui

import (
	"fmt"
	"path/filepath"

	"github.com/dshills/quill/internal/app"
	"github.com/dshills/quill/internal/renderer/backend"
)

// action is a named Shell command reachable from a key and a menu.
type action struct {
	label    string
	shortcut string
	key      backend.Key
	run      func(s *Shell)
}

// defaultMenus builds the menu bar. Actions with a key are also bound
// in the editor.
func defaultMenus() []menu {
	return []menu{
		{title: "File", items: []action{
			{"New", "Ctrl-N", backend.KeyCtrlN, newFile},
			{"Open...", "Ctrl-O", backend.KeyCtrlO, openFile},
			{"Save", "Ctrl-S", backend.KeyCtrlS, saveFile},
			{"Save As...", "", backend.KeyNone, saveFileAs},
			{"Quit", "Ctrl-Q", backend.KeyCtrlQ, quit},
		}},
		{title: "Edit", items: []action{
			{"Undo", "Ctrl-Z", backend.KeyCtrlZ, undo},
			{"Redo", "Ctrl-Y", backend.KeyCtrlY, redo},
			{"Cut", "Ctrl-X", backend.KeyCtrlX, cut},
			{"Copy", "Ctrl-C", backend.KeyCtrlC, copyText},
			{"Paste", "Ctrl-V", backend.KeyCtrlV, paste},
			{"Select All", "Ctrl-A", backend.KeyCtrlA, selectAll},
			{"Find...", "Ctrl-F", backend.KeyCtrlF, find},
			{"Replace...", "Ctrl-R", backend.KeyCtrlR, replace},
		}},
		{title: "Format", items: []action{
			{"Word Wrap", "Ctrl-W", backend.KeyCtrlW, toggleWordWrap},
		}},
		{title: "Insert", items: []action{
			{"Timestamp", "Ctrl-D", backend.KeyCtrlD, insertTimestamp},
		}},
		{title: "Modules", items: []action{
			{"Load Module...", "Ctrl-L", backend.KeyCtrlL, loadModule},
			{"Manage Modules...", "Ctrl-K", backend.KeyCtrlK, manageModules},
			{"Apply Last Module", "Ctrl-E", backend.KeyCtrlE, applyLastModule},
			{"Keyboard Shortcuts", "F1", backend.KeyF1, showHelp},
		}},
	}
}

// bindingsFor maps keys to the menu actions that carry them.
func bindingsFor(menus []menu) map[backend.Key]action {
	bindings := make(map[backend.Key]action)
	for _, m := range menus {
		for _, a := range m.items {
			if a.key != backend.KeyNone {
				bindings[a.key] = a
			}
		}
	}
	return bindings
}

// confirmDiscard runs fn directly, or after a confirmation when the
// document has unsaved changes.
func confirmDiscard(s *Shell, question string, fn func(s *Shell)) {
	if !s.app.Document().IsModified() {
		fn(s)
		return
	}
	s.dialog = &confirmDialog{
		title:    "Unsaved Changes",
		question: question,
		onYes:    fn,
	}
}

func newFile(s *Shell) {
	confirmDiscard(s, "Discard unsaved changes?", func(s *Shell) {
		s.app.NewFile()
		s.top, s.left = 0, 0
	})
}

func openFile(s *Shell) {
	confirmDiscard(s, "Discard unsaved changes?", func(s *Shell) {
		s.dialog = newPrompt("Open File", "Path:", s.lastPath, func(s *Shell, path string) {
			if path == "" {
				return
			}
			if s.report(s.app.OpenFile(path)) {
				return
			}
			s.lastPath = path
			s.top, s.left = 0, 0
			s.info("Opened %s", s.app.Document().Name)
		})
	})
}

func saveFile(s *Shell) {
	if s.app.Document().IsScratch() {
		saveFileAs(s)
		return
	}
	if s.report(s.app.SaveFile("")) {
		return
	}
	s.info("Saved %s", s.app.Document().Name)
}

func saveFileAs(s *Shell) {
	s.dialog = newPrompt("Save As", "Path:", s.app.Document().Path, func(s *Shell, path string) {
		if path == "" {
			return
		}
		if s.report(s.app.SaveFile(path)) {
			return
		}
		s.lastPath = path
		s.info("Saved %s", s.app.Document().Name)
	})
}

func quit(s *Shell) {
	confirmDiscard(s, "Quit without saving?", func(s *Shell) {
		s.quit = true
	})
}

func undo(s *Shell) { s.report(s.app.Undo()) }

func redo(s *Shell) { s.report(s.app.Redo()) }

func cut(s *Shell) { s.report(s.app.Cut()) }

func copyText(s *Shell) {
	if !s.report(s.app.Copy()) {
		s.info("Copied")
	}
}

func paste(s *Shell) { s.report(s.app.Paste()) }

func selectAll(s *Shell) { s.app.Document().SelectAll() }

func find(s *Shell) {
	s.dialog = newPrompt("Find", "Find:", s.lastFind, func(s *Shell, query string) {
		if query == "" {
			return
		}
		s.lastFind = query
		s.report(s.app.Find(query))
	})
}

func replace(s *Shell) {
	s.dialog = newPrompt("Replace", "Find:", s.lastFind, func(s *Shell, from string) {
		if from == "" {
			return
		}
		s.lastFind = from
		s.dialog = newPrompt("Replace", "Replace with:", "", func(s *Shell, to string) {
			n, err := s.app.Replace(from, to)
			if s.report(err) {
				return
			}
			s.info("Replaced %d occurrence(s)", n)
		})
	})
}

func toggleWordWrap(s *Shell) {
	s.left = 0
	if s.app.ToggleWordWrap() {
		s.info("Word wrap on")
	} else {
		s.info("Word wrap off")
	}
}

func insertTimestamp(s *Shell) { s.report(s.app.InsertTimestamp()) }

func loadModule(s *Shell) {
	initial := ""
	if s.lastPath != "" {
		initial = filepath.Dir(s.lastPath) + string(filepath.Separator)
	}
	s.dialog = newPrompt("Load Module", "Script:", initial, func(s *Shell, path string) {
		if path == "" {
			return
		}
		desc, err := s.app.LoadModule(path)
		if s.report(err) {
			return
		}
		s.lastPath = path
		s.info("Loaded module: %s", desc.Name)
	})
}

func manageModules(s *Shell) {
	mods := s.app.Modules()
	if len(mods) == 0 {
		s.report(app.ErrNoModules)
		return
	}
	items := make([]string, len(mods))
	for i, d := range mods {
		items[i] = fmt.Sprintf("%s - %s", d.Name, d.Description)
	}
	s.dialog = &listDialog{
		title: "Modules (Enter applies)",
		items: items,
		sel:   len(items) - 1,
		onSelect: func(s *Shell, i int) {
			name := mods[i].Name
			if s.report(s.app.ApplyModule(s.ctx, name)) {
				return
			}
			s.info("Applied %s", name)
		},
	}
}

func applyLastModule(s *Shell) {
	name, err := s.app.ApplyLastModule(s.ctx)
	if s.report(err) {
		return
	}
	s.info("Applied %s", name)
}

func showHelp(s *Shell) {
	var items []string
	for _, m := range s.menu.menus {
		for _, a := range m.items {
			if a.shortcut != "" {
				items = append(items, fmt.Sprintf("%-8s %s", a.shortcut, a.label))
			}
		}
	}
	items = append(items,
		fmt.Sprintf("%-8s %s", "F10", "Menu"),
		fmt.Sprintf("%-8s %s", "Shift", "+ arrows select"),
	)
	s.dialog = &listDialog{title: "Keyboard Shortcuts", items: items}
}
