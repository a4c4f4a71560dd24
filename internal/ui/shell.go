package ui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dshills/quill/internal/app"
	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/renderer/backend"
	"github.com/dshills/quill/internal/renderer/core"
	"github.com/dshills/quill/internal/renderer/statusline"
)

// stopSignal is posted to the event loop when the Run context ends.
type stopSignal struct{}

// styles holds the Shell's resolved colors.
type styles struct {
	text          core.Style
	selection     core.Style
	menu          core.Style
	menuHighlight core.Style
	status        core.Style
}

func newStyles(p config.Palette) styles {
	menu := core.DefaultStyle().
		WithForeground(core.ColorFromColorful(p.MenuFG)).
		WithBackground(core.ColorFromColorful(p.MenuBG))
	highlight := core.DefaultStyle().
		WithForeground(core.ColorFromColorful(p.HighlightFG)).
		WithBackground(core.ColorFromColorful(p.HighlightBG))
	return styles{
		text:          core.DefaultStyle(),
		selection:     highlight,
		menu:          menu,
		menuHighlight: highlight,
		status: core.DefaultStyle().
			WithForeground(core.ColorFromColorful(p.StatusFG)).
			WithBackground(core.ColorFromColorful(p.StatusBG)),
	}
}

// Shell is the interactive editor window.
type Shell struct {
	app    *app.Application
	be     backend.Backend
	logger *slog.Logger
	ctx    context.Context

	status   *statusline.StatusLine
	menu     *menuBar
	dialog   dialog
	bindings map[backend.Key]action
	styles   styles
	tabWidth int

	top  int // first visible visual row
	left int // horizontal scroll in cells when not wrapping

	lastFind string
	lastPath string
	quit     bool
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the Shell's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Shell for application drawing on be. The backend is
// initialized by Run.
func New(application *app.Application, be backend.Backend, opts ...Option) *Shell {
	cfg := application.Config()
	s := &Shell{
		app:      application,
		be:       be,
		logger:   slog.New(slog.DiscardHandler),
		ctx:      context.Background(),
		status:   statusline.New(),
		styles:   newStyles(cfg.Theme.Palette()),
		tabWidth: max(cfg.Editor.TabWidth, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.status.SetStyle(s.styles.status)
	s.menu = newMenuBar(defaultMenus())
	s.bindings = bindingsFor(s.menu.menus)
	return s
}

// Run initializes the backend and processes events until the user quits
// or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.be.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer s.be.Shutdown()

	s.ctx = ctx
	s.app.SetReloadHandler(func(ev app.ReloadEvent) {
		s.be.PostInterrupt(ev)
	})
	defer s.app.SetReloadHandler(nil)

	stop := context.AfterFunc(ctx, func() {
		s.be.PostInterrupt(stopSignal{})
	})
	defer stop()

	s.logger.Info("shell started")
	for !s.quit {
		s.Draw()
		s.HandleEvent(s.be.PollEvent())
	}
	s.logger.Info("shell stopped")
	return nil
}

// Quitting reports whether the Shell has been asked to quit.
func (s *Shell) Quitting() bool {
	return s.quit
}

// HandleEvent processes a single backend event.
func (s *Shell) HandleEvent(ev backend.Event) {
	switch ev.Type {
	case backend.EventKey:
		s.handleKey(ev)
	case backend.EventInterrupt:
		s.handleInterrupt(ev.Data)
	case backend.EventResize:
		s.top, s.left = 0, 0
	}
}

func (s *Shell) handleInterrupt(data any) {
	switch v := data.(type) {
	case stopSignal:
		s.quit = true
	case app.ReloadEvent:
		if v.Err != nil {
			s.report(v.Err)
			return
		}
		s.info("Reloaded module: %s", v.Descriptor.Name)
	}
}

func (s *Shell) handleKey(ev backend.Event) {
	if d := s.dialog; d != nil {
		if d.handleKey(s, ev) && s.dialog == d {
			s.dialog = nil
		}
		return
	}
	if s.menu.open {
		s.menu.handleKey(s, ev)
		return
	}

	s.status.ClearMessage()

	if ev.Key == backend.KeyF10 {
		s.menu.show(0)
		return
	}
	if act, ok := s.bindings[ev.Key]; ok {
		act.run(s)
		return
	}
	s.editKey(ev)
}

// editKey handles keys that edit or move within the document.
func (s *Shell) editKey(ev backend.Event) {
	doc := s.app.Document()
	extend := ev.Mod.Has(backend.ModShift)
	ctrl := ev.Mod.Has(backend.ModCtrl)

	var err error
	switch ev.Key {
	case backend.KeyRune:
		if ev.Mod.Has(backend.ModAlt) {
			return
		}
		err = doc.InsertText(string(ev.Rune))
	case backend.KeyEnter:
		err = doc.InsertText("\n")
	case backend.KeyTab:
		err = doc.InsertText("\t")
	case backend.KeyBackspace:
		err = doc.Backspace()
	case backend.KeyDelete:
		err = doc.DeleteForward()
	case backend.KeyLeft:
		doc.MoveLeft(extend)
	case backend.KeyRight:
		doc.MoveRight(extend)
	case backend.KeyUp:
		doc.MoveUp(extend)
	case backend.KeyDown:
		doc.MoveDown(extend)
	case backend.KeyHome:
		if ctrl {
			doc.MoveDocStart(extend)
		} else {
			doc.MoveHome(extend)
		}
	case backend.KeyEnd:
		if ctrl {
			doc.MoveDocEnd(extend)
		} else {
			doc.MoveEnd(extend)
		}
	case backend.KeyPageUp:
		for range s.textHeight() {
			doc.MoveUp(extend)
		}
	case backend.KeyPageDown:
		for range s.textHeight() {
			doc.MoveDown(extend)
		}
	case backend.KeyEscape:
		doc.ClearSelection()
	}
	s.report(err)
}

// info shows an informational message.
func (s *Shell) info(format string, args ...any) {
	s.status.SetMessage(fmt.Sprintf(format, args...), statusline.MessageInfo)
}

// report shows err in the status bar. Informational results such as an
// empty undo history are shown without the error bell.
func (s *Shell) report(err error) bool {
	if err == nil {
		return false
	}
	if app.IsInfo(err) {
		s.status.SetMessage(err.Error(), statusline.MessageInfo)
		return true
	}
	s.status.SetMessage("Error: "+err.Error(), statusline.MessageError)
	s.be.Beep()
	return true
}

// textHeight is the number of rows available to the document.
func (s *Shell) textHeight() int {
	_, h := s.be.Size()
	return max(h-2, 1)
}
