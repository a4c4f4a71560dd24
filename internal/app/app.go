// Package app provides the main application structure and coordination
// for the quill editor. It wires the document, the processor registry and
// the script loader together and exposes every menu command as a method.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/plugin"
	"github.com/dshills/quill/internal/processor"
)

// Application is the central coordinator for quill's components.
//
// Commands are called from the Shell's event loop. Module reloads arrive
// from the watcher goroutine and only touch the registry, which is safe for
// concurrent use.
type Application struct {
	mu sync.Mutex

	config *config.Config
	logger *slog.Logger

	// Document management
	doc       *Document
	clipboard string
	wordWrap  bool

	// Modules
	registry *processor.Registry
	loader   *plugin.Loader
	watcher  *plugin.Watcher
	onReload func(ReloadEvent)

	now    func() time.Time
	closed bool

	// Options
	opts Options
}

// Options configures the application.
type Options struct {
	// Config holds the settings. Nil means config.Default().
	Config *config.Config

	// Logger receives application logs. Nil discards.
	Logger *slog.Logger

	// File is opened on startup when set.
	File string

	// Modules are loaded on startup after autoload, in order.
	Modules []string

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// New creates a new Application with the given options.
//
// Startup module failures are logged and returned joined alongside a usable
// Application; only a failure to open File is fatal.
func New(opts Options) (*Application, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = NewLogger(LoggerConfig{})
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	cfg := opts.Config
	app := &Application{
		config:   cfg,
		logger:   WithComponent(opts.Logger, "app"),
		wordWrap: cfg.Editor.WordWrap,
		now:      opts.Clock,
		opts:     opts,
	}

	app.loader = plugin.NewLoader(
		plugin.WithPaths(cfg.Plugins.Autoload...),
		plugin.WithExecutionTimeout(cfg.Plugins.ExecTimeout.Std()),
		plugin.WithUnsafeLibraries(cfg.Plugins.Unsafe),
		plugin.WithLogger(WithComponent(opts.Logger, "loader")),
	)
	app.registry = processor.NewRegistry(
		processor.WithLoader(app.loader),
		processor.WithLogger(WithComponent(opts.Logger, "registry")),
		processor.WithClock(opts.Clock),
	)

	if opts.File != "" {
		if err := app.OpenFile(opts.File); err != nil {
			return nil, err
		}
	} else {
		app.doc = NewScratchDocument(cfg.Editor.HistoryLimit)
	}

	return app, app.bootstrapModules(context.Background())
}

// Config returns the application settings.
func (app *Application) Config() *config.Config {
	return app.config
}

// Document returns the open document.
func (app *Application) Document() *Document {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.doc
}

// Registry returns the processor registry.
func (app *Application) Registry() *processor.Registry {
	return app.registry
}

// WordWrap reports whether soft wrap is on.
func (app *Application) WordWrap() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.wordWrap
}

// ToggleWordWrap flips soft wrap and returns the new state.
func (app *Application) ToggleWordWrap() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.wordWrap = !app.wordWrap
	app.logger.Debug("word wrap toggled", "enabled", app.wordWrap)
	return app.wordWrap
}

// Shutdown stops the watcher and closes every processor. It is safe to
// call more than once.
func (app *Application) Shutdown() error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return nil
	}
	app.closed = true
	w := app.watcher
	app.watcher = nil
	app.mu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.Close())
	}
	errs = append(errs, app.registry.Close())
	app.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
