package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dshills/quill/internal/plugin"
	"github.com/dshills/quill/internal/processor"
)

// ReloadEvent reports the outcome of a watcher-triggered reload.
type ReloadEvent struct {
	Path       string
	Descriptor processor.Descriptor
	Err        error
}

// SetReloadHandler sets the function told about watcher reloads. It runs on
// the watcher's goroutine.
func (app *Application) SetReloadHandler(fn func(ReloadEvent)) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.onReload = fn
}

// bootstrapModules registers built-ins, autoloads script directories and
// loads Options.Modules. Failures are collected, not fatal.
func (app *Application) bootstrapModules(ctx context.Context) error {
	var errs []error

	if app.config.Plugins.PreloadBuiltins {
		for _, p := range processor.Builtins() {
			if _, err := app.registry.Register(p, processor.BuiltinSource(p.Name())); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if app.config.Plugins.Watch {
		w, err := plugin.NewWatcher(app.reload, plugin.WithWatcherLogger(WithComponent(app.logger, "watcher")))
		if err != nil {
			app.logger.Warn("module watching disabled", "error", err)
			errs = append(errs, fmt.Errorf("watch modules: %w", err))
		} else {
			app.watcher = w
		}
	}

	paths, err := app.loader.Discover()
	if err != nil {
		errs = append(errs, err)
	}
	paths = append(paths, app.opts.Modules...)

	for _, path := range paths {
		if _, err := app.LoadModuleContext(ctx, path); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		app.logger.Warn("startup modules failed", "count", len(errs))
	}
	return errors.Join(errs...)
}

// LoadModule loads the script at path and registers its processor.
func (app *Application) LoadModule(path string) (processor.Descriptor, error) {
	return app.LoadModuleContext(context.Background(), path)
}

// LoadModuleContext is LoadModule with a context.
func (app *Application) LoadModuleContext(ctx context.Context, path string) (processor.Descriptor, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	desc, err := app.registry.Load(ctx, path)
	if err != nil {
		return processor.Descriptor{}, err
	}

	app.mu.Lock()
	w := app.watcher
	app.mu.Unlock()
	if w != nil {
		if err := w.Add(path); err != nil {
			app.logger.Warn("cannot watch module", "path", path, "error", err)
		}
	}
	return desc, nil
}

// ReloadModule reloads the script at path. The reloaded processor replaces
// any processor of the same name.
func (app *Application) ReloadModule(ctx context.Context, path string) (processor.Descriptor, error) {
	desc, err := app.registry.Load(ctx, path)
	if err != nil {
		return processor.Descriptor{}, err
	}
	app.logger.Info("module reloaded", "path", path, "name", desc.Name)
	return desc, nil
}

// reload is the watcher callback. It runs on the watcher goroutine; the
// registry lock orders it with Shell commands and only the outcome is
// handed to the reload handler.
func (app *Application) reload(path string) {
	desc, err := app.ReloadModule(context.Background(), path)

	app.mu.Lock()
	fn := app.onReload
	app.mu.Unlock()
	if fn != nil {
		fn(ReloadEvent{Path: path, Descriptor: desc, Err: err})
	}
}

// ModuleNames returns the registered processor names in load order.
func (app *Application) ModuleNames() []string {
	return app.registry.List()
}

// Modules returns the registered processors' descriptors in load order.
func (app *Application) Modules() []processor.Descriptor {
	return app.registry.Descriptors()
}

// ApplyModule runs the named processor over the document. The document is
// replaced, as one undo step, only when the processor succeeds.
func (app *Application) ApplyModule(ctx context.Context, name string) error {
	doc := app.Document()
	out, err := app.registry.Apply(ctx, name, doc.Content())
	if err != nil {
		app.logOperationError(err)
		return err
	}
	return doc.SetText(out)
}

// ApplyLastModule runs the most recently loaded processor over the
// document and returns its name.
func (app *Application) ApplyLastModule(ctx context.Context) (string, error) {
	doc := app.Document()
	name, out, err := app.registry.ApplyMostRecent(ctx, doc.Content())
	if err != nil {
		if errors.Is(err, processor.ErrEmptyRegistry) {
			return "", fmt.Errorf("%w: %w", ErrNoModules, err)
		}
		app.logOperationError(err)
		return name, err
	}
	return name, doc.SetText(out)
}
