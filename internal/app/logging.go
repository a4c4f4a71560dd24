package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum log level to output.
	Level slog.Level
	// Output is where logs are written. Nil discards.
	Output io.Writer
	// AddSource includes file:line in records.
	AddSource bool
}

// NewLogger creates a text logger tagged with the application name.
func NewLogger(cfg LoggerConfig) *slog.Logger {
	if cfg.Output == nil {
		return slog.New(slog.DiscardHandler)
	}
	h := slog.NewTextHandler(cfg.Output, &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	})
	return slog.New(h).With("app", "quill")
}

// OpenLogFile opens path for appending, creating its directory.
// The terminal belongs to the Shell, so logs never go to stderr while it runs.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// WithComponent returns a child logger with the component attribute set.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With("component", component)
}

// Logger returns the application's logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// logOperationError logs a failed command with its operation context.
func (app *Application) logOperationError(err error) {
	if err == nil || IsInfo(err) {
		return
	}
	app.logger.Error("command failed", "error", err)
}
