// Package main is the entry point for the Quill editor.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/quill/internal/app"
	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/plugin"
	"github.com/dshills/quill/internal/renderer/backend"
	"github.com/dshills/quill/internal/ui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	configPath    string
	logLevel      string
	modules       stringList
	apply         string
	applyLast     bool
	list          bool
	writeExamples string
	printConfig   bool
	file          string
}

// batch reports whether the run transforms text without the Shell.
func (o options) batch() bool {
	return o.apply != "" || o.applyLast || o.list
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.writeExamples != "" {
		written, err := plugin.WriteExamples(opts.writeExamples)
		for _, p := range written {
			fmt.Println(p)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.printConfig {
		if err := cfg.Write(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	logger, closeLog := setupLogger(cfg)
	defer closeLog()

	if !opts.batch() && !(term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))) {
		fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal (use -apply or -list for pipes)")
		return 1
	}

	application, err := app.New(app.Options{
		Config:  cfg,
		Logger:  logger,
		File:    opts.file,
		Modules: opts.modules,
	})
	if application == nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()
	if err != nil {
		// Module failures are not fatal; the editor starts without them.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.batch() {
		return runBatch(ctx, application, opts, os.Stdin, os.Stdout)
	}

	screen, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	shell := ui.New(application, screen, ui.WithLogger(app.WithComponent(logger, "shell")))
	if err := shell.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runBatch lists modules or applies one to the file (or stdin) and prints
// the result.
func runBatch(ctx context.Context, application *app.Application, opts options, in io.Reader, out io.Writer) int {
	if opts.list {
		for _, d := range application.Modules() {
			fmt.Fprintf(out, "%s\t%s\n", d.Name, d.Description)
		}
		return 0
	}

	doc := application.Document()
	if opts.file == "" {
		data, err := io.ReadAll(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read stdin: %v\n", err)
			return 1
		}
		if err := doc.SetText(string(data)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.applyLast {
		_, err := application.ApplyLastModule(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	} else if err := application.ApplyModule(ctx, opts.apply); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprint(out, doc.Content())
	return 0
}

// loadConfig reads the config file, then applies the environment and flags.
func loadConfig(opts options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger writes logs to the configured file. Logging is disabled when
// the file cannot be opened.
func setupLogger(cfg *config.Config) (*slog.Logger, func()) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	f, err := app.OpenLogFile(cfg.LogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return app.NewLogger(app.LoggerConfig{}), func() {}
	}
	logger := app.NewLogger(app.LoggerConfig{Level: level, Output: f})
	return logger, func() { _ = f.Close() }
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.Var(&opts.modules, "load", "Load a processor script at startup (repeatable)")
	flag.StringVar(&opts.apply, "apply", "", "Apply the named processor to the file or stdin and print the result")
	flag.BoolVar(&opts.applyLast, "apply-last", false, "Apply the most recently loaded processor and print the result")
	flag.BoolVar(&opts.list, "list", false, "List the loaded processors")
	flag.StringVar(&opts.writeExamples, "write-examples", "", "Write the bundled example scripts to a directory")
	flag.BoolVar(&opts.printConfig, "print-config", false, "Print the effective configuration")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Quill - a small text editor with Lua text processors\n\n")
		fmt.Fprintf(os.Stderr, "Usage: quill [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  quill                                  Open an empty document\n")
		fmt.Fprintf(os.Stderr, "  quill notes.txt                        Open a file\n")
		fmt.Fprintf(os.Stderr, "  quill -load rev.lua notes.txt          Open a file with a processor loaded\n")
		fmt.Fprintf(os.Stderr, "  echo hi | quill -load rev.lua -apply-last\n")
		fmt.Fprintf(os.Stderr, "  quill -write-examples ~/.config/quill/processors\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Quill %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.apply != "" && opts.applyLast {
		fmt.Fprintln(os.Stderr, "Error: -apply and -apply-last are mutually exclusive")
		os.Exit(1)
	}

	if opts.logLevel != "" {
		if _, err := config.ParseLevel(opts.logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	switch args := flag.Args(); len(args) {
	case 0:
	case 1:
		opts.file = args[0]
	default:
		fmt.Fprintln(os.Stderr, "Error: only one file can be opened")
		os.Exit(1)
	}

	return opts
}
