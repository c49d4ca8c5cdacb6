// Package internal provides the application wiring: configuration, the
// engine built from it, and the command dispatch.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/starford/adr/internal/editor"
	"github.com/starford/adr/internal/engine"
	"github.com/starford/adr/internal/record"
	"github.com/starford/adr/internal/render"
	"github.com/starford/adr/internal/storage"
)

// Run executes op with the given options.
func Run(ctx context.Context, op Op, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if _, ok := op.(HelpOp); ok {
		return app.help()
	}

	logger := app.logger(op)
	slog.SetDefault(logger)

	fs, err := storage.NewFS(app.config.Store.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	store := record.New(fs, app.config.Store.Options())

	switch o := op.(type) {
	case InitOp:
		return app.runInit(ctx, app.engine(fs, store, logger, false))
	case NewOp:
		return app.runNew(ctx, app.engine(fs, store, logger, !o.NoEdit), o)
	case ListOp:
		return app.runList(ctx, app.engine(fs, store, logger, false), o)
	case LinkOp:
		return app.runLink(ctx, app.engine(fs, store, logger, false), o)
	case ShowOp:
		return app.runShow(ctx, app.engine(fs, store, logger, false), o)
	case CheckOp:
		return app.runCheck(ctx, app.engine(fs, store, logger, false))
	case ServeOp:
		return app.serve(ctx, fs, app.engine(fs, store, logger, false), logger)
	case MCPOp:
		return app.serveMCP(ctx, fs, app.engine(fs, store, logger, false), logger)
	default:
		return fmt.Errorf("unknown operation %T", op)
	}
}

// logger builds the slog logger for op: JSON for the long-running modes
// (on stderr for MCP, whose stdout carries the protocol), quiet text on
// stderr for one-shot commands.
func (a *application) logger(op Op) *slog.Logger {
	level := a.config.App.LogLevel
	switch op.(type) {
	case ServeOp:
		return slog.New(slog.NewJSONHandler(a.stdout, &slog.HandlerOptions{Level: level}))
	case MCPOp:
		return slog.New(slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	default:
		return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: max(level, slog.LevelWarn)}))
	}
}

// engine builds the record engine. Only interactive `new` gets an editor.
func (a *application) engine(fs *storage.FS, store *record.Store, logger *slog.Logger, interactive bool) *engine.Engine {
	cfg := a.config
	opts := []engine.Option{engine.WithLogger(logger)}

	if p := cfg.Template.Path; p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(fs.Root(), p)
		}
		opts = append(opts, engine.WithTemplate(render.File(p)))
	}
	if cfg.Template.Status != "" {
		opts = append(opts, engine.WithStatus(cfg.Template.Status))
	}
	if interactive {
		ed := editor.Resolve(cfg.Editor.Command, fs.Root())
		if ex, ok := ed.(*editor.Exec); ok {
			ex.Stdin, ex.Stdout, ex.Stderr = a.stdin, a.stdout, a.stderr
		}
		opts = append(opts, engine.WithEditor(ed))
	}
	return engine.New(store, opts...)
}

const helpText = `adr records architecture decisions as numbered Markdown files.

Commands:
  init                      create the record directory and record 1
  new [-s ID]... TITLE      create the next record, optionally superseding others
  list [-l]                 print records in id order
  link ID -s ID...          mark records as superseded by record ID
  show ID                   print a record
  check                     report supersede links without a counterpart
  serve                     run the HTTP API with a live SQLite index
  mcp                       run the MCP server on stdin/stdout

Run "adr <command> --help" for command options.
`

func (a *application) help() error {
	_, err := io.WriteString(a.stdout, helpText)
	return err
}
