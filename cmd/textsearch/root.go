package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"textsearch/internal/config"
	"textsearch/internal/corpus"
	"textsearch/internal/indexer"
	"textsearch/internal/metrics"
	"textsearch/internal/repl"
	"textsearch/internal/search"
	"textsearch/internal/service"
	"textsearch/internal/storage"
)

// cli carries state shared by every command once configuration is loaded.
type cli struct {
	cfg *config.Config
}

// newRootCmd creates the root command. Run without a subcommand it starts
// the interactive search prompt.
func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "textsearch",
		Short: "Full-text search over a directory of text documents",
		Long: `textsearch indexes a directory tree of text documents into a SQLite
FTS5 index and searches it by content or filename.

Run with no subcommand for the interactive prompt, 'textsearch index' to
build the index, or 'textsearch serve' for the web interface.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInteractive(cmd)
		},
	}

	cmd.AddCommand(c.newIndexCmd())
	cmd.AddCommand(c.newServeCmd())
	cmd.AddCommand(c.newStatsCmd())

	return cmd
}

// init loads configuration and configures structured logging on stderr so
// stdout stays clean for results.
func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	} else {
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)
	return nil
}

// app is the wired set of components over one open store.
type app struct {
	db       *sql.DB
	docs     *storage.DocumentRepo
	metrics  *metrics.Metrics
	pipeline *indexer.Pipeline
	service  service.SearchService
}

// openApp opens and migrates the store and wires the components over it.
func (c *cli) openApp() (*app, error) {
	cfg := c.cfg

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	m := metrics.New()
	docs := storage.NewDocumentRepo(db)
	runs := storage.NewRunRepo(db)
	scanner := corpus.NewScanner(cfg.CorpusExtension)
	pipeline := indexer.NewPipeline(docs, runs, scanner, m)
	engine := search.NewEngine(docs, m, cfg.SearchLimit)
	images := corpus.NewImageResolver(cfg.ImageRoot, cfg.ImageDirMin, cfg.ImageDirMax)

	svc := service.NewSearchService(engine, docs, images, pipeline, service.Options{
		SnippetLength: cfg.SnippetLength,
		SampleSize:    cfg.SampleSize,
		Extension:     scanner.Extension(),
	})

	if count, err := docs.Count(context.Background()); err == nil {
		m.SetDocumentCount(count)
	}

	return &app{
		db:       db,
		docs:     docs,
		metrics:  m,
		pipeline: pipeline,
		service:  svc,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (c *cli) runInteractive(cmd *cobra.Command) error {
	a, err := c.openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()

	r := repl.New(a.service, in, out,
		repl.WithPrompt(isTTY(in)),
		repl.WithStyles(repl.GetStyles(!isTTY(out) || noColor())),
		repl.WithPreviewLength(repl.DefaultPreviewLength),
	)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	// Reads from stdin cannot be interrupted, so an interrupt ends the
	// session without waiting for the pending line.
	errc := make(chan error, 1)
	go func() {
		errc <- r.Run(ctx)
	}()

	select {
	case err := <-errc:
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	case <-ctx.Done():
		fmt.Fprintln(out, "\nExiting...")
		return nil
	}
}

// isTTY reports whether v is a terminal.
func isTTY(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func noColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
