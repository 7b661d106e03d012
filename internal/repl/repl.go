package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"textsearch/internal/contextutil"
	"textsearch/internal/search"
	"textsearch/internal/service"
)

const (
	// DefaultPreviewLength is the number of characters shown per result.
	DefaultPreviewLength = 500

	prompt     = "Enter search command: "
	maxLineLen = 1 << 20
)

var rule = strings.Repeat("-", 80)

// REPL is the interactive line-mode search client.
type REPL struct {
	svc           service.SearchService
	in            io.Reader
	out           io.Writer
	styles        Styles
	showPrompt    bool
	previewLength int
}

// Option configures a REPL.
type Option func(*REPL)

// WithStyles sets the output styles.
func WithStyles(s Styles) Option {
	return func(r *REPL) {
		r.styles = s
	}
}

// WithPrompt controls whether a prompt is written before each line is read.
func WithPrompt(show bool) Option {
	return func(r *REPL) {
		r.showPrompt = show
	}
}

// WithPreviewLength sets the preview length per result.
func WithPreviewLength(n int) Option {
	return func(r *REPL) {
		if n > 0 {
			r.previewLength = n
		}
	}
}

// New creates a REPL reading commands from in and writing to out.
func New(svc service.SearchService, in io.Reader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		svc:           svc,
		in:            in,
		out:           out,
		styles:        NoColorStyles(),
		showPrompt:    true,
		previewLength: DefaultPreviewLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run prints the banner and processes commands until quit, end of input or
// cancellation of ctx. A failed command is reported and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	count, err := r.svc.DocumentCount(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to count documents", "error", err)
	}
	r.banner(count)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLen)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.showPrompt {
			fmt.Fprint(r.out, "\n"+prompt)
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			fmt.Fprintln(r.out, "\nExiting...")
			return nil
		}

		cmd, err := ParseCommand(scanner.Text())
		if err != nil {
			r.printError(err)
			continue
		}

		switch cmd.Action {
		case ActionNone:
			continue
		case ActionQuit:
			fmt.Fprintln(r.out, "Exiting...")
			return nil
		case ActionHelp:
			r.help()
		case ActionSearch:
			if err := r.search(ctx, cmd); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.printError(err)
			}
		}
	}
}

func (r *REPL) search(ctx context.Context, cmd Command) error {
	resp, err := r.svc.Search(ctx, service.SearchRequest{
		Query:         cmd.Query,
		SearchType:    cmd.Scope.String(),
		PreviewLength: r.previewLength,
	})
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return validationErr
		case errors.Is(err, service.ErrInvalidInput):
			return fmt.Errorf("invalid search query %q", cmd.Query)
		default:
			return err
		}
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(r.out, "No results found.")
		return nil
	}

	fmt.Fprintf(r.out, "\n%s\n", r.styles.Header.Render(fmt.Sprintf("Found %d results for '%s':", len(resp.Results), cmd.Query)))
	fmt.Fprintln(r.out, r.styles.Rule.Render(rule))

	for i, res := range resp.Results {
		preview := search.Highlight(res.Preview, cmd.Query, identity, r.highlight)

		fmt.Fprintf(r.out, "\n%d. %s %s\n", i+1, r.styles.Label.Render("File:"), res.FileName)
		fmt.Fprintf(r.out, "   %s %s\n", r.styles.Label.Render("Path:"), res.FilePath)
		fmt.Fprintf(r.out, "   %s %s\n", r.styles.Label.Render("Preview:"), preview)
		fmt.Fprintf(r.out, "   %s %g\n", r.styles.Label.Render("Rank:"), res.Rank)
		fmt.Fprintln(r.out, r.styles.Rule.Render(rule))
	}
	return nil
}

func (r *REPL) banner(count int) {
	title := "Text Search Database"
	fmt.Fprintln(r.out, r.styles.Header.Render(title))
	fmt.Fprintln(r.out, strings.Repeat("=", len(title)))
	fmt.Fprintf(r.out, "Database contains %d indexed files.\n", count)
	r.help()
}

func (r *REPL) help() {
	fmt.Fprintln(r.out, "\nCommands:")
	fmt.Fprintln(r.out, "  'search <query>'   - Search in content only (default)")
	fmt.Fprintln(r.out, "  'all <query>'      - Search in content and filename")
	fmt.Fprintln(r.out, "  'content <query>'  - Search in content only")
	fmt.Fprintln(r.out, "  'filename <query>' - Search in filename only")
	fmt.Fprintln(r.out, "  'help'             - Show this list")
	fmt.Fprintln(r.out, "  'quit' or 'exit'   - Exit the program")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.styles.Dim.Render("Example: search Epstein"))
	fmt.Fprintln(r.out, r.styles.Dim.Render("Example: all Clinton"))
	fmt.Fprintln(r.out, r.styles.Dim.Render("Example: filename 010477"))
}

func (r *REPL) printError(err error) {
	fmt.Fprintln(r.out, r.styles.Error.Render("Error: "+err.Error()))
}

func identity(s string) string {
	return s
}

func (r *REPL) highlight(s string) string {
	return r.styles.Highlight.Render(s)
}
