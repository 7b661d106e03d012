package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"textsearch/internal/indexer"
)

func (c *cli) newIndexCmd() *cobra.Command {
	var (
		rebuild    bool
		batchSize  int
		sampleSize int
	)

	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Index the documents under a directory",
		Long: `Scan a directory tree for documents and store a leading sample of each
in the full-text index. Documents are committed in batches; interrupting a run
keeps every batch already committed.

Without --rebuild, documents are appended to the existing index and indexing
the same directory twice creates duplicate entries.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := c.cfg.CorpusRoot
			if len(args) == 1 {
				root = args[0]
			}
			if batchSize <= 0 {
				batchSize = c.cfg.BatchSize
			}
			if sampleSize <= 0 {
				sampleSize = c.cfg.SampleSize
			}
			return c.runIndex(cmd, root, indexer.Options{
				BatchSize:  batchSize,
				SampleSize: sampleSize,
				Rebuild:    rebuild,
			})
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Clear the index before indexing")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Documents per commit (default from INDEX_BATCH_SIZE)")
	cmd.Flags().IntVar(&sampleSize, "sample-size", 0, "Leading bytes indexed per document (default from INDEX_SAMPLE_SIZE)")

	return cmd
}

func (c *cli) runIndex(cmd *cobra.Command, root string, opts indexer.Options) error {
	a, err := c.openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	out := cmd.OutOrStdout()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	fmt.Fprintf(out, "Indexing text files from %s...\n", root)
	opts.OnBatch = func(p indexer.BatchProgress) {
		batches := (p.Total + opts.BatchSize - 1) / opts.BatchSize
		fmt.Fprintf(out, "Committed batch %d/%d (%d/%d files)\n", p.Batch, batches, p.Processed, p.Total)
	}

	result, err := a.pipeline.IndexAll(ctx, root, opts)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			fmt.Fprintf(out, "Indexing interrupted. %d files committed in %d batches.\n", result.Indexed, result.Batches)
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "Indexing complete! Indexed %d of %d files", result.Indexed, result.Total)
	if result.Failed > 0 {
		fmt.Fprintf(out, " (%d skipped)", result.Failed)
	}
	fmt.Fprintln(out, ".")

	count, err := a.docs.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	fmt.Fprintf(out, "Database contains %d indexed files.\n", count)
	return nil
}
