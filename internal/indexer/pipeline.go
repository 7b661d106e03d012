package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"textsearch/internal/contextutil"
	"textsearch/internal/corpus"
	"textsearch/internal/metrics"
	"textsearch/internal/storage"
)

const (
	// DefaultBatchSize is the number of documents committed per transaction.
	DefaultBatchSize = 100
	// progressEvery controls how often per-document progress is logged.
	progressEvery = 100
)

// Options configures one indexing run.
type Options struct {
	// BatchSize is the number of documents per commit. Defaults to DefaultBatchSize.
	BatchSize int
	// SampleSize is the number of leading bytes indexed per document.
	// Defaults to corpus.DefaultSampleSize.
	SampleSize int
	// Rebuild clears the index before scanning. When false, documents are
	// appended; re-indexing the same root creates duplicate records.
	Rebuild bool
	// OnBatch, if set, is called after every committed batch.
	OnBatch func(BatchProgress)
}

// BatchProgress describes a committed batch.
type BatchProgress struct {
	Batch     int // 1-based batch number
	Committed int // Documents committed in this batch
	Processed int // Documents attempted so far, including failures
	Total     int // Documents found by the scan
}

// Result summarizes an indexing run.
type Result struct {
	RunID   string
	Total   int // Documents found by the scan
	Indexed int // Documents committed
	Failed  int // Documents skipped because they could not be read or stored
	Batches int // Committed batches
}

// Pipeline indexes a directory of documents into the store in batches.
type Pipeline struct {
	docs    storage.DocumentStore
	runs    storage.RunStore
	scanner *corpus.Scanner
	metrics *metrics.Metrics
}

// NewPipeline creates a new indexing pipeline. m may be nil.
func NewPipeline(docs storage.DocumentStore, runs storage.RunStore, scanner *corpus.Scanner, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		docs:    docs,
		runs:    runs,
		scanner: scanner,
		metrics: m,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.SampleSize <= 0 {
		o.SampleSize = corpus.DefaultSampleSize
	}
	return o
}

// IndexAll scans root and stores a sample of every document found.
//
// Documents are committed in batches of opts.BatchSize; each committed batch
// is durable on its own. A document that cannot be read or stored is logged
// and skipped. Cancelling ctx stops the run: batches already committed stay,
// the open batch is rolled back, and the partial Result is returned with the
// context error.
func (p *Pipeline) IndexAll(ctx context.Context, root string, opts Options) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)
	opts = opts.withDefaults()

	var result Result

	scanned, err := p.scanner.Scan(ctx, root)
	if err != nil {
		return result, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	result.Total = len(scanned)

	if opts.Rebuild {
		logger.InfoContext(ctx, "clearing index before rebuild")
		if err := p.docs.Reset(ctx); err != nil {
			return result, fmt.Errorf("failed to reset index: %w", err)
		}
	}

	run, err := p.runs.Start(ctx, root)
	if err != nil {
		return result, fmt.Errorf("failed to record index run: %w", err)
	}
	result.RunID = run.ID

	logger.InfoContext(ctx, "starting indexing",
		"run_id", run.ID,
		"root", root,
		"total_files", result.Total,
		"batch_size", opts.BatchSize,
		"sample_size", opts.SampleSize,
		"rebuild", opts.Rebuild,
	)

	processed := 0
	for start := 0; start < len(scanned); start += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			logger.WarnContext(ctx, "indexing cancelled", "indexed", result.Indexed, "remaining", result.Total-processed)
			return result, err
		}

		end := min(start+opts.BatchSize, len(scanned))
		committed, failed, err := p.indexBatch(ctx, logger, scanned[start:end], opts.SampleSize, processed)
		if err != nil {
			if ctx.Err() != nil {
				logger.WarnContext(ctx, "indexing cancelled", "indexed", result.Indexed, "remaining", result.Total-processed)
				return result, ctx.Err()
			}
			// The batch was rolled back, so its documents count as failed.
			result.Failed += end - start
			p.finishRun(ctx, logger, &result)
			return result, err
		}

		processed += end - start
		result.Indexed += committed
		result.Failed += failed
		result.Batches++

		logger.InfoContext(ctx, "committed batch",
			"batch", result.Batches,
			"committed", committed,
			"processed", processed,
			"total", result.Total,
		)

		if opts.OnBatch != nil {
			opts.OnBatch(BatchProgress{
				Batch:     result.Batches,
				Committed: committed,
				Processed: processed,
				Total:     result.Total,
			})
		}
	}

	p.finishRun(ctx, logger, &result)

	if count, err := p.docs.Count(ctx); err == nil {
		p.metrics.SetDocumentCount(count)
	}

	logger.InfoContext(ctx, "indexing completed",
		"run_id", result.RunID,
		"total_files", result.Total,
		"indexed", result.Indexed,
		"failed", result.Failed,
		"batches", result.Batches,
	)

	return result, nil
}

// indexBatch reads and inserts files in one transaction. It returns the
// number of committed and skipped documents. A non-nil error means nothing
// from this batch was committed.
func (p *Pipeline) indexBatch(ctx context.Context, logger *slog.Logger, files []corpus.ScannedFile, sampleSize, offset int) (int, int, error) {
	started := time.Now()

	batch, err := p.docs.BeginBatch(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin batch: %w", err)
	}
	defer func() {
		_ = batch.Rollback()
	}()

	failed := 0
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		if err := p.indexFile(ctx, batch, file, sampleSize); err != nil {
			failed++
			logger.WarnContext(ctx, "skipping document", "path", file.Path, "error", err)
		}

		if n := offset + i + 1; n%progressEvery == 0 {
			logger.InfoContext(ctx, "indexing progress", "processed", n)
		}
	}

	committed := batch.Len()
	if err := batch.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	p.metrics.RecordBatch(committed, failed, time.Since(started))
	return committed, failed, nil
}

func (p *Pipeline) indexFile(ctx context.Context, batch *storage.Batch, file corpus.ScannedFile, sampleSize int) error {
	sample, err := corpus.ReadSample(file.Path, sampleSize)
	if err != nil {
		return err
	}

	doc := &storage.Document{
		Filename: file.Filename,
		Filepath: file.Path,
		Content:  sample,
	}
	if _, err := batch.Insert(ctx, doc); err != nil {
		return err
	}
	return nil
}

// finishRun records the run outcome. Cancelled runs are left unfinished.
func (p *Pipeline) finishRun(ctx context.Context, logger *slog.Logger, result *Result) {
	if err := p.runs.Finish(ctx, result.RunID, result.Indexed, result.Failed); err != nil {
		logger.WarnContext(ctx, "failed to record run outcome", "run_id", result.RunID, "error", err)
	}
}
