package indexer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"textsearch/internal/storage"
)

// IndexingCoverageStats describes how much of the corpus is searchable.
type IndexingCoverageStats struct {
	// Documents is the number of indexed documents.
	Documents int `json:"documents"`
	// SampleSize is the per-document sample size the stats were computed against.
	SampleSize int `json:"sample_size"`
	// SampleBytes is the total size of all stored samples.
	SampleBytes int64 `json:"sample_bytes"`
	// AvgSampleBytes is the mean stored sample size.
	AvgSampleBytes float64 `json:"avg_sample_bytes"`
	// Truncated is the number of documents whose sample filled SampleSize.
	// Text past the sample of these documents cannot be matched.
	Truncated int `json:"truncated"`
	// TruncatedPercent is Truncated as a share of Documents.
	TruncatedPercent float64 `json:"truncated_percent"`
	// LatestRun is the most recent indexing run, if any.
	LatestRun *RunSummary `json:"latest_run,omitempty"`
}

// RunSummary is the JSON view of an index run.
type RunSummary struct {
	ID         string `json:"id"`
	Root       string `json:"root"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Indexed    int    `json:"indexed"`
	Failed     int    `json:"failed"`
}

// GetIndexingCoverageStats computes coverage statistics from the store.
func (p *Pipeline) GetIndexingCoverageStats(ctx context.Context, sampleSize int) (*IndexingCoverageStats, error) {
	if sampleSize <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", sampleSize)
	}

	sample, err := p.docs.SampleStats(ctx, sampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get sample stats: %w", err)
	}

	stats := &IndexingCoverageStats{
		Documents:   sample.Documents,
		SampleSize:  sampleSize,
		SampleBytes: sample.SampleBytes,
		Truncated:   sample.AtCap,
	}

	if sample.Documents > 0 {
		stats.AvgSampleBytes = round2(float64(sample.SampleBytes) / float64(sample.Documents))
		stats.TruncatedPercent = round2(100 * float64(sample.AtCap) / float64(sample.Documents))
	}

	run, err := p.runs.Latest(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	default:
		stats.LatestRun = summarizeRun(run)
	}

	return stats, nil
}

func summarizeRun(run *storage.IndexRun) *RunSummary {
	s := &RunSummary{
		ID:        run.ID,
		Root:      run.Root,
		StartedAt: run.StartedAt.Format(time.RFC3339),
		Indexed:   run.Indexed,
		Failed:    run.Failed,
	}
	if run.FinishedAt != nil {
		s.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return s
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
