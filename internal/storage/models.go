package storage

import "time"

// Document is one indexed file.
type Document struct {
	ID       int64  // Assigned on insert, never changes
	Filename string // Base name of the file
	Filepath string // Path used to reload the live file
	Content  string // Indexed sample; used for matching only, never for display
}

// Match is a document returned by a full-text query.
type Match struct {
	Document
	// Rank is the FTS5 rank of the row. Lower sorts first; the value is an
	// ordering key, not a normalized score.
	Rank float64
}

// IndexRun records one pass of the batch indexer.
type IndexRun struct {
	ID         string // UUID
	Root       string
	StartedAt  time.Time
	FinishedAt *time.Time // nil while running or if the run was interrupted
	Indexed    int
	Failed     int
}

// SampleStats summarizes the stored samples.
type SampleStats struct {
	Documents   int
	SampleBytes int64
	// AtCap counts samples that filled the configured sample size, meaning
	// the rest of those files is not searchable.
	AtCap int
}
