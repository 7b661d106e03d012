package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"textsearch/internal/corpus"
	"textsearch/internal/metrics"
	"textsearch/internal/storage"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type testEnv struct {
	pipeline *Pipeline
	docs     *storage.DocumentRepo
	runs     *storage.RunRepo
	metrics  *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}

	env := &testEnv{
		docs:    storage.NewDocumentRepo(db),
		runs:    storage.NewRunRepo(db),
		metrics: metrics.New(),
	}
	env.pipeline = NewPipeline(env.docs, env.runs, corpus.NewScanner(".txt"), env.metrics)
	return env
}

// writeCorpus creates n documents under a fresh directory, spread across
// numbered subdirectories.
func writeCorpus(t *testing.T, n int) string {
	t.Helper()

	root := t.TempDir()
	for i := 0; i < n; i++ {
		dir := filepath.Join(root, corpus.FormatDirToken(i%3+1))
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		content := fmt.Sprintf("document number %d marker%d", i, i)
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("doc%04d.txt", i)), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
	return root
}

func countDocs(t *testing.T, docs *storage.DocumentRepo) int {
	t.Helper()
	n, err := docs.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	return n
}

func TestPipeline_IndexAll_Batches(t *testing.T) {
	env := newTestEnv(t)
	root := writeCorpus(t, 250)

	var progress []BatchProgress
	result, err := env.pipeline.IndexAll(context.Background(), root, Options{
		BatchSize: 100,
		OnBatch: func(p BatchProgress) {
			progress = append(progress, p)
		},
	})
	if err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}

	if result.Total != 250 || result.Indexed != 250 || result.Failed != 0 {
		t.Errorf("IndexAll() result = %+v, want 250 total, 250 indexed, 0 failed", result)
	}
	if result.Batches != 3 {
		t.Errorf("IndexAll() batches = %d, want 3", result.Batches)
	}
	if result.RunID == "" {
		t.Error("IndexAll() RunID should not be empty")
	}

	wantCommitted := []int{100, 100, 50}
	if len(progress) != len(wantCommitted) {
		t.Fatalf("OnBatch called %d times, want %d", len(progress), len(wantCommitted))
	}
	for i, p := range progress {
		if p.Batch != i+1 || p.Committed != wantCommitted[i] || p.Total != 250 {
			t.Errorf("OnBatch[%d] = %+v", i, p)
		}
	}
	if progress[2].Processed != 250 {
		t.Errorf("final Processed = %d, want 250", progress[2].Processed)
	}

	if got := countDocs(t, env.docs); got != 250 {
		t.Errorf("Count() = %d, want 250", got)
	}

	matches, err := env.docs.Match(context.Background(), "marker137", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Filename != "doc0137.txt" {
		t.Errorf("Match(marker137) = %+v, want doc0137.txt", matches)
	}
	if !filepath.IsAbs(matches[0].Filepath) {
		t.Errorf("stored path %s is not absolute", matches[0].Filepath)
	}

	if got := testutil.ToFloat64(env.metrics.IndexBatchesTotal); got != 3 {
		t.Errorf("batches metric = %v, want 3", got)
	}
	if got := testutil.ToFloat64(env.metrics.DocumentsTotal); got != 250 {
		t.Errorf("documents gauge = %v, want 250", got)
	}

	run, err := env.runs.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if run.ID != result.RunID || run.FinishedAt == nil || run.Indexed != 250 {
		t.Errorf("Latest() = %+v, want finished run %s with 250 indexed", run, result.RunID)
	}
}

func TestPipeline_IndexAll_CancelAfterCommit(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		cancelAfter int
		want        int
	}{
		{name: "after first batch", total: 250, cancelAfter: 1, want: 100},
		{name: "after second batch", total: 250, cancelAfter: 2, want: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			root := writeCorpus(t, tt.total)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			result, err := env.pipeline.IndexAll(ctx, root, Options{
				BatchSize: 100,
				OnBatch: func(p BatchProgress) {
					if p.Batch == tt.cancelAfter {
						cancel()
					}
				},
			})
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("IndexAll() error = %v, want context.Canceled", err)
			}
			if result.Indexed != tt.want || result.Batches != tt.cancelAfter {
				t.Errorf("IndexAll() result = %+v, want %d indexed in %d batches", result, tt.want, tt.cancelAfter)
			}

			if got := countDocs(t, env.docs); got != tt.want {
				t.Errorf("Count() after cancel = %d, want %d", got, tt.want)
			}

			matches, err := env.docs.Match(context.Background(), "document", 1000)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if len(matches) != tt.want {
				t.Errorf("Match() after cancel = %d rows, want %d", len(matches), tt.want)
			}

			run, err := env.runs.Latest(context.Background())
			if err != nil {
				t.Fatalf("Latest() error = %v", err)
			}
			if run.FinishedAt != nil {
				t.Error("cancelled run should be left unfinished")
			}
		})
	}
}

func TestPipeline_IndexAll_SkipsUnreadable(t *testing.T) {
	env := newTestEnv(t)
	root := writeCorpus(t, 5)

	// A dangling symlink is listed by the walk but cannot be opened.
	if err := os.Symlink(filepath.Join(root, "missing-target"), filepath.Join(root, "broken.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	result, err := env.pipeline.IndexAll(context.Background(), root, Options{BatchSize: 2})
	if err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}

	if result.Total != 6 || result.Indexed != 5 || result.Failed != 1 {
		t.Errorf("IndexAll() result = %+v, want 6 total, 5 indexed, 1 failed", result)
	}
	if got := countDocs(t, env.docs); got != 5 {
		t.Errorf("Count() = %d, want 5", got)
	}
}

func TestPipeline_IndexAll_RebuildVersusAppend(t *testing.T) {
	env := newTestEnv(t)
	root := writeCorpus(t, 7)
	ctx := context.Background()

	if _, err := env.pipeline.IndexAll(ctx, root, Options{}); err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}
	if _, err := env.pipeline.IndexAll(ctx, root, Options{}); err != nil {
		t.Fatalf("IndexAll() append error = %v", err)
	}
	if got := countDocs(t, env.docs); got != 14 {
		t.Errorf("Count() after append = %d, want 14", got)
	}

	if _, err := env.pipeline.IndexAll(ctx, root, Options{Rebuild: true}); err != nil {
		t.Fatalf("IndexAll() rebuild error = %v", err)
	}
	if got := countDocs(t, env.docs); got != 7 {
		t.Errorf("Count() after rebuild = %d, want 7", got)
	}

	matches, err := env.docs.Match(ctx, "marker3", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("Match() after rebuild = %d rows, want 1", len(matches))
	}
}

func TestPipeline_IndexAll_SampleSize(t *testing.T) {
	env := newTestEnv(t)
	root := t.TempDir()

	content := "head " + strings.Repeat("x", 100) + " tailword"
	if err := os.WriteFile(filepath.Join(root, "long.txt"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	if _, err := env.pipeline.IndexAll(context.Background(), root, Options{SampleSize: 20}); err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}

	matches, err := env.docs.Match(context.Background(), "head", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Match(head) = %d rows, want 1", len(matches))
	}
	if len(matches[0].Content) != 20 {
		t.Errorf("stored sample length = %d, want 20", len(matches[0].Content))
	}

	// Text past the sample is not searchable.
	matches, err = env.docs.Match(context.Background(), "tailword", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Match(tailword) = %d rows, want 0", len(matches))
	}
}

func TestPipeline_IndexAll_Errors(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.pipeline.IndexAll(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Error("IndexAll() missing root expected error, got nil")
	}

	if _, err := env.runs.Latest(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("failed scan should not record a run, Latest() error = %v", err)
	}
}

func TestPipeline_IndexAll_EmptyRoot(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.pipeline.IndexAll(context.Background(), t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}
	if result.Total != 0 || result.Batches != 0 {
		t.Errorf("IndexAll() empty root result = %+v", result)
	}
}
