package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"textsearch/internal/indexer"
)

// setupEnv points configuration at a fresh database and corpus.
func setupEnv(t *testing.T) (corpusRoot string) {
	t.Helper()

	base := t.TempDir()
	corpusRoot = filepath.Join(base, "TEXT")
	files := map[string]string{
		"001/a.txt":       "Paris was sunny when Clinton arrived",
		"001/b.txt":       "nothing to see here",
		"002/Clinton.txt": "a file named after someone",
		"002/notes.md":    "not indexed",
	}
	for name, content := range files {
		path := filepath.Join(corpusRoot, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	for _, key := range []string{"IMAGE_ROOT", "INDEX_BATCH_SIZE", "INDEX_SAMPLE_SIZE", "SEARCH_LIMIT", "SNIPPET_LENGTH", "API_PORT", "LOG_FORMAT", "CORPUS_EXTENSION"} {
		t.Setenv(key, "")
	}
	t.Setenv("DB_PATH", filepath.Join(base, "data", "index.db"))
	t.Setenv("CORPUS_ROOT", corpusRoot)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("NO_COLOR", "1")
	t.Chdir(base)

	return corpusRoot
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestIndexCommand(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "", "index", "--batch-size", "2")
	if err != nil {
		t.Fatalf("index error = %v", err)
	}
	for _, want := range []string{
		"Committed batch 1/2 (2/3 files)",
		"Committed batch 2/2 (3/3 files)",
		"Indexing complete! Indexed 3 of 3 files.",
		"Database contains 3 indexed files.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Appending the same root again duplicates; --rebuild starts over.
	if _, err := execute(t, "", "index"); err != nil {
		t.Fatalf("second index error = %v", err)
	}
	out, err = execute(t, "", "index", "--rebuild")
	if err != nil {
		t.Fatalf("rebuild error = %v", err)
	}
	if !strings.Contains(out, "Database contains 3 indexed files.") {
		t.Errorf("rebuild should leave 3 documents:\n%s", out)
	}
}

func TestIndexCommand_MissingDir(t *testing.T) {
	root := setupEnv(t)

	if _, err := execute(t, "", "index", filepath.Join(root, "missing")); err == nil {
		t.Error("index of a missing directory expected error, got nil")
	}
}

func TestStatsCommand(t *testing.T) {
	setupEnv(t)

	if _, err := execute(t, "", "index", "--sample-size", "10"); err != nil {
		t.Fatalf("index error = %v", err)
	}

	out, err := execute(t, "", "stats", "--json")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	var stats indexer.IndexingCoverageStats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v\n%s", err, out)
	}
	if stats.Documents != 3 {
		t.Errorf("Documents = %d, want 3", stats.Documents)
	}
	if stats.LatestRun == nil || stats.LatestRun.Indexed != 3 {
		t.Errorf("LatestRun = %+v, want 3 indexed", stats.LatestRun)
	}

	out, err = execute(t, "", "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	if !strings.Contains(out, "Indexed documents:   3") {
		t.Errorf("unexpected stats output:\n%s", out)
	}
}

func TestInteractive(t *testing.T) {
	setupEnv(t)

	if _, err := execute(t, "", "index"); err != nil {
		t.Fatalf("index error = %v", err)
	}

	input := strings.Join([]string{
		"search Paris",
		"filename Clinton",
		"content",
		"quit",
	}, "\n") + "\n"

	out, err := execute(t, input)
	if err != nil {
		t.Fatalf("interactive error = %v", err)
	}
	for _, want := range []string{
		"Database contains 3 indexed files.",
		"Found 1 results for 'Paris':",
		"1. File: a.txt",
		"Found 1 results for 'Clinton':",
		"1. File: Clinton.txt",
		"Error: please provide a search query",
		"Exiting...",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInteractive_UnknownArgument(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "exit\n", "whatever")
	if err != nil {
		t.Fatalf("interactive error = %v", err)
	}
	if !strings.Contains(out, "Text Search Database") {
		t.Errorf("unrecognised argument should start interactive mode:\n%s", out)
	}
}
