package storage

import (
	"context"
	"errors"
	"testing"
)

func insertDocs(t *testing.T, repo *DocumentRepo, docs ...*Document) {
	t.Helper()
	for _, doc := range docs {
		if _, err := repo.Insert(context.Background(), doc); err != nil {
			t.Fatalf("Insert(%s) error = %v", doc.Filepath, err)
		}
	}
}

func TestDocumentRepo_InsertAndMatch(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	a := &Document{Filename: "a.txt", Filepath: "/corpus/a.txt", Content: "Clinton flew to Paris"}
	b := &Document{Filename: "b.txt", Filepath: "/corpus/b.txt", Content: "Paris is lovely"}
	insertDocs(t, repo, a, b)

	if a.ID == 0 || b.ID == 0 || a.ID == b.ID {
		t.Fatalf("Insert() ids = %d, %d, want distinct non-zero", a.ID, b.ID)
	}

	tests := []struct {
		name    string
		expr    string
		wantIDs map[int64]bool
	}{
		{
			name:    "single term matches both",
			expr:    "content:Paris",
			wantIDs: map[int64]bool{a.ID: true, b.ID: true},
		},
		{
			name:    "phrase matches one",
			expr:    `content:"Clinton flew"`,
			wantIDs: map[int64]bool{a.ID: true},
		},
		{
			name:    "filename column",
			expr:    `filename:"b.txt"`,
			wantIDs: map[int64]bool{b.ID: true},
		},
		{
			name:    "no match",
			expr:    "content:London",
			wantIDs: map[int64]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := repo.Match(ctx, tt.expr, 100)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if len(matches) != len(tt.wantIDs) {
				t.Fatalf("Match() returned %v, want ids %v", matchIDs(matches), tt.wantIDs)
			}
			for _, m := range matches {
				if !tt.wantIDs[m.ID] {
					t.Errorf("Match() returned unexpected id %d", m.ID)
				}
			}
		})
	}
}

func TestDocumentRepo_MatchOrderAndLimit(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	insertDocs(t, repo,
		&Document{Filename: "1.txt", Filepath: "/1.txt", Content: "paris once in a long sentence about many other things entirely"},
		&Document{Filename: "2.txt", Filepath: "/2.txt", Content: "paris paris paris"},
		&Document{Filename: "3.txt", Filepath: "/3.txt", Content: "paris and rome"},
	)

	matches, err := repo.Match(ctx, "content:paris", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("Match() returned %d rows, want 3", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Rank < matches[i-1].Rank {
			t.Errorf("Match() rank not ascending at %d: %v < %v", i, matches[i].Rank, matches[i-1].Rank)
		}
	}
	if matches[0].Filename != "2.txt" {
		t.Errorf("Match() best match = %s, want 2.txt", matches[0].Filename)
	}

	limited, err := repo.Match(ctx, "content:paris", 2)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Match() with limit 2 returned %d rows", len(limited))
	}
}

func TestDocumentRepo_MatchInvalidExpression(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	insertDocs(t, repo, &Document{Filename: "a.txt", Filepath: "/a.txt", Content: "text"})

	for _, expr := range []string{`content:"unterminated`, "nosuchcolumn:text", "content:text AND"} {
		t.Run(expr, func(t *testing.T) {
			_, err := repo.Match(context.Background(), expr, 10)
			if !errors.Is(err, ErrInvalidMatch) {
				t.Errorf("Match(%q) error = %v, want ErrInvalidMatch", expr, err)
			}
		})
	}
}

func TestDocumentRepo_UpdateMirrorsProjection(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	doc := &Document{Filename: "a.txt", Filepath: "/a.txt", Content: "original words"}
	insertDocs(t, repo, doc)

	doc.Content = "replacement text"
	if err := repo.Update(ctx, doc); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	old, err := repo.Match(ctx, "content:original", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(old) != 0 {
		t.Errorf("Match() old content still matches %v", matchIDs(old))
	}

	updated, err := repo.Match(ctx, "content:replacement", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(updated) != 1 || updated[0].ID != doc.ID {
		t.Errorf("Match() new content = %v, want [%d]", matchIDs(updated), doc.ID)
	}

	missing := &Document{ID: doc.ID + 100, Filename: "x", Filepath: "/x"}
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() missing id error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_Delete(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	doc := &Document{Filename: "a.txt", Filepath: "/a.txt", Content: "ephemeral"}
	insertDocs(t, repo, doc)

	if err := repo.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	matches, err := repo.Match(ctx, "content:ephemeral", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Match() after delete = %v, want none", matchIDs(matches))
	}

	if _, err := repo.Get(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_Reindex(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	doc := &Document{Filename: "a.txt", Filepath: "/a.txt", Content: "stable content"}
	insertDocs(t, repo, doc)

	for i := 0; i < 2; i++ {
		if err := repo.Reindex(ctx, doc.ID); err != nil {
			t.Fatalf("Reindex() error = %v", err)
		}
	}

	matches, err := repo.Match(ctx, "content:stable", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("Match() after reindex returned %d rows, want 1", len(matches))
	}

	if err := repo.Reindex(ctx, doc.ID+1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reindex() missing id error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_Reset(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	first := &Document{Filename: "a.txt", Filepath: "/a.txt", Content: "alpha"}
	insertDocs(t, repo, first, &Document{Filename: "b.txt", Filepath: "/b.txt", Content: "beta"})

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after reset = %d, want 0", count)
	}

	matches, err := repo.Match(ctx, "content:alpha", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Match() after reset = %v, want none", matchIDs(matches))
	}

	again := &Document{Filename: "a.txt", Filepath: "/a.txt", Content: "alpha"}
	insertDocs(t, repo, again)
	if again.ID <= first.ID {
		t.Errorf("Insert() after reset id = %d, want > %d", again.ID, first.ID)
	}
}

func TestDocumentRepo_DuplicatePathsAreDistinctRows(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	insertDocs(t, repo,
		&Document{Filename: "a.txt", Filepath: "/a.txt", Content: "twice"},
		&Document{Filename: "a.txt", Filepath: "/a.txt", Content: "twice"},
	)

	matches, err := repo.Match(ctx, "content:twice", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Match() returned %d rows, want 2", len(matches))
	}
}

func TestBatch_CommitAndRollback(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	batch, err := repo.BeginBatch(ctx)
	if err != nil {
		t.Fatalf("BeginBatch() error = %v", err)
	}
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		if _, err := batch.Insert(ctx, &Document{Filename: name, Filepath: "/" + name, Content: "batched"}); err != nil {
			t.Fatalf("Batch.Insert() error = %v", err)
		}
	}
	if batch.Len() != 3 {
		t.Errorf("Batch.Len() = %d, want 3", batch.Len())
	}

	// Uncommitted rows are invisible to other connections.
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() before commit = %d, want 0", count)
	}

	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := batch.Rollback(); err != nil {
		t.Errorf("Rollback() after commit error = %v", err)
	}

	matches, err := repo.Match(ctx, "content:batched", 10)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("Match() after commit returned %d rows, want 3", len(matches))
	}

	discarded, err := repo.BeginBatch(ctx)
	if err != nil {
		t.Fatalf("BeginBatch() error = %v", err)
	}
	if _, err := discarded.Insert(ctx, &Document{Filename: "d.txt", Filepath: "/d.txt", Content: "discarded"}); err != nil {
		t.Fatalf("Batch.Insert() error = %v", err)
	}
	if err := discarded.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() after rollback = %d, want 3", count)
	}
	if _, err := discarded.Insert(ctx, &Document{Filename: "e.txt"}); err == nil {
		t.Error("Batch.Insert() after rollback should fail")
	}
}

func TestDocumentRepo_SampleStats(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))

	insertDocs(t, repo,
		&Document{Filename: "a.txt", Filepath: "/a.txt", Content: "0123456789"},
		&Document{Filename: "b.txt", Filepath: "/b.txt", Content: "01234"},
	)

	stats, err := repo.SampleStats(context.Background(), 10)
	if err != nil {
		t.Fatalf("SampleStats() error = %v", err)
	}
	if stats.Documents != 2 {
		t.Errorf("SampleStats().Documents = %d, want 2", stats.Documents)
	}
	if stats.SampleBytes != 15 {
		t.Errorf("SampleStats().SampleBytes = %d, want 15", stats.SampleBytes)
	}
	if stats.AtCap != 1 {
		t.Errorf("SampleStats().AtCap = %d, want 1", stats.AtCap)
	}
}

func TestDocumentRepo_HasPath(t *testing.T) {
	repo := NewDocumentRepo(openTestDB(t))
	ctx := context.Background()

	insertDocs(t, repo, &Document{Filename: "a.txt", Filepath: "/corpus/001/a.txt", Content: "x"})

	var store DocumentStore = repo

	tests := []struct {
		path string
		want bool
	}{
		{path: "/corpus/001/a.txt", want: true},
		{path: "corpus/001/a.txt", want: false},
		{path: "/corpus/001/b.txt", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := store.HasPath(ctx, tt.path)
			if err != nil {
				t.Fatalf("HasPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HasPath(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
