package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestRunRepo_Lifecycle(t *testing.T) {
	repo := NewRunRepo(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest() on empty ledger error = %v, want ErrNotFound", err)
	}

	first, err := repo.Start(ctx, "/corpus/one")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := uuid.Parse(first.ID); err != nil {
		t.Errorf("Start() id %q is not a UUID: %v", first.ID, err)
	}

	second, err := repo.Start(ctx, "/corpus/two")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Latest() id = %s, want %s", latest.ID, second.ID)
	}
	if latest.FinishedAt != nil {
		t.Error("Latest() unfinished run should have nil FinishedAt")
	}

	if err := repo.Finish(ctx, second.ID, 42, 3); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	latest, err = repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.FinishedAt == nil {
		t.Fatal("Latest() finished run should have FinishedAt")
	}
	if latest.Indexed != 42 || latest.Failed != 3 {
		t.Errorf("Latest() counts = %d/%d, want 42/3", latest.Indexed, latest.Failed)
	}
	if latest.Root != "/corpus/two" {
		t.Errorf("Latest() root = %s, want /corpus/two", latest.Root)
	}
	if latest.FinishedAt.Before(latest.StartedAt) {
		t.Error("Latest() FinishedAt before StartedAt")
	}

	if err := repo.Finish(ctx, "missing", 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish() unknown id error = %v, want ErrNotFound", err)
	}
}
