package ps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nickyhof/LineDB/core"
)

func TestMemoryGitStore(t *testing.T) {
	ctx := context.Background()
	identity := core.Identity{Name: "test", Email: "test@test.com"}
	store, err := NewMemoryGitStore("zoo.json", Options{Identity: identity})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before first save, got %v", err)
	}
	history, err := store.History(ctx)
	if err != nil || len(history) != 0 {
		t.Fatalf("Expected empty history, got %v (%v)", history, err)
	}

	snapshot := testSnapshot()
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	snapshot.Tables = snapshot.Tables[:1]
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if len(got.Tables) != 1 {
		t.Errorf("Expected 1 table after second save, got %d", len(got.Tables))
	}

	history, err = store.History(ctx)
	if err != nil {
		t.Fatalf("Failed to read history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(history))
	}
	if history[0].Author != "test <test@test.com>" {
		t.Errorf("Expected author 'test <test@test.com>', got %q", history[0].Author)
	}
	if !strings.Contains(history[0].Message, "1 table(s)") {
		t.Errorf("Expected newest commit first, got message %q", history[0].Message)
	}
	if latest := store.LatestTransaction(); latest.Id != history[0].Id {
		t.Errorf("Expected latest %s, got %s", history[0].Id, latest.Id)
	}
}

func TestGitStoreSkipsUnchangedSave(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryGitStore("zoo.json", Options{})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.Save(ctx, testSnapshot()); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
	}

	history, err := store.History(ctx)
	if err != nil {
		t.Fatalf("Failed to read history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("Expected 1 transaction for identical saves, got %d", len(history))
	}
	if history[0].Author != "linedb <linedb@localhost>" {
		t.Errorf("Expected default author, got %q", history[0].Author)
	}
}

func TestGitStoreOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "repo")

	store, err := OpenStore("git://"+filepath.Join(dir, "zoo.bson"), Options{})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := store.Save(ctx, testSnapshot()); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "zoo.bson")); err != nil {
		t.Errorf("Expected checked out file: %v", err)
	}

	reopened, err := NewGitStore(dir, "zoo.bson", Options{})
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if got.Name != "zoo" || len(got.Tables) != 2 {
		t.Errorf("Unexpected snapshot %+v", got)
	}
}

func TestSplitGitLocation(t *testing.T) {
	dir, file, err := splitGitLocation("git:///srv/linedb/zoo.json")
	if err != nil {
		t.Fatalf("Failed to split: %v", err)
	}
	if dir != "/srv/linedb" || file != "zoo.json" {
		t.Errorf("Expected /srv/linedb zoo.json, got %s %s", dir, file)
	}

	dir, file, err = splitGitLocation("git://zoo.json")
	if err != nil {
		t.Fatalf("Failed to split: %v", err)
	}
	if dir != "." || file != "zoo.json" {
		t.Errorf("Expected . zoo.json, got %s %s", dir, file)
	}
}
