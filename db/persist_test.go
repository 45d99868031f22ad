package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nickyhof/LineDB/core"
	"github.com/nickyhof/LineDB/ps"
)

func assertSameContents(t *testing.T, want, got *Database) {
	t.Helper()

	wantTables, gotTables := want.Tables(), got.Tables()
	if len(wantTables) != len(gotTables) {
		t.Fatalf("Expected tables %v, got %v", wantTables, gotTables)
	}
	for i, name := range wantTables {
		if gotTables[i] != name {
			t.Fatalf("Expected table %s, got %s", name, gotTables[i])
		}
		wantTable, _ := want.Table(name)
		gotTable, err := got.Table(name)
		if err != nil {
			t.Fatalf("Failed to get table %s: %v", name, err)
		}

		wantColumns, gotColumns := wantTable.Columns(), gotTable.Columns()
		for j := range wantColumns {
			if wantColumns[j] != gotColumns[j] {
				t.Errorf("Table %s: expected column %v, got %v", name, wantColumns[j], gotColumns[j])
			}
		}

		wantRows, gotRows := wantTable.Rows(), gotTable.Rows()
		if len(wantRows) != len(gotRows) {
			t.Fatalf("Table %s: expected %d rows, got %d", name, len(wantRows), len(gotRows))
		}
		for j := range wantRows {
			if !wantRows[j].Equal(gotRows[j]) {
				t.Errorf("Table %s row %d differs", name, j)
			}
		}
	}
}

func TestSaveOpenRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, name := range []string{"zoo.json", "zoo.bson"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			original := setupTestDatabase(t)
			original.SetFilePath(path)

			if err := original.Save(ctx); err != nil {
				t.Fatalf("Failed to save: %v", err)
			}

			loaded, err := Open(ctx, path)
			if err != nil {
				t.Fatalf("Failed to open: %v", err)
			}
			if loaded.Name() != "zoo" {
				t.Errorf("Expected name zoo, got %s", loaded.Name())
			}
			assertSameContents(t, original, loaded)

			// typed values are restored, not only text
			rows := mustQuery(t, loaded, "SELECT birthday FROM dogs WHERE id=1").Rows
			if d, ok := rows[0].Element("birthday").Value().Date(); !ok || d.Year() != 2015 {
				t.Errorf("Expected parsed birthday, got %v", rows[0].Element("birthday").Value())
			}
		})
	}
}

func TestSaveOpenGitHistory(t *testing.T) {
	ctx := context.Background()
	identity := core.Identity{Name: "test", Email: "test@test.com"}
	store, err := ps.NewMemoryGitStore("zoo.json", ps.Options{Identity: identity})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	d := New("", WithStore(store), WithName("zoo"))
	mustQuery(t, d, "CREATE TABLE cats (INT id)")
	if err := d.Save(ctx); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	mustQuery(t, d, "INSERT INTO cats (id) VALUES (1)")
	if err := d.Save(ctx); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	history, err := d.History(ctx)
	if err != nil {
		t.Fatalf("Failed to read history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected 2 saves, got %d", len(history))
	}

	loaded, err := Open(ctx, "", WithStore(store))
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	assertSameContents(t, d, loaded)
}

func TestHistoryUnsupported(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "zoo.json"))
	if _, err := d.History(context.Background()); err == nil {
		t.Error("Expected error for store without history")
	}
}

func TestSaveUnbound(t *testing.T) {
	if err := New("").Save(context.Background()); err == nil {
		t.Error("Expected error saving an unbound database")
	}
}

func TestOpenRejectsInvalidRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bad.json")
	content := `{"name": "bad", "tables": [{"name": "cats", "columns": [{"name": "id", "type": "INT", "nullable": false}], "rows": [["1"], ["one"]]}]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := Open(ctx, path); err == nil {
		t.Fatal("Expected invalid row to fail the load")
	}

	d, err := OpenOrNew(ctx, path)
	if err == nil {
		t.Fatal("Expected OpenOrNew to report the load error")
	}
	if d == nil || len(d.Tables()) != 0 {
		t.Fatalf("Expected an empty database, got %v", d)
	}
	if d.FilePath() != path {
		t.Errorf("Expected database bound to %s, got %s", path, d.FilePath())
	}
}

func TestOpenFillsMissingValues(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "short.json")
	content := `{"name": "short", "tables": [{"name": "cats", "columns": [{"name": "id", "type": "INT"}, {"name": "name", "type": "STR", "nullable": true}], "rows": [["1"]]}]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	d, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	rows := mustQuery(t, d, "SELECT * FROM cats").Rows
	if rows[0].Len() != 2 || !rows[0].Element("name").IsNull() {
		t.Errorf("Expected missing value loaded as null, got %v", rows[0].Columns())
	}
}

func TestOpenOrNewMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.json")
	d, err := OpenOrNew(context.Background(), path)
	if err != nil {
		t.Fatalf("Expected no error for a missing file, got %v", err)
	}
	if d.Name() != "new" || d.FilePath() != path {
		t.Errorf("Unexpected database %s at %s", d.Name(), d.FilePath())
	}
}
