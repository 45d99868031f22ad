package LineDB

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/nickyhof/LineDB/core"
	"github.com/nickyhof/LineDB/db"
	"github.com/nickyhof/LineDB/ps"
)

// TestFunc is the signature for test functions that work with any store
type TestFunc func(t *testing.T, database *db.Database, reopen func() *db.Database)

// runWithEveryStore runs a test function over memory, file and git backed
// databases. reopen saves the database last returned by reopen (the original
// one at first) and loads it back from its store.
func runWithEveryStore(t *testing.T, testFunc TestFunc) {
	ctx := context.Background()
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	t.Run("Memory", func(t *testing.T) {
		database := OpenMemory()
		testFunc(t, database, func() *db.Database { return database })
	})

	for _, name := range []string{"zoo.json", "zoo.bson"} {
		t.Run("File/"+name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			database, err := Open(ctx, path)
			if err != nil {
				t.Fatalf("Failed to open database: %v", err)
			}
			current := database
			testFunc(t, database, func() *db.Database {
				if err := current.Save(ctx); err != nil {
					t.Fatalf("Failed to save: %v", err)
				}
				reopened, err := db.Open(ctx, path)
				if err != nil {
					t.Fatalf("Failed to reopen: %v", err)
				}
				current = reopened
				return reopened
			})
		})
	}

	t.Run("Git", func(t *testing.T) {
		store, err := ps.NewMemoryGitStore("zoo.json", ps.Options{Identity: identity})
		if err != nil {
			t.Fatalf("Failed to create git store: %v", err)
		}
		database := OpenMemory(db.WithStore(store))
		current := database
		testFunc(t, database, func() *db.Database {
			if err := current.Save(ctx); err != nil {
				t.Fatalf("Failed to save: %v", err)
			}
			reopened, err := db.Open(ctx, "", db.WithStore(store))
			if err != nil {
				t.Fatalf("Failed to reopen: %v", err)
			}
			current = reopened
			return reopened
		})
	})
}

func mustQuery(t *testing.T, database *db.Database, query string) db.Result {
	t.Helper()
	result := database.Query(query)
	if result.Status != db.OK {
		t.Fatalf("Failed to execute %q: %s", query, result.Report)
	}
	return result
}

func TestIntegrationWorkflow(t *testing.T) {
	runWithEveryStore(t, func(t *testing.T, database *db.Database, reopen func() *db.Database) {
		mustQuery(t, database, "create table cats (INT id NOT NULL, STR name, STR breed)")
		mustQuery(t, database, "create table dogs (INT id NOT NULL, STR name, DATE birthday)")

		mustQuery(t, database, "insert into cats (id, name, breed) values (1, Tom, Persian)")
		mustQuery(t, database, "insert into cats (id) values(2)")
		mustQuery(t, database, "insert into cats (id, name) values (3, 'Felix')")
		mustQuery(t, database, "insert into dogs (id, name, birthday) values (1, Rex, 1-2-2010)")
		mustQuery(t, database, "insert into dogs (id, name) values (2, Fido)")

		database = reopen()

		if got := len(mustQuery(t, database, "list tables").Rows); got != 2 {
			t.Fatalf("Expected 2 tables, got %d", got)
		}
		if got := len(mustQuery(t, database, "cartesian product cats by dogs").Rows); got != 6 {
			t.Errorf("Expected 6 rows, got %d", got)
		}

		mustQuery(t, database, "update cats set breed=Tabby where name=Felix")
		mustQuery(t, database, "delete from dogs where id=2")

		database = reopen()

		rows := mustQuery(t, database, "select breed from cats where id=3").Rows
		if len(rows) != 1 || rows[0].Element("breed").Text() != "Tabby" {
			t.Errorf("Expected Felix to be a Tabby, got %v", rows)
		}
		if got := len(mustQuery(t, database, "select * from dogs").Rows); got != 1 {
			t.Errorf("Expected 1 dog, got %d", got)
		}
		rows = mustQuery(t, database, "select name from cats where id=2").Rows
		if len(rows) != 1 || !rows[0].Element("name").IsNull() {
			t.Errorf("Expected a null name to survive, got %v", rows)
		}
	})
}

func TestIntegrationRepeatedReopen(t *testing.T) {
	runWithEveryStore(t, func(t *testing.T, database *db.Database, reopen func() *db.Database) {
		mustQuery(t, database, "create table visits (INT id)")
		for i := 1; i <= 3; i++ {
			mustQuery(t, database, fmt.Sprintf("insert into visits (id) values (%d)", i))
			database = reopen()
			if got := len(mustQuery(t, database, "select * from visits").Rows); got != i {
				t.Fatalf("Expected %d visits after reopen %d, got %d", i, i, got)
			}
		}
	})
}

func TestIntegrationErrorHandling(t *testing.T) {
	runWithEveryStore(t, func(t *testing.T, database *db.Database, reopen func() *db.Database) {
		mustQuery(t, database, "CREATE TABLE trips (INT id, DATE_RANGE span)")

		tests := []struct {
			query string
			kind  core.ErrorKind
		}{
			{"SELECT * FROM nowhere", core.SchemaError},
			{"SELECT FROM trips", core.ParseError},
			{"INSERT INTO trips (id, span) VALUES (1, 02-01-2011...01-01-2011)", core.ValidationError},
			{"INSERT INTO trips (id) VALUES (1, 2)", core.PreconditionError},
			{"CARTESIAN PRODUCT trips BY trips", core.PreconditionError},
		}
		for _, tt := range tests {
			result := database.Query(tt.query)
			if result.Status != db.FAIL {
				t.Errorf("Expected %q to fail", tt.query)
				continue
			}
			if kind, _ := core.KindOf(result.Err); kind != tt.kind {
				t.Errorf("Expected %s for %q, got %s", tt.kind, tt.query, kind)
			}
		}

		database = reopen()
		if got := len(mustQuery(t, database, "SELECT * FROM trips").Rows); got != 0 {
			t.Errorf("Expected failed queries to leave no rows, got %d", got)
		}
	})
}

func TestOpenSavedDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "zoo.json")

	good := OpenMemory()
	good.SetFilePath(path)
	mustQuery(t, good, "CREATE TABLE cats (INT id)")
	if err := good.Save(ctx); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	database, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	if got := database.Tables(); len(got) != 1 || got[0] != "cats" {
		t.Errorf("Expected [cats], got %v", got)
	}
}

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{true, false} {
		logger, err := NewLogger(debug)
		if err != nil {
			t.Fatalf("Failed to build logger (debug=%v): %v", debug, err)
		}
		logger.Debug("test")
	}
}
