package ps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nickyhof/LineDB/core"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Name: "zoo",
		Tables: []TableSnapshot{
			{
				Name: "cats",
				Columns: []core.Column{
					{Name: "id", Type: core.IntType},
					{Name: "name", Type: core.StringType, Nullable: true},
					{Name: "seen", Type: core.DateRangeType, Nullable: true},
				},
				Rows: [][]*string{
					{core.Text("1"), core.Text("Tom"), core.Text("01-01-2011...02-01-2011")},
					{core.Text("2"), nil, nil},
				},
			},
			{
				Name:    "empty",
				Columns: []core.Column{{Name: "c", Type: core.CharType}},
				Rows:    [][]*string{},
			},
		},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	for _, codec := range []Codec{JSONCodec{}, BSONCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			want := testSnapshot()

			data, err := codec.Marshal(want)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}
			got, err := codec.Unmarshal(data)
			if err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if got.Name != want.Name || len(got.Tables) != len(want.Tables) {
				t.Fatalf("Expected %+v, got %+v", want, got)
			}
			cats, ok := got.Table("cats")
			if !ok {
				t.Fatal("Expected table cats")
			}
			if !reflect.DeepEqual(cats.Columns, want.Tables[0].Columns) {
				t.Errorf("Expected columns %v, got %v", want.Tables[0].Columns, cats.Columns)
			}
			if !reflect.DeepEqual(cats.Rows, want.Tables[0].Rows) {
				t.Errorf("Expected rows %v, got %v", want.Tables[0].Rows, cats.Rows)
			}
			if cats.Rows[1][1] != nil {
				t.Errorf("Expected null to survive, got %q", *cats.Rows[1][1])
			}
		})
	}
}

func TestJSONCodecColumnTypesAsNames(t *testing.T) {
	data, err := JSONCodec{}.Marshal(testSnapshot())
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if !strings.Contains(string(data), `"type": "DATE_RANGE"`) {
		t.Errorf("Expected column types written by name, got %s", data)
	}
}

func TestJSONCodecRejectsUnknownType(t *testing.T) {
	_, err := JSONCodec{}.Unmarshal([]byte(`{"name":"x","tables":[{"name":"t","columns":[{"name":"a","type":"BLOB"}]}]}`))
	if err == nil {
		t.Fatal("Expected error for unknown column type")
	}
}

func TestCodecFor(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"zoo.json", "json"},
		{"zoo", "json"},
		{"/data/zoo.bson", "bson"},
		{"ZOO.BSON", "bson"},
		{"s3://bucket/dbs/zoo.bson", "bson"},
		{"https://example.com/zoo.bson?sig=abc", "bson"},
	}
	for _, tt := range tests {
		if got := CodecFor(tt.location).Name(); got != tt.want {
			t.Errorf("CodecFor(%q) = %s, expected %s", tt.location, got, tt.want)
		}
	}
}

func TestFileStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"zoo.json", "zoo.bson"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			store := NewFileStore(path, Options{})

			if err := store.Save(ctx, testSnapshot()); err != nil {
				t.Fatalf("Failed to save: %v", err)
			}
			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Failed to load: %v", err)
			}
			if !reflect.DeepEqual(got.Tables[0].Rows, testSnapshot().Tables[0].Rows) {
				t.Errorf("Rows changed across save/load: %v", got.Tables[0].Rows)
			}

			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatalf("Failed to list dir: %v", err)
			}
			for _, entry := range entries {
				if filepath.Ext(entry.Name()) == ".tmp" {
					t.Errorf("Temporary file %s left behind", entry.Name())
				}
			}
		})
	}
}

func TestFileStoreMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent", "zoo.json"), Options{})
	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoo.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	_, err := NewFileStore(path, Options{}).Load(context.Background())
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected decode error, got %v", err)
	}
}

func TestFileStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewFileStore(filepath.Join(t.TempDir(), "zoo.json"), Options{})
	if err := store.Save(ctx, testSnapshot()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestHTTPStore(t *testing.T) {
	data, err := JSONCodec{}.Marshal(testSnapshot())
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/zoo.json" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer server.Close()

	ctx := context.Background()
	store := NewHTTPStore(server.URL+"/zoo.json", Options{})
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if got.Name != "zoo" {
		t.Errorf("Expected name zoo, got %s", got.Name)
	}

	if err := store.Save(ctx, got); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Expected ErrReadOnly, got %v", err)
	}

	_, err = NewHTTPStore(server.URL+"/other.json", Options{}).Load(ctx)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		location string
		want     string
	}{
		{filepath.Join(dir, "a.json"), "*ps.FileStore"},
		{"file://" + filepath.Join(dir, "b.json"), "*ps.FileStore"},
		{"git://" + filepath.Join(dir, "repo", "c.json"), "*ps.GitStore"},
		{"s3://bucket/key.json", "*ps.S3Store"},
		{"https://example.com/d.json", "*ps.HTTPStore"},
	}
	for _, tt := range tests {
		store, err := OpenStore(tt.location, Options{})
		if err != nil {
			t.Fatalf("OpenStore(%q) failed: %v", tt.location, err)
		}
		if got := reflect.TypeOf(store).String(); got != tt.want {
			t.Errorf("OpenStore(%q) = %s, expected %s", tt.location, got, tt.want)
		}
	}

	if _, err := OpenStore("", Options{}); err == nil {
		t.Error("Expected error for empty location")
	}
	if _, err := OpenStore("s3://bucket", Options{}); err == nil {
		t.Error("Expected error for S3 URL without key")
	}
	if _, err := OpenStore("git://"+dir+"/", Options{}); err == nil {
		t.Error("Expected error for git location without file")
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://my-bucket/dbs/zoo.json")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if bucket != "my-bucket" || key != "dbs/zoo.json" {
		t.Errorf("Expected my-bucket dbs/zoo.json, got %s %s", bucket, key)
	}
}
