package jobstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultsToHome(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	defer func() {
		os.Setenv("HOME", originalHome)
	}()
	os.Setenv("HOME", tmpDir)

	store, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	expectedDir := filepath.Join(tmpDir, ".sensclip", "jobs")
	if store.Dir() != expectedDir {
		t.Errorf("New() dir = %v, want %v", store.Dir(), expectedDir)
	}
	info, err := os.Stat(expectedDir)
	if err != nil {
		t.Fatalf("job directory was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != StoreDirPerm {
		t.Errorf("job directory perm = %o, want %o", perm, StoreDirPerm)
	}
}

func TestSaveLoadDelete(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	rec := Record{Key: "SensitiveClipboard_ClearClipboard", RunID: "run-1", Due: 1700000030, Created: 1700000000}
	if err := store.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	path := filepath.Join(store.Dir(), rec.Key+".json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("record file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != StoreFilePerm {
		t.Errorf("record file perm = %o, want %o", perm, StoreFilePerm)
	}

	got, err := store.Load(rec.Key)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != rec {
		t.Errorf("Load() = %+v, want %+v", got, rec)
	}
	if got.DueTime().Unix() != rec.Due {
		t.Errorf("DueTime() = %v, want unix %d", got.DueTime(), rec.Due)
	}

	// Saving again under the same key replaces the record.
	rec.RunID = "run-2"
	if err := store.Save(rec); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	got, _ = store.Load(rec.Key)
	if got.RunID != "run-2" {
		t.Errorf("Load() RunID = %q, want run-2", got.RunID)
	}

	if err := store.Delete(rec.Key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(rec.Key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() after Delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(rec.Key); err != nil {
		t.Errorf("Delete() of missing record error = %v, want nil", err)
	}
}

func TestLoadRejectsMismatchedKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	content := `{"key":"other","run_id":"x","due":1,"created":1}`
	if err := os.WriteFile(filepath.Join(store.Dir(), "job.json"), []byte(content), StoreFilePerm); err != nil {
		t.Fatalf("failed to write record: %v", err)
	}

	if _, err := store.Load("job"); err == nil {
		t.Error("Load() with mismatched key error = nil, want error")
	}
}

func TestListSortsByDue(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, rec := range []Record{
		{Key: "late", Due: 300},
		{Key: "early", Due: 100},
		{Key: "middle", Due: 200},
	} {
		if err := store.Save(rec); err != nil {
			t.Fatalf("Save(%s) error = %v", rec.Key, err)
		}
	}
	// Garbage next to the records is skipped.
	_ = os.WriteFile(filepath.Join(store.Dir(), "broken.json"), []byte("{"), StoreFilePerm)
	_ = os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("hi"), StoreFilePerm)

	records, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"early", "middle", "late"}
	if len(records) != len(want) {
		t.Fatalf("List() returned %d records, want %d", len(records), len(want))
	}
	for i, key := range want {
		if records[i].Key != key {
			t.Errorf("List()[%d].Key = %q, want %q", i, records[i].Key, key)
		}
	}
}

func TestIsValidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "clear job key", key: "SensitiveClipboard_ClearClipboard", want: true},
		{name: "dots and dashes", key: "job-1.v2", want: true},
		{name: "empty", key: "", want: false},
		{name: "dot", key: ".", want: false},
		{name: "dot dot", key: "..", want: false},
		{name: "path traversal", key: "../etc/passwd", want: false},
		{name: "separator", key: "a/b", want: false},
		{name: "space", key: "a b", want: false},
		{name: "too long", key: string(make([]byte, MaxKeyLength+1)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidKey(tt.key); got != tt.want {
				t.Errorf("IsValidKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSaveRejectsInvalidKey(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.Save(Record{Key: "../escape"}); err == nil {
		t.Error("Save() with traversal key error = nil, want error")
	}
}
