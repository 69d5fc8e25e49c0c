package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSnapshotRepo_LoadMissingFile(t *testing.T) {
	repo := NewFileSnapshotRepo(filepath.Join(t.TempDir(), "registrations.json"))

	blob, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if blob != nil {
		t.Errorf("Load() = %q, want nil for missing file", blob)
	}
}

func TestFileSnapshotRepo_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registrations.json")
	repo := NewFileSnapshotRepo(path)
	ctx := context.Background()

	want := []byte(`{"schema_version":1,"registrations":{}}`)
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Load() = %q, want %q", got, want)
	}
}

func TestFileSnapshotRepo_SaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "registrations.json")
	repo := NewFileSnapshotRepo(path)

	if err := repo.Save(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot file not created: %v", err)
	}
}

func TestFileSnapshotRepo_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registrations.json")
	repo := NewFileSnapshotRepo(path)
	ctx := context.Background()

	if err := repo.Save(ctx, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if err := repo.Save(ctx, []byte(`{"b":2}`)); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != `{"b":2}` {
		t.Errorf("Load() = %q, want %q", got, `{"b":2}`)
	}
}

func TestFileSnapshotRepo_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileSnapshotRepo(filepath.Join(dir, "registrations.json"))

	if err := repo.Save(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if e.Name() != "registrations.json" {
			t.Errorf("unexpected file left in snapshot dir: %s", e.Name())
		}
	}
}
