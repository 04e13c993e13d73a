package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hospscan/hospscan/internal/model"
)

// TestProgressRoundTrip tests saving and reloading the cursor.
func TestProgressRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	want := Progress{
		HospitalRange:     "1-500",
		CurrentHospitalID: 37,
		MainDeptIndex:     2,
		SubDeptIndex:      1,
	}
	if err := store.SaveProgress(want); err != nil {
		t.Fatalf("failed to save progress: %v", err)
	}

	got, err := store.LoadProgress()
	if err != nil {
		t.Fatalf("failed to load progress: %v", err)
	}
	if got == nil {
		t.Fatal("expected progress, got nil")
	}
	if *got != want {
		t.Errorf("got %+v, want %+v", *got, want)
	}
}

// TestLoadProgress tests missing and corrupt progress files.
func TestLoadProgress(t *testing.T) {
	t.Parallel()

	t.Run("missing file starts fresh", func(t *testing.T) {
		t.Parallel()

		store, err := NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		p, err := store.LoadProgress()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != nil {
			t.Errorf("expected nil progress for missing file, got %+v", p)
		}
	})

	t.Run("corrupt file returns ErrCorrupt", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store, err := NewStore(dir)
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "progress.json"), []byte("{not json"), 0600); err != nil {
			t.Fatalf("failed to write corrupt file: %v", err)
		}

		if _, err := store.LoadProgress(); !errors.Is(err, ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})
}

// TestPending tests the pending-doctor work list lifecycle.
func TestPending(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	// Empty store yields an empty list.
	if got := store.LoadPending(); len(got) != 0 {
		t.Errorf("expected empty pending list, got %v", got)
	}

	targets := []model.Target{
		{URL: "https://example.com/doc/1", AvatarSrc: "https://cdn.example.com/1.jpg"},
		{URL: "https://example.com/doc/2"},
		{URL: "https://example.com/doc/3"},
	}
	if err := store.SavePending(targets); err != nil {
		t.Fatalf("failed to save pending: %v", err)
	}

	if got := store.LoadPending(); len(got) != 3 {
		t.Fatalf("expected 3 pending targets, got %d", len(got))
	}

	// Removing one keeps order of the rest.
	if err := store.RemovePending("https://example.com/doc/2"); err != nil {
		t.Fatalf("failed to remove pending: %v", err)
	}
	got := store.LoadPending()
	if len(got) != 2 {
		t.Fatalf("expected 2 pending targets after removal, got %d", len(got))
	}
	if got[0].URL != "https://example.com/doc/1" || got[1].URL != "https://example.com/doc/3" {
		t.Errorf("unexpected order after removal: %v", got)
	}
	if got[0].AvatarSrc != "https://cdn.example.com/1.jpg" {
		t.Errorf("avatar fallback lost: %+v", got[0])
	}

	// Clearing empties the list.
	if err := store.ClearPending(); err != nil {
		t.Fatalf("failed to clear pending: %v", err)
	}
	if got := store.LoadPending(); len(got) != 0 {
		t.Errorf("expected empty list after clear, got %v", got)
	}
}

// TestWriteAtomic verifies no temp files are left behind after saves.
func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.SaveProgress(Progress{HospitalRange: "1-2", CurrentHospitalID: 1}); err != nil {
		t.Fatalf("failed to save progress: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "progress.json" {
			t.Errorf("unexpected file left behind: %s", e.Name())
		}
	}
}
