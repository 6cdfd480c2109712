package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mmynk/fairshare/internal/models"
	"github.com/mmynk/fairshare/internal/storage"
)

func TestSnapshotStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "fairshare-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("Load before Save reports nothing stored", func(t *testing.T) {
		_, ok, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if ok {
			t.Error("Expected no snapshot")
		}
		if _, err := store.SavedAt(ctx); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	two := 2.0
	linked := 1
	snap := storage.Snapshot{
		Shareholders: map[int]models.Shareholder{
			1: {ID: 1, Name: "Ada", Email: "ada@example.com", Grants: []int{1}, Group: models.GroupFounder},
		},
		Users: map[string]models.User{
			"ada@example.com": {Email: "ada@example.com", Name: "Ada", ShareholderID: &linked},
		},
		Grants: map[int]models.Grant{
			1: {ID: 1, Name: "Founding", Amount: 1000, Issued: "2024-01-01", Type: models.ShareCommon},
		},
		Company: &models.Company{Name: "Acme", ShareTypes: models.ShareValues{"common": &two, "preferred": nil}},
	}

	t.Run("Save then Load round-trips", func(t *testing.T) {
		if err := store.Save(ctx, snap); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, ok, err := store.Load(ctx)
		if err != nil || !ok {
			t.Fatalf("Load failed: ok=%v err=%v", ok, err)
		}
		if diff := cmp.Diff(snap, got); diff != "" {
			t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
		}
		if _, err := store.SavedAt(ctx); err != nil {
			t.Errorf("SavedAt failed: %v", err)
		}
	})

	t.Run("Save overwrites", func(t *testing.T) {
		next := snap
		next.Company = nil
		next.Grants = map[int]models.Grant{}
		if err := store.Save(ctx, next); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, _, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Company != nil || len(got.Grants) != 0 {
			t.Errorf("expected overwritten snapshot, got %+v", got)
		}
	})

	t.Run("Reopen keeps data", func(t *testing.T) {
		again, err := New(dbPath)
		if err != nil {
			t.Fatalf("Reopen failed: %v", err)
		}
		defer again.Close()
		got, ok, err := again.Load(ctx)
		if err != nil || !ok {
			t.Fatalf("Load after reopen failed: ok=%v err=%v", ok, err)
		}
		if got.Shareholders[1].Name != "Ada" {
			t.Errorf("unexpected shareholder after reopen: %+v", got.Shareholders[1])
		}
	})
}
