package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sensefold/sensefold/internal/model"
	"github.com/sensefold/sensefold/internal/normalize"
	"github.com/sensefold/sensefold/internal/similarity"
)

func sampleConstant(id string) *model.SemanticConstant {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return &model.SemanticConstant{
		ConstantID:     id,
		CanonicalLabel: "A spicy noodle soup",
		Description:    "Southeast Asian noodle dish",
		Domains:        []string{"food"},
		Status:         model.StatusProvisional,
		CreatedFrom:    []string{"e1#1", "n1#1"},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	store := NewFileStore(path)

	want := sampleConstant("SPICY_NOODLE_SOUP")
	if err := store.Upsert(want); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	loaded, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, ok := loaded["SPICY_NOODLE_SOUP"]
	if !ok {
		t.Fatal("Expected constant to survive reload")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Constant mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	constants, err := store.Load()
	if err != nil {
		t.Fatalf("Expected missing file to load as empty, got %v", err)
	}
	if len(constants) != 0 {
		t.Errorf("Expected empty registry, got %d constants", len(constants))
	}
}

func TestFileStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, []byte("{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Error("Expected error for corrupt registry file")
	}
}

func TestFileStore_UpsertReplaces(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "registry.json"))

	c := sampleConstant("SPICY_NOODLE_SOUP")
	if err := store.Upsert(c); err != nil {
		t.Fatal(err)
	}

	c.Status = model.StatusCurated
	c.CanonicalLabel = "laksa"
	if err := store.Upsert(c); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 record after replace, got %d", len(loaded))
	}
	if loaded["SPICY_NOODLE_SOUP"].Status != model.StatusCurated {
		t.Errorf("Expected replaced status, got %s", loaded["SPICY_NOODLE_SOUP"].Status)
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer func() { _ = store.Close() }()

	want := sampleConstant("SPICY_NOODLE_SOUP")
	if err := store.Upsert(want); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, ok := loaded["SPICY_NOODLE_SOUP"]
	if !ok {
		t.Fatal("Expected constant in loaded set")
	}
	if got.CanonicalLabel != want.CanonicalLabel || got.Status != want.Status {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if diff := cmp.Diff(want.Domains, got.Domains); diff != "" {
		t.Errorf("Domains mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.CreatedFrom, got.CreatedFrom); diff != "" {
		t.Errorf("CreatedFrom mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_UpsertIsAtomicReplace(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	c := sampleConstant("SPICY_NOODLE_SOUP")
	if err := store.Upsert(c); err != nil {
		t.Fatal(err)
	}
	c.SupersededBy = "LAKSA"
	if err := store.Upsert(c); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(loaded))
	}
	if loaded["SPICY_NOODLE_SOUP"].SupersededBy != "LAKSA" {
		t.Errorf("Expected supersede marker persisted, got %q", loaded["SPICY_NOODLE_SOUP"].SupersededBy)
	}
}

func TestSQLiteStore_RegistryIntegration(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = store.Close() }()

	r := New(store, similarity.NewScorer(), normalize.New())
	introduced, err := r.Introduce(testBucket("spicy noodle soup", 0.8, true, "spicy", "noodle", "soup"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := r.Promote(introduced.ConstantID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded[introduced.ConstantID].Status != model.StatusCurated {
		t.Errorf("Expected curated status in sqlite, got %s", loaded[introduced.ConstantID].Status)
	}
}
