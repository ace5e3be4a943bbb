package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCursorStoreMissingFile(t *testing.T) {
	store := NewCursorStore(filepath.Join(t.TempDir(), "cursor.json"))

	marker, ok := store.Load()
	if ok {
		t.Error("expected absent cursor for missing file")
	}
	if marker != 0 {
		t.Errorf("expected zero value, got %d", marker)
	}
}

func TestCursorStoreRoundTrip(t *testing.T) {
	store := NewCursorStore(filepath.Join(t.TempDir(), "cursor.json"))

	if err := store.Save(1234567); err != nil {
		t.Fatal(err)
	}
	marker, ok := store.Load()
	if !ok {
		t.Fatal("expected cursor to be present after save")
	}
	if marker != 1234567 {
		t.Errorf("expected 1234567, got %d", marker)
	}
}

func TestCursorStoreZeroIsPresent(t *testing.T) {
	store := NewCursorStore(filepath.Join(t.TempDir(), "cursor.json"))

	if err := store.Save(0); err != nil {
		t.Fatal(err)
	}
	marker, ok := store.Load()
	if !ok {
		t.Error("a saved zero marker must read back as present, not absent")
	}
	if marker != 0 {
		t.Errorf("expected 0, got %d", marker)
	}
}

func TestCursorStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewCursorStore(path)
	_, ok := store.Load()
	if ok {
		t.Error("corrupt file must behave like a missing one")
	}
}

func TestCursorStoreUnparseableValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor.json")
	if err := os.WriteFile(path, []byte(`{"updateMarker":"banana"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewCursorStore(path)
	_, ok := store.Load()
	if ok {
		t.Error("unparseable value must behave like a missing file")
	}
}

func TestCursorStoreOverwrite(t *testing.T) {
	store := NewCursorStore(filepath.Join(t.TempDir(), "cursor.json"))

	if err := store.Save(10); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(20); err != nil {
		t.Fatal(err)
	}
	marker, ok := store.Load()
	if !ok || marker != 20 {
		t.Errorf("expected 20, got %d (present=%v)", marker, ok)
	}
}

func TestCursorStoreCreatesParentDir(t *testing.T) {
	store := NewCursorStore(filepath.Join(t.TempDir(), "nested", "dir", "cursor.json"))
	if err := store.Save(5); err != nil {
		t.Fatal(err)
	}
	marker, ok := store.Load()
	if !ok || marker != 5 {
		t.Errorf("expected 5, got %d (present=%v)", marker, ok)
	}
}
