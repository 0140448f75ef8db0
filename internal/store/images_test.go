package store

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestImageStoreRoundTrip(t *testing.T) {
	s := NewImageStore(filepath.Join(t.TempDir(), "images"))

	data := []byte{0xff, 0xd8, 0xff, 0xe0}
	if err := s.Save("scene-1", data); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load("scene-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Load returned %v, want %v", got, data)
	}
}

func TestImageStoreDelete(t *testing.T) {
	s := NewImageStore(filepath.Join(t.TempDir(), "images"))

	if err := s.Save("scene-1", []byte("img")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Delete("scene-1"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if _, err := s.Load("scene-1"); err == nil {
		t.Error("Load succeeded after delete")
	}

	// Deleting again is not an error.
	if err := s.Delete("scene-1"); err != nil {
		t.Errorf("Delete of a missing image failed: %v", err)
	}
}
