package gallery

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMediaStore_Save(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewMediaStore failed: %v", err)
	}

	locator, err := store.Save([]byte("video-bytes"), "result.mp4", "video/mp4")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(locator)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("Unexpected file content: %q", data)
	}
	if filepath.Base(locator) != "result.mp4" {
		t.Errorf("Expected file name result.mp4, got %s", filepath.Base(locator))
	}
}

func TestMediaStore_Save_InfersExtensionFromMime(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewMediaStore failed: %v", err)
	}

	cases := []struct {
		name string
		mime string
		ext  string
	}{
		{"clip", "video/mp4", ".mp4"},
		{"frame", "image/png", ".png"},
		{"track", "audio/mpeg", ".mp3"},
		{"blob", "", ".bin"},
	}
	for _, tc := range cases {
		locator, err := store.Save([]byte("x"), tc.name, tc.mime)
		if err != nil {
			t.Fatalf("Save failed for %q: %v", tc.mime, err)
		}
		if filepath.Ext(locator) != tc.ext {
			t.Errorf("Expected extension %s for mime %q, got %s", tc.ext, tc.mime, filepath.Ext(locator))
		}
	}
}

func TestMediaStore_Save_CollisionGetsUniqueName(t *testing.T) {
	store, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewMediaStore failed: %v", err)
	}

	first, err := store.Save([]byte("one"), "out.png", "image/png")
	if err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	second, err := store.Save([]byte("two"), "out.png", "image/png")
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	if first == second {
		t.Errorf("Expected distinct locators for colliding names, got %s twice", first)
	}

	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("Failed to read first file: %v", err)
	}
	if string(data) != "one" {
		t.Errorf("First file was overwritten: %q", data)
	}
}

func TestMediaStore_Save_SanitizesTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewMediaStore(dir)
	if err != nil {
		t.Fatalf("NewMediaStore failed: %v", err)
	}

	locator, err := store.Save([]byte("x"), "../../etc/passwd", "image/png")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Dir(locator) != dir {
		t.Errorf("Saved file escaped the gallery directory: %s", locator)
	}
}
