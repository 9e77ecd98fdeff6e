package photoindex

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCollectionKey(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"plain", "Summer", "summer"},
		{"spaces to dashes", "Summer Trip 2024", "summer-trip-2024"},
		{"diacritics removed", "Výlet do Itálie", "vylet-do-italie"},
		{"punctuation collapsed", "Trip / 2024 - Italy!", "trip-2024-italy"},
		{"leading and trailing noise", "  Trip  ", "trip"},
		{"already normalized", "trip-2024", "trip-2024"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollectionKey(tt.title)
			if got != tt.expected {
				t.Errorf("CollectionKey(%q) = %q, want %q", tt.title, got, tt.expected)
			}
		})
	}
}

func TestDirectorySourceCollections(t *testing.T) {
	root := t.TempDir()
	writeTestJPEG(t, filepath.Join(root, "Summer Trip", "a.jpg"))
	writeTestJPEG(t, filepath.Join(root, "Summer Trip", "b.jpg"))
	writeTestJPEG(t, filepath.Join(root, "Winter", "c.jpg"))
	// A directory without images is not a collection.
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	// Loose files at the root are ignored.
	writeTestJPEG(t, filepath.Join(root, "loose.jpg"))

	src, err := NewDirectorySource(root)
	if err != nil {
		t.Fatalf("NewDirectorySource failed: %v", err)
	}

	collections, err := src.Collections(context.Background())
	if err != nil {
		t.Fatalf("Collections failed: %v", err)
	}
	if len(collections) != 2 {
		t.Fatalf("got %d collections, want 2: %v", len(collections), collections)
	}

	byID := make(map[string]Collection)
	for _, c := range collections {
		byID[c.ID] = c
	}
	summer, ok := byID["summer-trip"]
	if !ok {
		t.Fatal("missing collection summer-trip")
	}
	if summer.Title != "Summer Trip" || summer.PhotoCount != 2 {
		t.Errorf("summer-trip = %+v, want title 'Summer Trip' with 2 photos", summer)
	}
	if _, ok := byID["winter"]; !ok {
		t.Error("missing collection winter")
	}
}

func TestDirectorySourcePhotosOrderedByModTime(t *testing.T) {
	root := t.TempDir()
	older := filepath.Join(root, "trip", "newer-name-older-file.jpg")
	newer := filepath.Join(root, "trip", "a-older-name-newer-file.jpg")
	writeTestJPEG(t, older)
	writeTestJPEG(t, newer)

	// Force distinct mod times regardless of filesystem resolution.
	base := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, base, base); err != nil {
		t.Fatalf("failed to set mod time: %v", err)
	}
	if err := os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)); err != nil {
		t.Fatalf("failed to set mod time: %v", err)
	}

	src, err := NewDirectorySource(root)
	if err != nil {
		t.Fatalf("NewDirectorySource failed: %v", err)
	}
	photos, err := src.Photos(context.Background(), "trip")
	if err != nil {
		t.Fatalf("Photos failed: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("got %d photos, want 2", len(photos))
	}
	if photos[0].UID != "trip/newer-name-older-file.jpg" {
		t.Errorf("first photo = %s, want the older file first", photos[0].UID)
	}
	if photos[0].Width != 32 || photos[0].Height != 24 {
		t.Errorf("dimensions = %dx%d, want 32x24", photos[0].Width, photos[0].Height)
	}
	if photos[0].CollectionKey != "trip" {
		t.Errorf("collection key = %s, want trip", photos[0].CollectionKey)
	}
}

func TestDirectorySourcePhotosUnknownCollection(t *testing.T) {
	src, err := NewDirectorySource(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirectorySource failed: %v", err)
	}
	photos, err := src.Photos(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unknown collection must not error: %v", err)
	}
	if photos != nil {
		t.Errorf("got %v, want nil", photos)
	}
}

func TestDirectorySourceOpen(t *testing.T) {
	root := t.TempDir()
	writeTestJPEG(t, filepath.Join(root, "trip", "a.jpg"))

	src, err := NewDirectorySource(root)
	if err != nil {
		t.Fatalf("NewDirectorySource failed: %v", err)
	}
	photos, err := src.Photos(context.Background(), "trip")
	if err != nil || len(photos) != 1 {
		t.Fatalf("Photos = (%v, %v), want 1 photo", photos, err)
	}

	data, err := src.Open(context.Background(), photos[0])
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("opened bytes are not a decodable image: %v", err)
	}
}

func TestNewDirectorySourceRejectsMissingPath(t *testing.T) {
	if _, err := NewDirectorySource("/does/not/exist"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func writeTestJPEG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 96, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
}
