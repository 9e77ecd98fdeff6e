package photoindex

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"

	"github.com/kozaktomas/photo-cleanup/internal/catalog"
)

// DirectorySource serves each immediate subdirectory of a root directory as
// one collection. Photos are ordered by file modification time, the closest
// stand-in for capture order a bare filesystem offers.
type DirectorySource struct {
	root string
}

// NewDirectorySource creates a source over the given root directory.
func NewDirectorySource(root string) (*DirectorySource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("photo path %s is not a directory", root)
	}
	return &DirectorySource{root: root}, nil
}

// Collections returns one collection per subdirectory containing at least
// one image file.
func (s *DirectorySource) Collections(ctx context.Context) ([]Collection, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo directory: %w", err)
	}

	var collections []Collection
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		count, err := s.countImages(filepath.Join(s.root, entry.Name()))
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		collections = append(collections, Collection{
			ID:         CollectionKey(entry.Name()),
			Title:      entry.Name(),
			PhotoCount: count,
		})
	}
	return collections, nil
}

// Photos returns the collection's image files in modification-time order,
// with decoded dimensions. Files that fail to decode keep zero dimensions
// rather than being dropped; the analyzer decides what to do with them.
func (s *DirectorySource) Photos(ctx context.Context, collectionID string) ([]catalog.Photo, error) {
	dir, ok, err := s.resolveDir(collectionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection directory: %w", err)
	}

	var photos []catalog.Photo
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		width, height := imageDimensions(path)
		photos = append(photos, catalog.Photo{
			UID:           collectionID + "/" + entry.Name(),
			SourceRef:     path,
			TakenAt:       info.ModTime(),
			CollectionKey: collectionID,
			Width:         width,
			Height:        height,
		})
	}

	sort.Slice(photos, func(i, j int) bool {
		if photos[i].TakenAt.Equal(photos[j].TakenAt) {
			return photos[i].UID < photos[j].UID
		}
		return photos[i].TakenAt.Before(photos[j].TakenAt)
	})
	return photos, nil
}

// Open reads the photo file referenced by SourceRef.
func (s *DirectorySource) Open(ctx context.Context, photo catalog.Photo) ([]byte, error) {
	data, err := os.ReadFile(photo.SourceRef)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", photo.UID, err)
	}
	return data, nil
}

// resolveDir maps a collection ID back to its subdirectory.
func (s *DirectorySource) resolveDir(collectionID string) (string, bool, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", false, fmt.Errorf("failed to read photo directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() && CollectionKey(entry.Name()) == collectionID {
			return filepath.Join(s.root, entry.Name()), true, nil
		}
	}
	return "", false, nil
}

func (s *DirectorySource) countImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read collection directory: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && isImageFile(entry.Name()) {
			count++
		}
	}
	return count, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp":
		return true
	}
	return false
}

// imageDimensions decodes only the image header. Undecodable files report
// zero dimensions.
func imageDimensions(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
